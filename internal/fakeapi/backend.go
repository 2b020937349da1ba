// Package fakeapi is an in-memory implementation of the materials backend
// REST contract, used by tests of the client packages.
package fakeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/materiais/internal/model"
)

type user struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

type item struct {
	ID int64 `json:"id"`
	model.ItemFields
}

type activityUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type activity struct {
	ID        int64        `json:"id"`
	Action    string       `json:"action"`
	UserID    int64        `json:"userId"`
	User      activityUser `json:"user"`
	Details   string       `json:"details"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Backend holds the fake backend's state. All methods are safe for
// concurrent use.
type Backend struct {
	secret      string
	TokenExpiry time.Duration

	mu          sync.Mutex
	nextID      int64
	users       map[int64]*user
	items       []*item
	activities  []*activity
	revoked     map[string]bool
	resetTokens map[string]int64
	requests    map[string]int
	failures    map[string]int
	holds       map[string]chan struct{}
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		secret:      "fake-backend-secret",
		TokenExpiry: TokenExpiry,
		users:       make(map[int64]*user),
		revoked:     make(map[string]bool),
		resetTokens: make(map[string]int64),
		requests:    make(map[string]int),
		failures:    make(map[string]int),
		holds:       make(map[string]chan struct{}),
	}
}

// NewServer starts a backend behind an httptest server that is closed when
// the test finishes.
func NewServer(t *testing.T) (*Backend, *httptest.Server) {
	t.Helper()
	b := New()
	server := httptest.NewServer(b.Handler())
	t.Cleanup(server.Close)
	return b, server
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

// AddUser creates an account directly and returns its public view.
func (b *Backend) AddUser(name, email, password string) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("hashing password: %v", err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u := &user{ID: b.id(), Name: name, Email: email, PasswordHash: string(hash)}
	b.users[u.ID] = u
	return u.public()
}

// Token issues a valid token for an existing user.
func (b *Backend) Token(u model.User) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, candidate := range b.users {
		if fmt.Sprint(candidate.ID) == u.ID.String() {
			token, err := issueToken(b.secret, candidate, b.TokenExpiry)
			if err != nil {
				panic(err)
			}
			return token
		}
	}
	panic("unknown user " + u.ID.String())
}

// RevokeAll invalidates every token issued so far.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.secret += "-rotated"
}

// ResetToken returns the pending password-reset token for email.
func (b *Backend) ResetToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for token, id := range b.resetTokens {
		if u, ok := b.users[id]; ok && u.Email == email {
			return token
		}
	}
	return ""
}

// Requests returns how many times "METHOD /path" was requested.
func (b *Backend) Requests(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[route]
}

// TotalRequests returns the number of requests received.
func (b *Backend) TotalRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.requests {
		total += n
	}
	return total
}

// FailWith makes every request to "METHOD /path" answer with status.
func (b *Backend) FailWith(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = status
}

// Hold blocks requests to "METHOD /path" until the returned function is
// called. Requests already counted are visible through Requests while held.
func (b *Backend) Hold(route string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[route] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.holds, route)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Items returns a snapshot of the stored items.
func (b *Backend) Items() []model.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Item, 0, len(b.items))
	for _, it := range b.items {
		out = append(out, it.public())
	}
	return out
}

// record counts a request, applies injected failures and holds. It reports
// whether the handler should continue.
func (b *Backend) record(w http.ResponseWriter, r *http.Request) bool {
	route := r.Method + " " + r.URL.Path

	b.mu.Lock()
	b.requests[route]++
	status := b.failures[route]
	hold := b.holds[route]
	b.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return false
		}
	}
	if status != 0 {
		jsonError(w, status, http.StatusText(status))
		return false
	}
	return true
}

// addActivity appends an audit record. Caller holds b.mu.
func (b *Backend) addActivity(action string, u *user, it *item) {
	details, _ := json.Marshal(map[string]any{
		"itemName": it.Item,
		"itemId":   it.ID,
	})
	a := &activity{
		ID:        b.id(),
		Action:    action,
		UserID:    u.ID,
		User:      activityUser{ID: u.ID, Name: u.Name},
		Details:   string(details),
		CreatedAt: time.Now().UTC(),
	}
	// Newest first.
	b.activities = append([]*activity{a}, b.activities...)
}

// AddRawActivity appends an activity with arbitrary details, for testing
// malformed audit data.
func (b *Backend) AddRawActivity(action, details string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activities = append([]*activity{{
		ID:        b.id(),
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}}, b.activities...)
}

func (u *user) public() model.User {
	return model.User{ID: model.ID(fmt.Sprint(u.ID)), Name: u.Name, Email: u.Email}
}

func (it *item) public() model.Item {
	return model.Item{ID: model.ID(fmt.Sprint(it.ID)), ItemFields: it.ItemFields}
}

type contextKey string

const userKey contextKey = "user"

func currentUser(ctx context.Context) *user {
	u, _ := ctx.Value(userKey).(*user)
	return u
}
