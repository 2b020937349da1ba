// Package guard decides which paths need an authenticated session.
package guard

import (
	"context"
	"net/http"
	"strings"

	"github.com/erazemk/materiais/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// IsAuthenticated reports whether s carries a user and a token.
func IsAuthenticated(s *session.Session) bool {
	return s != nil && s.User.ID != "" && s.Token != ""
}

// Policy lists the paths reachable without a session. Entries ending in "/"
// match every path below them.
type Policy struct {
	LoginPath string
	Public    []string
}

// DefaultPolicy is the policy of the web front-end.
var DefaultPolicy = Policy{
	LoginPath: "/login",
	Public:    []string{"/login", "/register", "/forgot-password", "/reset-password", "/logout", "/static/"},
}

// IsPublic reports whether path is reachable without a session.
func (p Policy) IsPublic(path string) bool {
	for _, pub := range p.Public {
		if path == pub {
			return true
		}
		if strings.HasSuffix(pub, "/") && strings.HasPrefix(path, pub) {
			return true
		}
	}
	return false
}

// Allow decides whether path may be rendered for s. When it may not, the
// redirect target is returned.
func (p Policy) Allow(path string, s *session.Session) (redirect string, ok bool) {
	if p.IsPublic(path) || IsAuthenticated(s) {
		return "", true
	}
	return p.LoginPath, false
}

// Middleware resolves the session of every request, stores it in the request
// context, and redirects requests for protected paths that have none.
func (p Policy) Middleware(resolve func(*http.Request) *session.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := resolve(r)
			if redirect, ok := p.Allow(r.URL.Path, s); !ok {
				http.Redirect(w, r, redirect, http.StatusSeeOther)
				return
			}
			if s != nil {
				r = r.WithContext(WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}
