package viewmodel

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/db"
	"github.com/erazemk/materiais/internal/fakeapi"
	"github.com/erazemk/materiais/internal/model"
	"github.com/erazemk/materiais/internal/session"
)

func setupProfile(t *testing.T) (*fakeapi.Backend, *session.Manager, *session.Session) {
	t.Helper()
	backend, server := fakeapi.NewServer(t)
	backend.AddUser("Maria", "maria@example.com", "password")

	key := bytes.Repeat([]byte{7}, session.KeySize)
	m, err := session.NewManager(db.NewTestDB(t), apiclient.New(server.URL, 5*time.Second), key, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	s, err := m.Login(context.Background(), "maria@example.com", "password")
	if err != nil {
		t.Fatal(err)
	}
	return backend, m, s
}

func TestProfileOtherUserForbidden(t *testing.T) {
	backend, m, s := setupProfile(t)
	other := backend.AddUser("João", "joao@example.com", "password")
	vm := NewProfile(m, s, nil)
	before := backend.TotalRequests()

	if _, err := vm.Profile(context.Background(), other.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := vm.UpdateProfile(context.Background(), other.ID, "x", "x@example.com", ""); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden on update, got %v", err)
	}
	if err := vm.DeleteAccount(context.Background(), other.ID, true); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden on delete, got %v", err)
	}
	if backend.TotalRequests() != before {
		t.Error("forbidden profile access must not reach the backend")
	}
}

func TestUpdateProfileKeepsPasswordAndRefreshesSession(t *testing.T) {
	_, m, s := setupProfile(t)
	vm := NewProfile(m, s, nil)
	ctx := context.Background()

	u, err := vm.UpdateProfile(ctx, s.User.ID, " Maria Silva ", "silva@example.com", "")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.Name != "Maria Silva" {
		t.Errorf("expected trimmed name, got %q", u.Name)
	}
	if s.User.Email != "silva@example.com" {
		t.Errorf("expected session user refreshed, got %q", s.User.Email)
	}

	// A blank password leaves the old one in place.
	if _, err := m.Login(ctx, "silva@example.com", "password"); err != nil {
		t.Errorf("expected old password to still work: %v", err)
	}
}

func TestConcurrentDifferentProfileUpdatesAreBothSent(t *testing.T) {
	backend, m, s := setupProfile(t)
	pending := &Pending{}
	route := "PUT /users/" + s.User.ID.String()
	release := backend.Hold(route)
	defer release()

	names := []string{"Maria Silva", "Maria Souza"}
	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		// Each request restores its own copy of the session.
		sess := *s
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = NewProfile(m, &sess, pending).UpdateProfile(context.Background(), sess.User.ID, name, "maria@example.com", "")
		}()
	}

	waitFor(t, func() bool { return backend.Requests(route) == 2 })
	release()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("update #%d: %v", i+1, err)
		}
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	backend, m, s := setupProfile(t)
	vm := NewProfile(m, s, nil)
	before := backend.TotalRequests()

	_, err := vm.UpdateProfile(context.Background(), s.User.ID, "", "not-an-email", "")
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if backend.TotalRequests() != before {
		t.Error("invalid profile must not reach the backend")
	}
}

func TestDeleteAccountEndsSession(t *testing.T) {
	_, m, s := setupProfile(t)
	vm := NewProfile(m, s, nil)
	ctx := context.Background()

	if err := vm.DeleteAccount(ctx, s.User.ID, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if err := vm.DeleteAccount(ctx, s.User.ID, true); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if restored, _ := m.Restore(ctx, s.ID); restored != nil {
		t.Error("expected session removed after account deletion")
	}
	if _, err := m.Login(ctx, "maria@example.com", "password"); !errors.Is(err, model.ErrAuth) {
		t.Errorf("expected deleted account unable to log in, got %v", err)
	}
}
