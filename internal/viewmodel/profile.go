package viewmodel

import (
	"context"
	"fmt"

	"github.com/erazemk/materiais/internal/model"
	"github.com/erazemk/materiais/internal/session"
)

// Profile is the view-model of the self-service profile page. Every
// operation is limited to the session's own user.
type Profile struct {
	manager *session.Manager
	sess    *session.Session
	api     UsersAPI
	pending *Pending
}

// NewProfile returns a profile view-model for the user of s.
func NewProfile(manager *session.Manager, s *session.Session, pending *Pending) *Profile {
	if pending == nil {
		pending = &Pending{}
	}
	return &Profile{manager: manager, sess: s, api: manager.Client(s), pending: pending}
}

func (vm *Profile) checkSelf(id model.ID) error {
	if id == "" || id != vm.sess.User.ID {
		return fmt.Errorf("user %s: %w", id, model.ErrForbidden)
	}
	return nil
}

// Profile fetches the user's own record. Other users are forbidden without
// a backend call.
func (vm *Profile) Profile(ctx context.Context, id model.ID) (*model.User, error) {
	if err := vm.checkSelf(id); err != nil {
		return nil, err
	}
	u, err := vm.api.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return u, nil
}

// UpdateProfile changes name, email and optionally the password. A blank
// password keeps the current one. The session's cached user is refreshed.
func (vm *Profile) UpdateProfile(ctx context.Context, id model.ID, name, email, password string) (*model.User, error) {
	if err := vm.checkSelf(id); err != nil {
		return nil, err
	}

	update := model.UserUpdate{Name: name, Email: email, Password: password}
	update.Normalize()
	if err := update.Validate(); err != nil {
		return nil, err
	}

	key := pendingKey(vm.sess.ID, "update-user", id.String()+"\x00"+update.Key())
	v, err := vm.pending.Do(ctx, key, func(ctx context.Context) (any, error) {
		return vm.api.UpdateUser(ctx, id, update)
	})
	if err != nil {
		return nil, fmt.Errorf("updating user %s: %w", id, err)
	}
	u := v.(*model.User)

	if err := vm.manager.UpdateUser(ctx, vm.sess, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteAccount removes the user's own account and ends the session.
func (vm *Profile) DeleteAccount(ctx context.Context, id model.ID, confirmed bool) error {
	if err := vm.checkSelf(id); err != nil {
		return err
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	_, err := vm.pending.Do(ctx, pendingKey(vm.sess.ID, "delete-user", id.String()), func(ctx context.Context) (any, error) {
		return nil, vm.api.DeleteUser(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	return vm.manager.Logout(ctx, vm.sess.ID)
}
