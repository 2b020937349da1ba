// Package viewmodel mediates between the pages of the front-end and the
// backend collections. View-models are built per view and hold state only
// for that view's lifetime.
package viewmodel

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/erazemk/materiais/internal/model"
)

// ErrNotConfirmed is returned by destructive operations called without an
// explicit confirmation.
var ErrNotConfirmed = errors.New("action not confirmed")

// ItemsAPI is the part of the backend the item views use.
type ItemsAPI interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	GetItem(ctx context.Context, id model.ID) (*model.Item, error)
	CreateItem(ctx context.Context, fields model.ItemFields) (*model.Item, error)
	UpdateItem(ctx context.Context, id model.ID, fields model.ItemFields) (*model.Item, error)
	DeleteItem(ctx context.Context, id model.ID) error
	ListActivities(ctx context.Context) ([]model.Activity, error)
}

// UsersAPI is the part of the backend the profile view uses.
type UsersAPI interface {
	GetUser(ctx context.Context, id model.ID) (*model.User, error)
	UpdateUser(ctx context.Context, id model.ID, update model.UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, id model.ID) error
}

// Pending collapses concurrent submissions of the same action into a single
// backend call. One Pending is shared by every view of a process.
type Pending struct {
	group singleflight.Group
}

// Do runs fn unless an identical submission is already in flight, in which
// case it waits for that one and returns its result. fn runs detached from
// the cancellation of any single caller, so a caller that goes away does not
// abort the call the others joined; a cancelled caller stops waiting and gets
// ctx.Err().
func (p *Pending) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		return fn(shared)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// pendingKey identifies a submission by session, action and target.
func pendingKey(sessionID, action, target string) string {
	return strings.Join([]string{sessionID, action, target}, "\x00")
}
