package viewmodel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/materiais/internal/model"
)

// Snapshot is what the dashboard renders: items and the activity feed,
// loaded together.
type Snapshot struct {
	Items      []model.Item
	Activities []ActivityRow
}

// Items is the view-model of the dashboard and the item forms.
// It is not safe for concurrent use; build one per view.
type Items struct {
	api       ItemsAPI
	pending   *Pending
	sessionID string

	snapshot *Snapshot
}

// NewItems returns an item view-model. sessionID scopes duplicate-submission
// detection to one user session.
func NewItems(api ItemsAPI, pending *Pending, sessionID string) *Items {
	if pending == nil {
		pending = &Pending{}
	}
	return &Items{api: api, pending: pending, sessionID: sessionID}
}

// Dashboard fetches items and activities concurrently and returns them only
// when both succeed. The result is cached until the next mutation.
func (vm *Items) Dashboard(ctx context.Context) (*Snapshot, error) {
	if vm.snapshot != nil {
		return vm.snapshot, nil
	}

	var items []model.Item
	var activities []model.Activity

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = vm.api.ListItems(gctx)
		if err != nil {
			return fmt.Errorf("loading items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		activities, err = vm.api.ListActivities(gctx)
		if err != nil {
			return fmt.Errorf("loading activities: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The caller went away; discard the results.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []model.Item{}
	}
	vm.snapshot = &Snapshot{Items: items, Activities: Rows(activities)}
	return vm.snapshot, nil
}

// List returns every item in backend order. An empty list is not an error.
func (vm *Items) List(ctx context.Context) ([]model.Item, error) {
	if vm.snapshot != nil {
		return vm.snapshot.Items, nil
	}
	items, err := vm.api.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Activities returns the activity feed in backend order.
func (vm *Items) Activities(ctx context.Context) ([]ActivityRow, error) {
	if vm.snapshot != nil {
		return vm.snapshot.Activities, nil
	}
	activities, err := vm.api.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	return Rows(activities), nil
}

// Get returns one item for editing. A missing item wraps model.ErrNotFound.
func (vm *Items) Get(ctx context.Context, id model.ID) (*model.Item, error) {
	if id == "" {
		return nil, fmt.Errorf("getting item: empty id: %w", model.ErrNotFound)
	}
	it, err := vm.api.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", id, err)
	}
	return it, nil
}

// Create validates fields and submits a new item. Invalid fields are
// rejected before any backend call.
func (vm *Items) Create(ctx context.Context, fields model.ItemFields) (*model.Item, error) {
	fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	key := pendingKey(vm.sessionID, "create", fields.Key())
	v, err := vm.pending.Do(ctx, key, func(ctx context.Context) (any, error) {
		return vm.api.CreateItem(ctx, fields)
	})
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	vm.invalidate()
	return v.(*model.Item), nil
}

// Update replaces every mutable field of an item.
func (vm *Items) Update(ctx context.Context, id model.ID, fields model.ItemFields) (*model.Item, error) {
	fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	key := pendingKey(vm.sessionID, "update", id.String()+"\x00"+fields.Key())
	v, err := vm.pending.Do(ctx, key, func(ctx context.Context) (any, error) {
		return vm.api.UpdateItem(ctx, id, fields)
	})
	if err != nil {
		return nil, fmt.Errorf("updating item %s: %w", id, err)
	}
	vm.invalidate()
	return v.(*model.Item), nil
}

// Delete removes an item. Without confirmation nothing is sent.
func (vm *Items) Delete(ctx context.Context, id model.ID, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	key := pendingKey(vm.sessionID, "delete", id.String())
	_, err := vm.pending.Do(ctx, key, func(ctx context.Context) (any, error) {
		return nil, vm.api.DeleteItem(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	vm.invalidate()
	return nil
}

// invalidate drops the snapshot so items and activities reload together.
func (vm *Items) invalidate() {
	vm.snapshot = nil
}
