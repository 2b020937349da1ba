package fakeapi

import (
	"net/http"

	"github.com/erazemk/materiais/internal/model"
)

func (b *Backend) listItems(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	items := make([]item, 0, len(b.items))
	for _, it := range b.items {
		items = append(items, *it)
	}
	b.mu.Unlock()
	jsonResponse(w, http.StatusOK, items)
}

func (b *Backend) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, it := b.findItem(id)
	if it == nil {
		jsonError(w, http.StatusNotFound, "Item não encontrado")
		return
	}
	jsonResponse(w, http.StatusOK, it)
}

func (b *Backend) createItem(w http.ResponseWriter, r *http.Request) {
	var fields model.ItemFields
	if err := decodeJSON(r, &fields); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := fields.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	it := &item{ID: b.id(), ItemFields: fields}
	b.items = append(b.items, it)
	b.addActivity(model.ActionCreate, currentUser(r.Context()), it)
	jsonResponse(w, http.StatusCreated, it)
}

func (b *Backend) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var fields model.ItemFields
	if err := decodeJSON(r, &fields); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := fields.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, it := b.findItem(id)
	if it == nil {
		jsonError(w, http.StatusNotFound, "Item não encontrado")
		return
	}
	it.ItemFields = fields
	b.addActivity(model.ActionUpdate, currentUser(r.Context()), it)
	jsonResponse(w, http.StatusOK, it)
}

func (b *Backend) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	idx, it := b.findItem(id)
	if it == nil {
		jsonError(w, http.StatusNotFound, "Item não encontrado")
		return
	}
	b.items = append(b.items[:idx], b.items[idx+1:]...)
	b.addActivity(model.ActionDelete, currentUser(r.Context()), it)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listActivities(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	activities := make([]activity, 0, len(b.activities))
	for _, a := range b.activities {
		activities = append(activities, *a)
	}
	b.mu.Unlock()
	jsonResponse(w, http.StatusOK, activities)
}

// findItem returns the index and item with id. Caller holds b.mu.
func (b *Backend) findItem(id int64) (int, *item) {
	for i, it := range b.items {
		if it.ID == id {
			return i, it
		}
	}
	return -1, nil
}
