package fakeapi

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/materiais/internal/model"
)

// selfOnly resolves the path id and rejects access to other users' records.
func (b *Backend) selfOnly(w http.ResponseWriter, r *http.Request) (*user, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return nil, false
	}
	u := currentUser(r.Context())
	if u.ID != id {
		jsonError(w, http.StatusForbidden, "Você não tem permissão para acessar outros usuários")
		return nil, false
	}
	return u, true
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	u, ok := b.selfOnly(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	jsonResponse(w, http.StatusOK, u)
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request) {
	u, ok := b.selfOnly(w, r)
	if !ok {
		return
	}

	var req model.UserUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		jsonError(w, http.StatusBadRequest, "Nome e email são obrigatórios")
		return
	}

	var hash []byte
	if req.Password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, other := range b.users {
		if other.ID != u.ID && strings.EqualFold(other.Email, req.Email) {
			jsonError(w, http.StatusConflict, "Email já cadastrado")
			return
		}
	}
	u.Name = req.Name
	u.Email = req.Email
	if hash != nil {
		u.PasswordHash = string(hash)
	}
	jsonResponse(w, http.StatusOK, u)
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request) {
	u, ok := b.selfOnly(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, u.ID)
	w.WriteHeader(http.StatusNoContent)
}
