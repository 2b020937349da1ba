package fakeapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/materiais/internal/model"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	var found *user
	for _, u := range b.users {
		if strings.EqualFold(u.Email, req.Email) {
			cp := *u
			found = &cp
			break
		}
	}
	secret, expiry := b.secret, b.TokenExpiry
	b.mu.Unlock()

	if found == nil || bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(req.Password)) != nil {
		jsonError(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}

	token, err := issueToken(secret, found, expiry)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": found, "token": token})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "Nome, email e senha são obrigatórios")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if strings.EqualFold(u.Email, req.Email) {
			jsonError(w, http.StatusConflict, "Email já cadastrado")
			return
		}
	}
	u := &user{ID: b.id(), Name: req.Name, Email: req.Email, PasswordHash: string(hash)}
	b.users[u.ID] = u
	jsonResponse(w, http.StatusCreated, u)
}

func (b *Backend) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if strings.EqualFold(u.Email, req.Email) {
			b.resetTokens[token] = u.ID
			break
		}
	}
	// Unknown addresses get the same answer.
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reset email sent"})
}

func (b *Backend) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Token == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "token and password required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.resetTokens[req.Token]
	if !ok {
		jsonError(w, http.StatusBadRequest, "Token inválido ou expirado")
		return
	}
	delete(b.resetTokens, req.Token)
	if u := b.users[id]; u != nil {
		u.PasswordHash = string(hash)
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
