package fakeapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Handler returns the backend's HTTP handler.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	authMW := b.authMiddleware

	// Public: auth.
	mux.HandleFunc("POST /auth/login", b.login)
	mux.HandleFunc("POST /auth/register", b.register)
	mux.HandleFunc("POST /auth/forgot-password", b.forgotPassword)
	mux.HandleFunc("POST /auth/reset-password", b.resetPassword)

	// Items: any authenticated user.
	mux.Handle("GET /items", authMW(http.HandlerFunc(b.listItems)))
	mux.Handle("POST /items", authMW(http.HandlerFunc(b.createItem)))
	mux.Handle("GET /items/activities/all", authMW(http.HandlerFunc(b.listActivities)))
	mux.Handle("GET /items/{id}", authMW(http.HandlerFunc(b.getItem)))
	mux.Handle("PUT /items/{id}", authMW(http.HandlerFunc(b.updateItem)))
	mux.Handle("DELETE /items/{id}", authMW(http.HandlerFunc(b.deleteItem)))

	// Users: self only.
	mux.Handle("GET /users/{id}", authMW(http.HandlerFunc(b.getUser)))
	mux.Handle("PUT /users/{id}", authMW(http.HandlerFunc(b.updateUser)))
	mux.Handle("DELETE /users/{id}", authMW(http.HandlerFunc(b.deleteUser)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.record(w, r) {
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// authMiddleware validates the bearer token and adds the user to the context.
func (b *Backend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		b.mu.Lock()
		secret := b.secret
		b.mu.Unlock()

		id, err := parseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		b.mu.Lock()
		u := b.users[id]
		b.mu.Unlock()
		if u == nil {
			jsonError(w, http.StatusUnauthorized, "user no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}
