package web

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/erazemk/materiais/internal/guard"
	"github.com/erazemk/materiais/internal/session"
	"github.com/erazemk/materiais/internal/viewmodel"
	webembed "github.com/erazemk/materiais/web"
)

// Server holds all dependencies for page handlers.
type Server struct {
	Sessions  *session.Manager
	Cookies   sessions.Store
	Templates *Templates
	Pending   *viewmodel.Pending
	Policy    guard.Policy
}

// Options configures the browser cookie.
type Options struct {
	HashKey  []byte
	BlockKey []byte
	Secure   bool
	MaxAge   time.Duration
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(manager *session.Manager, opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Sessions:  manager,
		Cookies:   newCookieStore(opts.HashKey, opts.BlockKey, opts.Secure, opts.MaxAge),
		Templates: templates,
		Pending:   &viewmodel.Pending{},
		Policy:    guard.DefaultPolicy,
	}

	static, err := webembed.StaticFS()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("GET /forgot-password", s.ForgotPasswordPage)
	mux.HandleFunc("POST /forgot-password", s.ForgotPasswordSubmit)
	mux.HandleFunc("GET /reset-password", s.ResetPasswordPage)
	mux.HandleFunc("POST /reset-password", s.ResetPasswordSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Protected routes; the guard below redirects when there is no session.
	mux.HandleFunc("GET /{$}", s.Dashboard)
	mux.HandleFunc("GET /new", s.NewItemPage)
	mux.HandleFunc("POST /new", s.NewItemSubmit)
	mux.HandleFunc("GET /edit/{id}", s.EditItemPage)
	mux.HandleFunc("POST /edit/{id}", s.EditItemSubmit)
	mux.HandleFunc("GET /items/{id}/delete", s.DeleteItemPage)
	mux.HandleFunc("POST /items/{id}/delete", s.DeleteItemSubmit)
	mux.HandleFunc("GET /user/edit/{id}", s.ProfilePage)
	mux.HandleFunc("POST /user/edit/{id}", s.ProfileSubmit)
	mux.HandleFunc("POST /user/delete/{id}", s.ProfileDelete)

	return s.Policy.Middleware(s.resolveSession)(mux), nil
}
