package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/guard"
	"github.com/erazemk/materiais/internal/model"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if guard.IsAuthenticated(currentSession(r)) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	success, failure := s.takeFlashes(w, r)
	s.Templates.Render(w, "login.html", &struct {
		PageData
		Email string
	}{
		PageData: PageData{Title: "Login", Success: success, Error: failure},
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	sess, err := s.Sessions.Login(r.Context(), email, password)
	if err != nil {
		msg := "Erro ao fazer login"
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			msg = "Informe email e senha."
		} else if !errors.Is(err, model.ErrAuth) {
			slog.Error("login failed", "error", err)
		}
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", &struct {
			PageData
			Email string
		}{
			PageData: PageData{Title: "Login", Error: apiclient.Message(err, msg)},
			Email:    email,
		})
		return
	}

	s.setSessionID(w, r, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type registerPage struct {
	PageData
	Name  string
	Email string
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &registerPage{PageData: PageData{Title: "Cadastro"}})
}

// RegisterSubmit handles POST /register. A new account is not logged in.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")

	if password != r.FormValue("confirm") {
		s.Templates.RenderStatus(w, http.StatusUnprocessableEntity, "register.html", &registerPage{
			PageData: PageData{Title: "Cadastro", Error: "As senhas não coincidem.", Invalid: []string{"password"}},
			Name:     name,
			Email:    email,
		})
		return
	}

	if _, err := s.Sessions.Register(r.Context(), name, email, password); err != nil {
		page := &registerPage{PageData: PageData{Title: "Cadastro"}, Name: name, Email: email}
		page.Error, page.Invalid = formError(err, "Erro ao cadastrar")
		s.Templates.RenderStatus(w, statusFor(err), "register.html", page)
		return
	}

	s.flash(w, r, flashSuccess, "Cadastro realizado. Faça login.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ForgotPasswordPage handles GET /forgot-password.
func (s *Server) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "forgot_password.html", &PageData{Title: "Recuperar senha"})
}

// ForgotPasswordSubmit handles POST /forgot-password.
func (s *Server) ForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.RequestPasswordReset(r.Context(), r.FormValue("email")); err != nil {
		page := &PageData{Title: "Recuperar senha"}
		page.Error, page.Invalid = formError(err, "Erro ao solicitar redefinição de senha")
		s.Templates.RenderStatus(w, statusFor(err), "forgot_password.html", page)
		return
	}
	s.Templates.Render(w, "forgot_password.html", &PageData{
		Title:   "Recuperar senha",
		Success: "Se o email estiver cadastrado, você receberá um link para redefinir a senha.",
	})
}

type resetPage struct {
	PageData
	Token string
}

// ResetPasswordPage handles GET /reset-password?token=...
func (s *Server) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "reset_password.html", &resetPage{
		PageData: PageData{Title: "Redefinir senha"},
		Token:    r.URL.Query().Get("token"),
	})
}

// ResetPasswordSubmit handles POST /reset-password.
func (s *Server) ResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	password := r.FormValue("password")

	page := &resetPage{PageData: PageData{Title: "Redefinir senha"}, Token: token}
	if password != r.FormValue("confirm") {
		page.Error, page.Invalid = "As senhas não coincidem.", []string{"password"}
		s.Templates.RenderStatus(w, http.StatusUnprocessableEntity, "reset_password.html", page)
		return
	}
	if err := s.Sessions.ConfirmPasswordReset(r.Context(), token, password); err != nil {
		page.Error, page.Invalid = formError(err, "Erro ao redefinir senha")
		s.Templates.RenderStatus(w, statusFor(err), "reset_password.html", page)
		return
	}

	s.flash(w, r, flashSuccess, "Senha redefinida. Faça login.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	sid, _ := s.cookie(r).Values[sessionIDKey].(string)
	if err := s.Sessions.Logout(r.Context(), sid); err != nil {
		slog.Error("failed to delete session", "error", err)
	}
	s.setSessionID(w, r, "")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
