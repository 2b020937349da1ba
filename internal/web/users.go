package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/materiais/internal/model"
	"github.com/erazemk/materiais/internal/session"
	"github.com/erazemk/materiais/internal/viewmodel"
)

type userFormPage struct {
	PageData
	Profile model.User
}

func (s *Server) profile(sess *session.Session) *viewmodel.Profile {
	return viewmodel.NewProfile(s.Sessions, sess, s.Pending)
}

// profileFailed handles errors common to the profile routes. It reports
// whether the response was written.
func (s *Server) profileFailed(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) bool {
	if s.sessionExpired(w, r, sess, err) {
		return true
	}
	if errors.Is(err, model.ErrForbidden) {
		s.flash(w, r, flashError, "Você não tem permissão para editar outros usuários.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return true
	}
	return false
}

// ProfilePage handles GET /user/edit/{id}.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	u, err := s.profile(sess).Profile(r.Context(), model.ID(r.PathValue("id")))
	if err != nil {
		if s.profileFailed(w, r, sess, err) {
			return
		}
		slog.Error("failed to load user", "error", err)
		s.flash(w, r, flashError, "Erro ao carregar dados do usuário")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	success, failure := s.takeFlashes(w, r)
	s.Templates.Render(w, "user_form.html", &userFormPage{
		PageData: PageData{Title: "Editar perfil", User: &sess.User, Success: success, Error: failure},
		Profile:  *u,
	})
}

// ProfileSubmit handles POST /user/edit/{id}. A blank password keeps the
// current one.
func (s *Server) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id := model.ID(r.PathValue("id"))
	name := r.FormValue("name")
	email := r.FormValue("email")

	_, err := s.profile(sess).UpdateProfile(r.Context(), id, name, email, r.FormValue("password"))
	if err != nil {
		if s.profileFailed(w, r, sess, err) {
			return
		}
		page := &userFormPage{
			PageData: PageData{Title: "Editar perfil", User: &sess.User},
			Profile:  model.User{ID: id, Name: name, Email: email},
		}
		if !errors.Is(err, model.ErrValidation) {
			slog.Error("failed to update user", "error", err)
		}
		page.Error, page.Invalid = formError(err, "Erro ao atualizar usuário")
		s.Templates.RenderStatus(w, statusFor(err), "user_form.html", page)
		return
	}

	s.flash(w, r, flashSuccess, "Perfil atualizado com sucesso.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ProfileDelete handles POST /user/delete/{id}.
func (s *Server) ProfileDelete(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id := model.ID(r.PathValue("id"))

	err := s.profile(sess).DeleteAccount(r.Context(), id, r.FormValue("confirm") == "yes")
	if err != nil {
		if s.profileFailed(w, r, sess, err) {
			return
		}
		if errors.Is(err, viewmodel.ErrNotConfirmed) {
			s.flash(w, r, flashError, "Confirme a exclusão da conta.")
		} else {
			slog.Error("failed to delete user", "error", err)
			s.flash(w, r, flashError, "Erro ao excluir conta")
		}
		http.Redirect(w, r, "/user/edit/"+id.String(), http.StatusSeeOther)
		return
	}

	c := s.cookie(r)
	delete(c.Values, sessionIDKey)
	c.AddFlash("Conta excluída.", flashSuccess)
	if err := c.Save(r, w); err != nil {
		slog.Error("failed to save cookie", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
