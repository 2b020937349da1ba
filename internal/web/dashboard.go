package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/materiais/internal/model"
	"github.com/erazemk/materiais/internal/viewmodel"
)

type dashboardPage struct {
	PageData
	Items      []model.Item
	Activities []viewmodel.ActivityRow
}

// Dashboard handles GET /. Items and activities are shown together or not
// at all.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	success, failure := s.takeFlashes(w, r)
	page := &dashboardPage{
		PageData: PageData{Title: "Painel", User: &sess.User, Success: success, Error: failure},
	}

	snap, err := s.items(sess).Dashboard(r.Context())
	if err != nil {
		if s.sessionExpired(w, r, sess, err) {
			return
		}
		// The client went away.
		if r.Context().Err() != nil {
			return
		}
		slog.Error("failed to load dashboard", "error", err)
		page.Error = "Erro ao carregar dados"
		s.Templates.RenderStatus(w, http.StatusBadGateway, "dashboard.html", page)
		return
	}

	page.Items = snap.Items
	page.Activities = snap.Activities
	s.Templates.Render(w, "dashboard.html", page)
}
