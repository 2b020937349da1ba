package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/model"
	"github.com/erazemk/materiais/internal/session"
)

// formError turns a failed submission into a notice and the list of fields
// to highlight. Backend messages are shown verbatim.
func formError(err error, fallback string) (string, []string) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		if len(verr.Fields) == 0 {
			return "Dados inválidos.", nil
		}
		labels := make([]string, len(verr.Fields))
		for i, f := range verr.Fields {
			labels[i] = fieldLabels[f]
			if labels[i] == "" {
				labels[i] = f
			}
		}
		if verr.Reason != "" {
			return "Campo inválido: " + strings.Join(labels, ", ") + ".", verr.Fields
		}
		return "Preencha os campos obrigatórios: " + strings.Join(labels, ", ") + ".", verr.Fields
	}
	return apiclient.Message(err, fallback), nil
}

// statusFor picks the response status of a re-rendered form.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// sessionExpired ends the session when the backend rejected its token and
// sends the browser to the login page. It reports whether it did so.
func (s *Server) sessionExpired(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) bool {
	if !s.Sessions.Check(r.Context(), sess, err) {
		return false
	}
	c := s.cookie(r)
	delete(c.Values, sessionIDKey)
	c.AddFlash("Sessão expirada. Faça login novamente.", flashError)
	if err := c.Save(r, w); err != nil {
		slog.Error("failed to save cookie", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}
