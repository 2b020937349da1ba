package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/materiais/internal/model"
	"github.com/erazemk/materiais/internal/session"
	"github.com/erazemk/materiais/internal/viewmodel"
)

type itemFormPage struct {
	PageData
	Action string
	ItemID model.ID
	Fields model.ItemFields
}

// items returns a view-model bound to the session's token.
func (s *Server) items(sess *session.Session) *viewmodel.Items {
	return viewmodel.NewItems(s.Sessions.Client(sess), s.Pending, sess.ID)
}

func itemFields(r *http.Request) model.ItemFields {
	return model.ItemFields{
		Item:       r.FormValue("item"),
		Data:       r.FormValue("data"),
		Origem:     r.FormValue("origem"),
		Destino:    r.FormValue("destino"),
		Servidor:   r.FormValue("servidor"),
		Patrimonio: r.FormValue("patrimonio"),
	}
}

// NewItemPage handles GET /new.
func (s *Server) NewItemPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	s.Templates.Render(w, "item_form.html", &itemFormPage{
		PageData: PageData{Title: "Novo item", User: &sess.User},
		Action:   "/new",
		Fields:   model.NewItemFields(time.Now()),
	})
}

// NewItemSubmit handles POST /new.
func (s *Server) NewItemSubmit(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	fields := itemFields(r)

	if _, err := s.items(sess).Create(r.Context(), fields); err != nil {
		s.itemSaveFailed(w, r, sess, &itemFormPage{
			PageData: PageData{Title: "Novo item", User: &sess.User},
			Action:   "/new",
			Fields:   fields,
		}, err)
		return
	}

	s.flash(w, r, flashSuccess, "Item cadastrado com sucesso.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EditItemPage handles GET /edit/{id}.
func (s *Server) EditItemPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id := model.ID(r.PathValue("id"))

	item, err := s.items(sess).Get(r.Context(), id)
	if err != nil {
		s.itemLoadFailed(w, r, sess, err)
		return
	}

	fields := item.ItemFields
	fields.Data = model.DateOnly(fields.Data)
	s.Templates.Render(w, "item_form.html", &itemFormPage{
		PageData: PageData{Title: "Editar item", User: &sess.User},
		Action:   "/edit/" + id.String(),
		ItemID:   id,
		Fields:   fields,
	})
}

// EditItemSubmit handles POST /edit/{id}.
func (s *Server) EditItemSubmit(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id := model.ID(r.PathValue("id"))
	fields := itemFields(r)

	if _, err := s.items(sess).Update(r.Context(), id, fields); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.itemLoadFailed(w, r, sess, err)
			return
		}
		s.itemSaveFailed(w, r, sess, &itemFormPage{
			PageData: PageData{Title: "Editar item", User: &sess.User},
			Action:   "/edit/" + id.String(),
			ItemID:   id,
			Fields:   fields,
		}, err)
		return
	}

	s.flash(w, r, flashSuccess, "Item atualizado com sucesso.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type itemDeletePage struct {
	PageData
	Item *model.Item
}

// DeleteItemPage handles GET /items/{id}/delete, the confirmation step.
func (s *Server) DeleteItemPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	item, err := s.items(sess).Get(r.Context(), model.ID(r.PathValue("id")))
	if err != nil {
		s.itemLoadFailed(w, r, sess, err)
		return
	}
	s.Templates.Render(w, "item_delete.html", &itemDeletePage{
		PageData: PageData{Title: "Excluir item", User: &sess.User},
		Item:     item,
	})
}

// DeleteItemSubmit handles POST /items/{id}/delete.
func (s *Server) DeleteItemSubmit(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id := model.ID(r.PathValue("id"))

	err := s.items(sess).Delete(r.Context(), id, r.FormValue("confirm") == "yes")
	switch {
	case err == nil:
		s.flash(w, r, flashSuccess, "Item excluído com sucesso.")
	case errors.Is(err, viewmodel.ErrNotConfirmed):
		http.Redirect(w, r, "/items/"+id.String()+"/delete", http.StatusSeeOther)
		return
	case s.sessionExpired(w, r, sess, err):
		return
	case errors.Is(err, model.ErrNotFound):
		s.flash(w, r, flashError, "Item não encontrado.")
	default:
		slog.Error("failed to delete item", "id", id, "error", err)
		s.flash(w, r, flashError, "Erro ao excluir item")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// itemLoadFailed sends the browser back to the dashboard with a notice.
func (s *Server) itemLoadFailed(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if s.sessionExpired(w, r, sess, err) {
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		s.flash(w, r, flashError, "Item não encontrado.")
	} else {
		slog.Error("failed to load item", "error", err)
		s.flash(w, r, flashError, "Erro ao carregar item")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// itemSaveFailed re-renders the form with the submitted values.
func (s *Server) itemSaveFailed(w http.ResponseWriter, r *http.Request, sess *session.Session, page *itemFormPage, err error) {
	if s.sessionExpired(w, r, sess, err) {
		return
	}
	if errors.Is(err, model.ErrValidation) {
		page.Error, page.Invalid = formError(err, "Erro ao salvar item")
	} else {
		slog.Error("failed to save item", "error", err)
		page.Error = "Erro ao salvar item"
	}
	s.Templates.RenderStatus(w, statusFor(err), "item_form.html", page)
}
