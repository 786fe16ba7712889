package web

import (
	"net/http"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListPosts(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, newList(list))
}

func (s *Server) handleSavePost(w http.ResponseWriter, r *http.Request) {
	var in core.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	id, err := s.service.SavePost(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondSaved(w, r, http.StatusOK, map[string]string{
		"message":  SavedMessage,
		"id_posto": id,
	})
}

// handleVacatePost marks a post VAGO. Posts are never removed.
func (s *Server) handleVacatePost(w http.ResponseWriter, r *http.Request) {
	if err := s.service.VacatePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePostIdentifier previews the identifier for the form fields.
// A blank sequence falls back to 1; other missing fields yield "".
func (s *Server) handlePostIdentifier(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := core.PostKeyFromStrings(
		q.Get("posto_nome"),
		q.Get("nro_posto"),
		q.Get("sequencial"),
		q.Get("contrato"),
		q.Get("ano"),
	)
	writeJSON(w, map[string]string{"id_posto": core.PostIdentifier(key)})
}
