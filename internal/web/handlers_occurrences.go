package web

import (
	"net/http"

	"github.com/JonMunkholm/vmapp/internal/core"
)

func (s *Server) handleListOccurrences(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListOccurrences(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, newList(list))
}

func (s *Server) handleCreateOccurrence(w http.ResponseWriter, r *http.Request) {
	var in core.OccurrenceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	o, err := s.service.CreateOccurrence(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondSaved(w, r, http.StatusCreated, o)
}

// handleTotalDays previews the inclusive day count of a period. An invalid
// period answers "" rather than an error, as the form shows it inline.
func (s *Server) handleTotalDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, map[string]string{"total_dias": core.TotalDays(q.Get("inicio"), q.Get("fim"))})
}
