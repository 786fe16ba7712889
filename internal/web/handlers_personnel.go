package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/go-chi/chi/v5"
)

// personnelResponse is returned after a create or update.
type personnelResponse struct {
	Message    string `json:"message"`
	Matricula  string `json:"matricula"`
	PostRef    string `json:"id_posto_ref"`
	CTPS       string `json:"ctps,omitempty"`
	CTPSSeries string `json:"serie_ctps,omitempty"`
}

func newPersonnelResponse(rec core.PersonnelRecord) personnelResponse {
	return personnelResponse{
		Message:    SavedMessage,
		Matricula:  rec.Matricula,
		PostRef:    rec.PostRef,
		CTPS:       rec.CTPS,
		CTPSSeries: rec.CTPSSeries,
	}
}

func (s *Server) handleListPersonnel(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListPersonnel(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, newList(list))
}

func (s *Server) handleCreatePersonnel(w http.ResponseWriter, r *http.Request) {
	var in core.PersonnelInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.service.CreatePersonnel(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondSaved(w, r, http.StatusCreated, newPersonnelResponse(rec))
}

func (s *Server) handleUpdatePersonnel(w http.ResponseWriter, r *http.Request) {
	var in core.PersonnelInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.service.UpdatePersonnel(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondSaved(w, r, http.StatusOK, newPersonnelResponse(rec))
}

func (s *Server) handleDeactivatePersonnel(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeactivatePersonnel(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFindPersonnelByCPF(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.FindPersonnelByCPF(r.Context(), chi.URLParam(r, "cpf"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleFindPersonnelByMatricula(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.FindPersonnelByMatricula(r.Context(), chi.URLParam(r, "matricula"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// handlePersonnelPostRef previews the post reference the form would store.
// An incomplete form yields an empty reference, not an error.
func (s *Server) handlePersonnelPostRef(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := ""
	if n, ok := core.ParseCount(q.Get("nr_posto")); ok {
		ref = core.PersonnelPostRef(strings.TrimSpace(q.Get("posto_nome")), n)
	}
	writeJSON(w, map[string]string{"id_posto_ref": ref})
}

func (s *Server) handleListLotacoes(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListLotacoes(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, newList(list))
}
