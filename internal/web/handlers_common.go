package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/JonMunkholm/vmapp/internal/web/templates"
)

// SavedMessage is the note shown after a successful write.
const SavedMessage = "Salvo com sucesso."

// maxJSONBody bounds form submissions.
const maxJSONBody = 1 << 20

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Encoding errors are only logged since the headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// decodeJSON reads a JSON body into dst. Malformed bodies become a
// validation error so they map to 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return core.ValidationError{Field: "body", Message: fmt.Sprintf("Requisição inválida: %v", err)}
	}
	return nil
}

// respondSaved answers a successful write: the saved message fragment for
// HTMX, otherwise body as JSON.
func respondSaved(w http.ResponseWriter, r *http.Request, status int, body any) {
	if isHTMX(r) && !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.Message(SavedMessage).Render(r.Context(), w)
		return
	}
	writeJSONStatus(w, status, body)
}

// listResponse wraps list payloads with their count.
type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

// handleHealth reports liveness and the import queue state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"imports": s.service.Limiter().Status(),
	})
}
