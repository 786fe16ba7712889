package web

import (
	"net/http"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/JonMunkholm/vmapp/internal/web/templates"
)

// handleDashboard returns the landing summary. HTMX requests get the alert
// table body, everyone else the JSON summary.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.Dashboard(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if isHTMX(r) && !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.AlertRows(d.Alerts).Render(r.Context(), w)
		return
	}
	writeJSON(w, d)
}

// reportRowJSON adds the rendered period to a report row.
type reportRowJSON struct {
	core.ReportRow
	Period string `json:"periodo"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.ReportFilter{
		Kind:      q.Get("tipo"),
		Matricula: q.Get("matricula"),
		Lotacao:   q.Get("lotacao"),
		Start:     q.Get("inicio"),
		End:       q.Get("fim"),
	}
	if filter.Kind == "" {
		filter.Kind = core.ReportByMatricula
	}

	rows, err := s.service.Report(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]reportRowJSON, len(rows))
	for i, row := range rows {
		out[i] = reportRowJSON{ReportRow: row, Period: row.Period()}
	}
	writeJSON(w, newList(out))
}
