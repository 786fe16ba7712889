package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/JonMunkholm/vmapp/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart form is kept in memory before
// spilling to disk.
const multipartMemory = 8 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// importResponse is the JSON answer of an import run.
type importResponse struct {
	core.ImportResult
	Summary string `json:"summary"`
}

// handleImport reads the uploaded "file" field and imports it as posts.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	if r.ContentLength > maxSize {
		s.respondError(w, r, &http.MaxBytesError{Limit: maxSize})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, err)
			return
		}
		s.respondError(w, r, core.ValidationError{Field: "file", Message: "Selecione um arquivo."})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ValidationError{Field: "file", Message: "Selecione um arquivo."})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	result, err := s.service.ImportPosts(requestContext(r), header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) && !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.ImportSummary(*result).Render(r.Context(), w)
		return
	}
	writeJSON(w, importResponse{ImportResult: *result, Summary: result.Summary()})
}

// handleRecentImports lists the latest import runs of this process.
func (s *Server) handleRecentImports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, newList(s.service.RecentImports()))
}

// handleImportStatus returns the current state of the import limiter.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Limiter().Status())
}

// templateInfo describes one downloadable template.
type templateInfo struct {
	Kind    core.TemplateKind `json:"kind"`
	Headers []string          `json:"headers"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	kinds := core.TemplateKinds()
	out := make([]templateInfo, 0, len(kinds))
	for _, k := range kinds {
		h, _ := core.TemplateHeaders(k)
		out = append(out, templateInfo{Kind: k, Headers: h})
	}
	writeJSON(w, newList(out))
}

// handleDownloadTemplate serves a blank import template, as semicolon CSV by
// default or as a workbook with ?format=xlsx.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	kind := core.TemplateKind(chi.URLParam(r, "kind"))
	headers, ok := core.TemplateHeaders(kind)
	if !ok {
		s.respondError(w, r, core.ErrNotFound)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		data, err := core.WorkbookTemplate(headers)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.TemplateFileName(kind, "xlsx")))
		_, _ = w.Write(data)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.TemplateFileName(kind, "csv")))
	_, _ = io.WriteString(w, core.CSVTemplate(headers))
}
