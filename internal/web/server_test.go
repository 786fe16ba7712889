package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/vmapp/internal/config"
	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/JonMunkholm/vmapp/internal/metrics"
	"github.com/JonMunkholm/vmapp/internal/store/storetest"
	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
// Fixtures
// ============================================================================

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 1,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *storetest.Memory) {
	t.Helper()
	mem := storetest.NewMemory()
	m := metrics.New(prometheus.NewRegistry())
	svc := core.NewService(mem, cfg.Import).WithObserver(m)
	return NewServer(svc, cfg, m), mem
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func validPersonnel() map[string]any {
	return map[string]any{
		"matricula":     "0042",
		"nome":          "Ana Souza",
		"cpf":           "123.456.789-01",
		"sexo":          "F",
		"profissao":     "Vigilante",
		"posto_nome":    "Recepcao",
		"nr_posto":      3,
		"lotacao":       "Centro",
		"data_admissao": "2023-01-02",
	}
}

// ============================================================================
// Health and metrics
// ============================================================================

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"max_concurrent":1`) {
		t.Errorf("health body missing limiter status: %s", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("scrape missing request counter")
	}
}

// ============================================================================
// Import
// ============================================================================

func TestImportCSV(t *testing.T) {
	s, mem := newTestServer(t, testConfig())

	csv := "posto_nome;nro_posto;contrato;ano;lotacao\n" +
		"Recepcao;3;2;2023;Centro\n" +
		";4;2;2023;Centro\n"
	rec := do(t, s, uploadRequest(t, "postos.csv", csv))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode[importResponse](t, rec)
	if got.Accepted != 1 || got.Rejected != 1 {
		t.Errorf("accepted/rejected = %d/%d, want 1/1", got.Accepted, got.Rejected)
	}
	if got.Summary != "Importação concluída. OK: 1 | Falhas: 1" {
		t.Errorf("summary = %q", got.Summary)
	}

	posts := mem.Posts()
	if len(posts) != 1 || posts[0].Identifier != "RECEPCAO-3-1-2-2023" {
		t.Errorf("stored posts = %+v", posts)
	}

	recent := decode[listResponse[core.ImportResult]](t,
		do(t, s, httptest.NewRequest(http.MethodGet, "/api/import/recent", nil)))
	if recent.Count != 1 || recent.Items[0].FileName != "postos.csv" {
		t.Errorf("recent imports = %+v", recent)
	}
}

func TestImportHTMXFragment(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	req := uploadRequest(t, "postos.csv", "posto_nome;nro_posto;contrato;ano\nRecepcao;3;2;2023\n")
	req.Header.Set("HX-Request", "true")
	rec := do(t, s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "OK: 1 | Falhas: 0") {
		t.Errorf("fragment = %s", rec.Body.String())
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		status   int
		code     string
	}{
		{"header only", "postos.csv", "posto_nome;nro_posto\n", http.StatusUnprocessableEntity, "FILE005"},
		{"broken workbook", "postos.xlsx", "not a zip", http.StatusUnprocessableEntity, "FILE002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mem := newTestServer(t, testConfig())
			rec := do(t, s, uploadRequest(t, tt.filename, tt.content))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Code, tt.code)
			}
			if len(mem.Posts()) != 0 {
				t.Error("no post should be stored")
			}
		})
	}
}

func TestImportWithoutFile(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")

	rec := do(t, s, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImportTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 64
	s, _ := newTestServer(t, cfg)

	rec := do(t, s, uploadRequest(t, "postos.csv", strings.Repeat("a;b\n", 100)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

// ============================================================================
// Templates
// ============================================================================

func TestDownloadTemplate(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/templates/postos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "template_postos.csv") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.HasPrefix(rec.Body.String(), "posto_nome;nro_posto;") {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/templates/postos?format=xlsx", nil))
	if rec.Header().Get("Content-Type") != xlsxContentType {
		t.Errorf("xlsx content type = %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("xlsx body is not a zip archive")
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/templates/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown kind status = %d, want 404", rec.Code)
	}
}

func TestListTemplates(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	got := decode[listResponse[templateInfo]](t,
		do(t, s, httptest.NewRequest(http.MethodGet, "/api/templates", nil)))
	if got.Count != 3 {
		t.Errorf("count = %d, want 3", got.Count)
	}
}

// ============================================================================
// Personnel
// ============================================================================

func TestPersonnelLifecycle(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s, jsonRequest(t, http.MethodPost, "/api/personnel", validPersonnel()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decode[personnelResponse](t, rec)
	if created.PostRef != "recepcao-3-1-2-2023" {
		t.Errorf("post ref = %q", created.PostRef)
	}
	if created.CTPS != "1234567" || created.CTPSSeries != "8901" {
		t.Errorf("ctps = %q/%q", created.CTPS, created.CTPSSeries)
	}

	list := decode[listResponse[core.Personnel]](t,
		do(t, s, httptest.NewRequest(http.MethodGet, "/api/personnel", nil)))
	if list.Count != 1 {
		t.Fatalf("list count = %d, want 1", list.Count)
	}
	id := list.Items[0].ID

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/personnel/by-matricula/0042", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("by-matricula status = %d", rec.Code)
	}
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/personnel/by-cpf/12345678901", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("by-cpf status = %d", rec.Code)
	}

	update := validPersonnel()
	update["nome"] = "Ana S. Lima"
	rec = do(t, s, jsonRequest(t, http.MethodPut, "/api/personnel/"+id, update))
	if rec.Code != http.StatusOK {
		t.Errorf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/personnel/"+id, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}

	list = decode[listResponse[core.Personnel]](t,
		do(t, s, httptest.NewRequest(http.MethodGet, "/api/personnel", nil)))
	if list.Count != 0 {
		t.Errorf("deactivated personnel still listed: %+v", list.Items)
	}
}

func TestCreatePersonnelValidation(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	in := validPersonnel()
	in["matricula"] = "42"
	rec := do(t, s, jsonRequest(t, http.MethodPost, "/api/personnel", in))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	got := decode[ErrorResponse](t, rec)
	if got.Field != "matricula" || got.Message != "Matrícula deve ter 4 caracteres." {
		t.Errorf("error = %+v", got)
	}
}

func TestPersonnelNotFound(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"bad id", httptest.NewRequest(http.MethodDelete, "/api/personnel/abc", nil), http.StatusBadRequest},
		{"unknown id", httptest.NewRequest(http.MethodDelete, "/api/personnel/3f2b8c1e-6d4a-4b7e-9f00-1a2b3c4d5e6f", nil), http.StatusNotFound},
		{"unknown matricula", httptest.NewRequest(http.MethodGet, "/api/personnel/by-matricula/9999", nil), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, tt.req); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestPersonnelPostRefPreview(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	got := decode[map[string]string](t, do(t, s,
		httptest.NewRequest(http.MethodGet, "/api/personnel/post-ref?posto_nome=Portaria+Sul&nr_posto=2", nil)))
	if got["id_posto_ref"] != "portaria-sul-2-1-2-2023" {
		t.Errorf("id_posto_ref = %q", got["id_posto_ref"])
	}
}

// ============================================================================
// Posts
// ============================================================================

func TestPostsSaveListVacate(t *testing.T) {
	s, mem := newTestServer(t, testConfig())

	rec := do(t, s, jsonRequest(t, http.MethodPost, "/api/posts", map[string]any{
		"posto_nome": "Recepcao",
		"nro_posto":  3,
		"contrato":   "2",
		"ano":        2023,
		"lotacao":    "Centro",
		"status":     "preenchido",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]string](t, rec); got["id_posto"] != "RECEPCAO-3-1-2-2023" {
		t.Errorf("id_posto = %q", got["id_posto"])
	}

	dash := decode[core.Dashboard](t, do(t, s, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)))
	if dash.FilledPosts != 1 {
		t.Errorf("filled posts = %d, want 1", dash.FilledPosts)
	}

	id := mem.Posts()[0].ID
	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/posts/"+id, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("vacate status = %d", rec.Code)
	}
	if got := mem.Posts()[0].Status; got != core.StatusVacant {
		t.Errorf("status = %q, want %q", got, core.StatusVacant)
	}

	lot := decode[listResponse[string]](t, do(t, s, httptest.NewRequest(http.MethodGet, "/api/lotacoes", nil)))
	if lot.Count != 1 || lot.Items[0] != "Centro" {
		t.Errorf("lotacoes = %+v", lot)
	}
}

func TestSavePostInvalidIdentifier(t *testing.T) {
	s, mem := newTestServer(t, testConfig())
	rec := do(t, s, jsonRequest(t, http.MethodPost, "/api/posts", map[string]any{"posto_nome": "Recepcao"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(mem.Posts()) != 0 {
		t.Error("invalid post reached the store")
	}
}

func TestPostIdentifierPreview(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	tests := []struct {
		query string
		want  string
	}{
		{"posto_nome=Portaria+Sul&nro_posto=2&contrato=2&ano=2023", "PORTARIA-SUL-2-1-2-2023"},
		{"posto_nome=Portaria&nro_posto=2&sequencial=3&contrato=7&ano=2024", "PORTARIA-2-3-7-2024"},
		{"posto_nome=Portaria&nro_posto=x&contrato=2&ano=2023", ""},
	}
	for _, tt := range tests {
		got := decode[map[string]string](t, do(t, s,
			httptest.NewRequest(http.MethodGet, "/api/posts/identifier?"+tt.query, nil)))
		if got["id_posto"] != tt.want {
			t.Errorf("%s: id_posto = %q, want %q", tt.query, got["id_posto"], tt.want)
		}
	}
}

// ============================================================================
// Occurrences and reports
// ============================================================================

func TestOccurrencesAndReport(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	if rec := do(t, s, jsonRequest(t, http.MethodPost, "/api/personnel", validPersonnel())); rec.Code != http.StatusCreated {
		t.Fatalf("create personnel status = %d", rec.Code)
	}

	rec := do(t, s, jsonRequest(t, http.MethodPost, "/api/occurrences", map[string]any{
		"matricula":         "0042",
		"posto_id":          "RECEPCAO-3-1-2-2023",
		"tipo_substituicao": "Tipo 1",
		"data_inicio":       "2024-05-01",
		"data_fim":          "2024-05-10",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create occurrence status = %d, body = %s", rec.Code, rec.Body.String())
	}
	o := decode[core.Occurrence](t, rec)
	if o.TotalDays == nil || *o.TotalDays != 10 || o.Reason != core.DefaultReason {
		t.Errorf("occurrence = %+v", o)
	}

	list := decode[listResponse[core.OccurrenceView]](t,
		do(t, s, httptest.NewRequest(http.MethodGet, "/api/occurrences", nil)))
	if list.Count != 1 || list.Items[0].Name != "Ana Souza" {
		t.Errorf("occurrences = %+v", list.Items)
	}

	report := decode[listResponse[reportRowJSON]](t, do(t, s,
		httptest.NewRequest(http.MethodGet, "/api/reports?tipo=lotacao&lotacao=centro", nil)))
	if report.Count != 1 || report.Items[0].Period != "2024-05-01 → 2024-05-10" {
		t.Errorf("report = %+v", report.Items)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/reports?tipo=periodo&inicio=2024-06-01", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete period status = %d, want 400", rec.Code)
	}
}

func TestCreateOccurrenceUnknownMatricula(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, jsonRequest(t, http.MethodPost, "/api/occurrences", map[string]any{
		"matricula": "0042",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Message != "Matrícula não encontrada. Cadastre o colaborador antes." {
		t.Errorf("message = %q", got.Message)
	}
}

func TestTotalDaysPreview(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	tests := []struct {
		query string
		want  string
	}{
		{"inicio=2024-05-01&fim=2024-05-10", "10"},
		{"inicio=2024-05-10&fim=2024-05-01", ""},
		{"inicio=&fim=2024-05-01", ""},
	}
	for _, tt := range tests {
		got := decode[map[string]string](t, do(t, s,
			httptest.NewRequest(http.MethodGet, "/api/occurrences/total-days?"+tt.query, nil)))
		if got["total_dias"] != tt.want {
			t.Errorf("%s: total_dias = %q, want %q", tt.query, got["total_dias"], tt.want)
		}
	}
}

// ============================================================================
// Dashboard
// ============================================================================

func TestDashboardAlerts(t *testing.T) {
	s, mem := newTestServer(t, testConfig())
	one, five := 1, 5
	mem.SetAlerts([]core.AbsenceAlert{
		{PostID: "A", DaysToEnd: &one},
		{PostID: "B", DaysToEnd: &five},
	})

	d := decode[core.Dashboard](t, do(t, s, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)))
	if len(d.Alerts) != 2 || d.Alerts[0].Badge != core.BadgeDanger || d.Alerts[1].Badge != core.BadgeOK {
		t.Errorf("alerts = %+v", d.Alerts)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	rec := do(t, s, req)
	if !strings.Contains(rec.Body.String(), `badge danger`) {
		t.Errorf("fragment = %s", rec.Body.String())
	}
}

func TestStoreFailureIsServerError(t *testing.T) {
	s, mem := newTestServer(t, testConfig())
	mem.Err = errConnRefused

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Code != "DB004" {
		t.Errorf("code = %s, want DB004", got.Code)
	}
}

func TestStoreFailureHTMX(t *testing.T) {
	s, mem := newTestServer(t, testConfig())
	mem.Err = errConnRefused

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("HX-Request", "true")
	rec := do(t, s, req)
	if !strings.Contains(rec.Body.String(), "Código: DB004") {
		t.Errorf("fragment = %s", rec.Body.String())
	}
}

// ============================================================================
// Access control
// ============================================================================

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s, _ := newTestServer(t, cfg)

	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/posts", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Errorf("with key status = %d, want 200", rec.Code)
	}

	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz should stay public, status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s, _ := newTestServer(t, cfg)
	defer s.Shutdown(t.Context())

	var last int
	for i := 0; i < 3; i++ {
		last = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	for i := 0; i < 2; i++ {
		if !rl.allow("198.51.100.1") {
			t.Fatalf("request %d of first client denied", i+1)
		}
	}
	if rl.allow("198.51.100.1") {
		t.Error("first client allowed past its burst")
	}
	if !rl.allow("198.51.100.2") {
		t.Error("second client throttled by first client's usage")
	}

	// Calling stop twice must not panic.
	rl.stop()
}
