package core

import (
	"reflect"
	"testing"
)

func TestCSVTemplate(t *testing.T) {
	got := CSVTemplate([]string{"a", "b", "c"})
	if want := "a;b;c\n;;\n"; got != want {
		t.Errorf("CSVTemplate() = %q, want %q", got, want)
	}
}

func TestCSVTemplate_RoundTrip(t *testing.T) {
	for _, kind := range TemplateKinds() {
		t.Run(string(kind), func(t *testing.T) {
			headers, ok := TemplateHeaders(kind)
			if !ok {
				t.Fatalf("TemplateHeaders(%q) missing", kind)
			}
			if got := ParseTemplateHeader(CSVTemplate(headers)); !reflect.DeepEqual(got, headers) {
				t.Errorf("round trip = %v, want %v", got, headers)
			}
		})
	}
}

func TestTemplateHeaders_ReturnsCopy(t *testing.T) {
	h, _ := TemplateHeaders(TemplatePosts)
	h[0] = "changed"

	again, _ := TemplateHeaders(TemplatePosts)
	if again[0] != "posto_nome" {
		t.Errorf("registered headers were modified: %v", again)
	}

	if _, ok := TemplateHeaders("desconhecido"); ok {
		t.Error("unknown kind should not resolve")
	}
}

func TestPostsTemplate_ImportsWithDefaultAliases(t *testing.T) {
	headers, _ := TemplateHeaders(TemplatePosts)
	row := make(Row, len(headers))
	for _, h := range headers {
		row[h] = ""
	}
	row["posto_nome"] = "Anexo"
	row["nro_posto"] = "2"
	row["lotacao_macro(Tribunal/Comarca)"] = "Tribunal"
	row["status(VAGO/PREENCHIDO)"] = "PREENCHIDO"

	in, err := PostFromRow(row, DefaultPostAliases())
	if err != nil {
		t.Fatalf("PostFromRow() error = %v", err)
	}
	if in.LotacaoMacro != "Tribunal" || in.Status != StatusFilled {
		t.Errorf("annotated headers not mapped: %+v", in)
	}
}

func TestWorkbookTemplate(t *testing.T) {
	headers, _ := TemplateHeaders(TemplateOccurrences)

	data, err := WorkbookTemplate(headers)
	if err != nil {
		t.Fatalf("WorkbookTemplate() error = %v", err)
	}

	// A header-only workbook decodes to zero rows but must be readable.
	rows, err := ParseWorkbook(data)
	if err != nil {
		t.Fatalf("ParseWorkbook() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

func TestTemplateFileName(t *testing.T) {
	if got := TemplateFileName(TemplatePersonnel, "csv"); got != "template_colaboradores.csv" {
		t.Errorf("TemplateFileName() = %q", got)
	}
}
