package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TemplateKind names a downloadable import template.
type TemplateKind string

const (
	TemplatePersonnel   TemplateKind = "colaboradores"
	TemplatePosts       TemplateKind = "postos"
	TemplateOccurrences TemplateKind = "ocorrencias"
)

var templateHeaders = map[TemplateKind][]string{
	TemplatePersonnel: {
		"matricula(4)", "nome", "cpf(11)", "sexo(M/F)", "profissao", "posto_nome",
		"nr_posto", "lotacao", "data_admissao(YYYY-MM-DD)", "ocupacao(TITULAR/VOLANTE)",
	},
	TemplatePosts: {
		"posto_nome", "nro_posto", "sequencial", "contrato", "ano", "turno",
		"lotacao_macro(Tribunal/Comarca)", "lotacao", "descritivo_lotacao", "cidade",
		"status(VAGO/PREENCHIDO)",
	},
	TemplateOccurrences: {
		"matricula(4)", "id_posto", "motivo", "data_inicio(YYYY-MM-DD)",
		"data_fim(YYYY-MM-DD)", "tipo_substituicao(Tipo 1/Tipo 2/Tipo 3)", "substituto",
	},
}

const templateSheet = "Sheet1"

// TemplateKinds returns the registered template kinds, sorted.
func TemplateKinds() []TemplateKind {
	kinds := make([]TemplateKind, 0, len(templateHeaders))
	for k := range templateHeaders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// TemplateHeaders returns a copy of the headers for kind.
func TemplateHeaders(kind TemplateKind) ([]string, bool) {
	h, ok := templateHeaders[kind]
	if !ok {
		return nil, false
	}
	return append([]string(nil), h...), true
}

// TemplateFileName returns the download name for kind, e.g. template_postos.csv.
func TemplateFileName(kind TemplateKind, ext string) string {
	return fmt.Sprintf("template_%s.%s", kind, ext)
}

// CSVTemplate renders a header line followed by one blank example line.
func CSVTemplate(headers []string) string {
	blank := make([]string, len(headers))
	return strings.Join(headers, Delimiter) + "\n" + strings.Join(blank, Delimiter) + "\n"
}

// ParseTemplateHeader returns the header names of a rendered template.
func ParseTemplateHeader(tpl string) []string {
	lines := splitLines(tpl)
	if len(lines) == 0 {
		return nil
	}
	return splitHeader(lines[0])
}

// WorkbookTemplate renders the headers as the first row of a single-sheet
// workbook and returns the encoded file.
func WorkbookTemplate(headers []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("template cell: %w", err)
		}
		if err := f.SetCellValue(templateSheet, cell, h); err != nil {
			return nil, fmt.Errorf("template cell %s: %w", cell, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
