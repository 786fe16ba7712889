package core

import "strings"

// Field is a logical post field targeted by the import.
type Field string

const (
	FieldPostName     Field = "posto_nome"
	FieldPostNumber   Field = "nro_posto"
	FieldSequence     Field = "sequencial"
	FieldContract     Field = "contrato"
	FieldYear         Field = "ano"
	FieldShift        Field = "turno"
	FieldLotacaoMacro Field = "lotacao_macro"
	FieldLotacao      Field = "lotacao"
	FieldDescription  Field = "descritivo_lotacao"
	FieldCity         Field = "cidade"
	FieldStatus       Field = "status"
)

// AliasTable lists, per logical field, the header spellings accepted in an
// uploaded file. Order matters: the first alias with a non-empty value wins.
type AliasTable map[Field][]string

// DefaultPostAliases returns the header spellings accepted for post imports,
// including the annotated headers of the postos template.
func DefaultPostAliases() AliasTable {
	return AliasTable{
		FieldPostName:     {"posto_nome", "Posto", "posto"},
		FieldPostNumber:   {"nro_posto", "Nº Posto", "nro", "numero"},
		FieldSequence:     {"sequencial", "Sequencial"},
		FieldContract:     {"contrato", "Contrato"},
		FieldYear:         {"ano", "Ano"},
		FieldShift:        {"turno", "Turno"},
		FieldLotacaoMacro: {"lotacao_macro", "Lotação Macro", "macro", "lotacao_macro(Tribunal/Comarca)"},
		FieldLotacao:      {"lotacao", "Lotação"},
		FieldDescription:  {"descritivo_lotacao", "Descritivo"},
		FieldCity:         {"cidade", "Cidade"},
		FieldStatus:       {"status", "Status", "status(VAGO/PREENCHIDO)"},
	}
}

// Lookup returns the first non-empty trimmed value among the aliases of f,
// or "" when none is present.
func (t AliasTable) Lookup(row Row, f Field) string {
	for _, key := range t[f] {
		if v := strings.TrimSpace(row[key]); v != "" {
			return v
		}
	}
	return ""
}

// With returns a copy of t with extra aliases appended to f.
// The receiver is not modified.
func (t AliasTable) With(f Field, aliases ...string) AliasTable {
	out := make(AliasTable, len(t))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	out[f] = append(out[f], aliases...)
	return out
}
