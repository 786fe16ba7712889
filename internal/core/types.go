package core

import (
	"context"
	"time"
)

// Row is one ingested record: column header -> raw cell value.
// Both the delimited-text and the spreadsheet readers produce this shape.
type Row map[string]string

// PostKey holds the five fields that identify a post.
type PostKey struct {
	Name     string
	Number   int
	Sequence int
	Contract string
	Year     int
}

// PostInput is the field set sent to the data service when saving a post.
// Empty optional strings are stored as NULL.
type PostInput struct {
	Name         string `json:"posto_nome"`
	Number       int    `json:"nro_posto"`
	Sequence     int    `json:"sequencial"`
	Contract     string `json:"contrato"`
	Year         int    `json:"ano"`
	Shift        string `json:"turno"`
	LotacaoMacro string `json:"lotacao_macro"`
	Lotacao      string `json:"lotacao"`
	Description  string `json:"descritivo_lotacao"`
	City         string `json:"cidade"`
	Status       string `json:"status"`
}

// Key returns the identity fields of the input.
func (p PostInput) Key() PostKey {
	return PostKey{
		Name:     p.Name,
		Number:   p.Number,
		Sequence: p.Sequence,
		Contract: p.Contract,
		Year:     p.Year,
	}
}

// Post is a stored work post.
type Post struct {
	ID           string `json:"id" db:"id"`
	Identifier   string `json:"id_posto" db:"id_posto"`
	Name         string `json:"posto_nome" db:"posto_nome"`
	Number       int    `json:"nro_posto" db:"nro_posto"`
	Sequence     int    `json:"sequencial" db:"sequencial"`
	Contract     string `json:"contrato" db:"contrato"`
	Year         int    `json:"ano" db:"ano"`
	Shift        string `json:"turno" db:"turno"`
	LotacaoMacro string `json:"lotacao_macro" db:"lotacao_macro"`
	Lotacao      string `json:"lotacao" db:"lotacao"`
	Description  string `json:"descritivo_lotacao" db:"descritivo_lotacao"`
	City         string `json:"cidade" db:"cidade"`
	Status       string `json:"status" db:"status"`
}

// Personnel is a stored employee record.
type Personnel struct {
	ID            string `json:"id" db:"id"`
	Matricula     string `json:"matricula" db:"matricula"`
	Name          string `json:"nome" db:"nome"`
	Sex           string `json:"sexo,omitempty" db:"sexo"`
	CPF           string `json:"cpf,omitempty" db:"cpf"`
	Profession    string `json:"profissao" db:"profissao"`
	PostName      string `json:"posto_nome" db:"posto_nome"`
	PostNumber    int    `json:"nr_posto" db:"nr_posto"`
	PostRef       string `json:"id_posto_ref" db:"id_posto_ref"`
	Lotacao       string `json:"lotacao" db:"lotacao"`
	AdmissionDate string `json:"data_admissao,omitempty" db:"data_admissao"`
	Occupation    string `json:"ocupacao" db:"ocupacao"`
	Active        *bool  `json:"ativo,omitempty" db:"ativo"`
}

// PersonnelRecord is the field set written for a personnel create or update.
// The derived fields (PostRef, CTPS, CTPSSeries) are filled by the service.
type PersonnelRecord struct {
	Matricula     string
	Name          string
	Sex           string
	CPF           string
	Profession    string
	AdmissionDate time.Time
	CTPS          string
	CTPSSeries    string
	Occupation    string
	PostName      string
	PostNumber    int
	PostRef       string
	Lotacao       string
}

// Occurrence is a dated absence or substitution event.
type Occurrence struct {
	Number           int64  `json:"numero" db:"numero"`
	PersonnelID      string `json:"colaborador_id" db:"colaborador_id"`
	PostID           string `json:"posto_id" db:"posto_id"`
	Reason           string `json:"motivo" db:"motivo"`
	StartDate        string `json:"data_inicio" db:"data_inicio"`
	EndDate          string `json:"data_fim" db:"data_fim"`
	TotalDays        *int   `json:"total_dias" db:"total_dias"`
	SubstitutionType string `json:"tipo_substituicao" db:"tipo_substituicao"`
	Substitute       string `json:"substituto" db:"substituto"`
}

// OccurrenceQuery narrows an occurrence listing. Zero dates mean unbounded.
type OccurrenceQuery struct {
	Limit     int
	StartFrom time.Time
	StartTo   time.Time
}

// AbsenceAlert is an absence ending within the alert window.
type AbsenceAlert struct {
	PersonnelID string `json:"colaborador_id"`
	PostID      string `json:"posto_id"`
	Reason      string `json:"motivo"`
	EndDate     string `json:"data_fim"`
	DaysToEnd   *int   `json:"dias_para_termino"`
}

// PostUpserter is the keyed-upsert half of the data service. The natural key
// is the post identifier, so repeating a call with identical input is safe.
// It returns the stored identifier.
type PostUpserter interface {
	UpsertPost(ctx context.Context, in PostInput) (string, error)
}

// Store is the persistence/RPC collaborator used by the service.
// Satisfied by *store.Postgres and by the in-memory test store.
type Store interface {
	PostUpserter

	ListPosts(ctx context.Context, limit int) ([]Post, error)
	VacatePost(ctx context.Context, id string) error
	ListLotacoes(ctx context.Context) ([]string, error)

	InsertPersonnel(ctx context.Context, rec PersonnelRecord) error
	UpdatePersonnel(ctx context.Context, id string, rec PersonnelRecord) error
	DeactivatePersonnel(ctx context.Context, id string) error
	ListPersonnel(ctx context.Context, limit int) ([]Personnel, error)
	FindPersonnelByCPF(ctx context.Context, cpf string) ([]Personnel, error)
	FindPersonnelByMatricula(ctx context.Context, matricula string) ([]Personnel, error)
	PersonnelByIDs(ctx context.Context, ids []string) ([]Personnel, error)

	InsertOccurrence(ctx context.Context, o Occurrence) error
	ListOccurrences(ctx context.Context, q OccurrenceQuery) ([]Occurrence, error)

	CountActivePersonnel(ctx context.Context) (int64, error)
	CountFilledPosts(ctx context.Context) (int64, error)
	AbsenceAlerts(ctx context.Context) ([]AbsenceAlert, error)
}
