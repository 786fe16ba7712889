package core

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Personnel occupations.
const (
	OccupationHolder   = "TITULAR"
	OccupationFloating = "VOLANTE"
)

// PersonnelInput is the personnel form. Field order is the order in which
// problems are reported.
type PersonnelInput struct {
	Matricula     string `json:"matricula" validate:"matricula"`
	Name          string `json:"nome" validate:"required"`
	CPF           string `json:"cpf" validate:"cpf"`
	Sex           string `json:"sexo" validate:"oneof=M F"`
	Profession    string `json:"profissao" validate:"required"`
	PostName      string `json:"posto_nome" validate:"required"`
	PostNumber    int    `json:"nr_posto" validate:"gte=1"`
	Lotacao       string `json:"lotacao" validate:"required"`
	AdmissionDate string `json:"data_admissao" validate:"required,isodate"`
	Occupation    string `json:"ocupacao" validate:"oneof=TITULAR VOLANTE"`
}

var personnelMessages = map[string]string{
	"matricula":     "Matrícula deve ter 4 caracteres.",
	"nome":          "Informe o nome.",
	"cpf":           "CPF inválido.",
	"sexo":          "Sexo deve ser M ou F.",
	"profissao":     "Selecione a profissão.",
	"posto_nome":    "Selecione o posto (nome).",
	"nr_posto":      "Informe o Nr Posto.",
	"lotacao":       "Selecione a lotação.",
	"data_admissao": "Informe a admissão.",
	"ocupacao":      "Ocupação deve ser TITULAR ou VOLANTE.",
}

// NormalizeCPF keeps only the digits of a CPF.
func NormalizeCPF(cpf string) string {
	return OnlyDigits(cpf)
}

// CTPSFromCPF derives the work-card number (first 7 digits) and series
// (last 4 digits) from an 11-digit CPF. Any other length yields two "".
func CTPSFromCPF(cpf string) (number, series string) {
	digits := NormalizeCPF(cpf)
	if len(digits) != 11 {
		return "", ""
	}
	return digits[:7], digits[7:]
}

func (in *PersonnelInput) normalize() {
	in.Matricula = strings.TrimSpace(in.Matricula)
	in.Name = strings.TrimSpace(in.Name)
	in.CPF = NormalizeCPF(in.CPF)
	in.Sex = strings.ToUpper(strings.TrimSpace(in.Sex))
	in.Profession = strings.TrimSpace(in.Profession)
	in.PostName = strings.TrimSpace(in.PostName)
	in.Lotacao = strings.TrimSpace(in.Lotacao)
	in.AdmissionDate = strings.TrimSpace(in.AdmissionDate)
	in.Occupation = strings.ToUpper(strings.TrimSpace(in.Occupation))

	if in.Sex == "" {
		in.Sex = "M"
	}
	if in.Occupation == "" {
		in.Occupation = OccupationHolder
	}
}

// record validates the input and builds the stored field set.
// requireCPF is false for updates, which never change the CPF.
func (in PersonnelInput) record(requireCPF bool) (PersonnelRecord, error) {
	in.normalize()

	var err error
	if requireCPF {
		err = checkStruct(&in, personnelMessages)
	} else {
		err = checkStruct(&in, personnelMessages, "CPF")
	}
	if err != nil {
		return PersonnelRecord{}, err
	}

	ref := PersonnelPostRef(in.PostName, in.PostNumber)
	if ref == "" {
		return PersonnelRecord{}, ValidationError{Field: "id_posto_ref", Message: "ID.Posto não foi gerado."}
	}

	admission, _ := ParseDate(in.AdmissionDate)
	rec := PersonnelRecord{
		Matricula:     in.Matricula,
		Name:          in.Name,
		Sex:           in.Sex,
		Profession:    in.Profession,
		AdmissionDate: admission,
		Occupation:    in.Occupation,
		PostName:      in.PostName,
		PostNumber:    in.PostNumber,
		PostRef:       ref,
		Lotacao:       in.Lotacao,
	}
	if requireCPF {
		rec.CPF = in.CPF
		rec.CTPS, rec.CTPSSeries = CTPSFromCPF(in.CPF)
	}
	return rec, nil
}

// CreatePersonnel validates the form and inserts a new personnel record
// through the insert_colaborador procedure.
func (s *Service) CreatePersonnel(ctx context.Context, in PersonnelInput) (PersonnelRecord, error) {
	rec, err := in.record(true)
	if err != nil {
		return PersonnelRecord{}, err
	}
	if err := s.store.InsertPersonnel(ctx, rec); err != nil {
		return PersonnelRecord{}, fmt.Errorf("insert personnel: %w", err)
	}
	return rec, nil
}

// UpdatePersonnel validates the form and overwrites record id.
// The CPF and the derived work-card fields are left untouched.
func (s *Service) UpdatePersonnel(ctx context.Context, id string, in PersonnelInput) (PersonnelRecord, error) {
	if err := checkID(id); err != nil {
		return PersonnelRecord{}, err
	}
	rec, err := in.record(false)
	if err != nil {
		return PersonnelRecord{}, err
	}
	if err := s.store.UpdatePersonnel(ctx, id, rec); err != nil {
		return PersonnelRecord{}, fmt.Errorf("update personnel %s: %w", id, err)
	}
	return rec, nil
}

// DeactivatePersonnel soft-deletes record id.
func (s *Service) DeactivatePersonnel(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.store.DeactivatePersonnel(ctx, id); err != nil {
		return fmt.Errorf("deactivate personnel %s: %w", id, err)
	}
	return nil
}

// ListPersonnel returns active personnel ordered by name.
func (s *Service) ListPersonnel(ctx context.Context) ([]Personnel, error) {
	list, err := s.store.ListPersonnel(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list personnel: %w", err)
	}
	return list, nil
}

// FindPersonnelByCPF returns the first personnel record with the given CPF.
func (s *Service) FindPersonnelByCPF(ctx context.Context, cpf string) (*Personnel, error) {
	cpf = NormalizeCPF(cpf)
	if len(cpf) != 11 {
		return nil, ValidationError{Field: "cpf", Value: cpf, Message: personnelMessages["cpf"]}
	}

	found, err := s.store.FindPersonnelByCPF(ctx, cpf)
	if err != nil {
		return nil, fmt.Errorf("find personnel by cpf: %w", err)
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

// FindPersonnelByMatricula returns the first personnel record with the given
// registration number.
func (s *Service) FindPersonnelByMatricula(ctx context.Context, matricula string) (*Personnel, error) {
	matricula = strings.TrimSpace(matricula)
	if len([]rune(matricula)) != 4 {
		return nil, ValidationError{Field: "matricula", Value: matricula, Message: personnelMessages["matricula"]}
	}

	found, err := s.store.FindPersonnelByMatricula(ctx, matricula)
	if err != nil {
		return nil, fmt.Errorf("find personnel by matricula: %w", err)
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

// ListLotacoes returns the distinct lotação values found on posts,
// trimmed and sorted with Brazilian Portuguese collation.
func (s *Service) ListLotacoes(ctx context.Context) ([]string, error) {
	raw, err := s.store.ListLotacoes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lotacoes: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	collate.New(language.BrazilianPortuguese).SortStrings(out)
	return out, nil
}
