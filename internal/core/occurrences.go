package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DefaultReason is used when an occurrence is saved without a reason.
const DefaultReason = "Outros"

// OccurrenceInput is the occurrence form.
type OccurrenceInput struct {
	Matricula        string `json:"matricula"`
	PostID           string `json:"posto_id"`
	SubstitutionType string `json:"tipo_substituicao"`
	StartDate        string `json:"data_inicio"`
	EndDate          string `json:"data_fim"`
	Reason           string `json:"motivo"`
	Substitute       string `json:"substituto"`
}

// OccurrenceView is an occurrence joined with its personnel's
// registration number and name.
type OccurrenceView struct {
	Occurrence
	Matricula string `json:"matricula"`
	Name      string `json:"nome"`
}

// DaysBetween returns the inclusive number of days from start to end.
// ok is false when either date is invalid or end is before start.
func DaysBetween(start, end string) (days int, ok bool) {
	s, okS := ParseDate(start)
	e, okE := ParseDate(end)
	if !okS || !okE || e.Before(s) {
		return 0, false
	}
	return int((e.Unix()-s.Unix())/86400) + 1, true
}

// TotalDays is DaysBetween rendered for display: the day count as text,
// or "" when the period is invalid.
func TotalDays(start, end string) string {
	days, ok := DaysBetween(start, end)
	if !ok {
		return ""
	}
	return strconv.Itoa(days)
}

func fail(field, msg string) error {
	return ValidationError{Field: field, Message: msg}
}

// CreateOccurrence validates the form, resolves the personnel record from the
// registration number and stores the occurrence.
func (s *Service) CreateOccurrence(ctx context.Context, in OccurrenceInput) (Occurrence, error) {
	in.Matricula = strings.TrimSpace(in.Matricula)
	in.PostID = strings.TrimSpace(in.PostID)
	in.SubstitutionType = strings.TrimSpace(in.SubstitutionType)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Substitute = strings.TrimSpace(in.Substitute)

	if len([]rune(in.Matricula)) != 4 {
		return Occurrence{}, fail("matricula", "Informe a matrícula (4 caracteres).")
	}

	found, err := s.store.FindPersonnelByMatricula(ctx, in.Matricula)
	if err != nil {
		return Occurrence{}, fmt.Errorf("find personnel by matricula: %w", err)
	}
	if len(found) == 0 {
		return Occurrence{}, fail("matricula", "Matrícula não encontrada. Cadastre o colaborador antes.")
	}
	person := found[0]
	if strings.TrimSpace(person.Name) == "" {
		return Occurrence{}, fail("nome", "Nome não localizado para a matrícula informada.")
	}

	if in.PostID == "" {
		return Occurrence{}, fail("posto_id", "Informe o ID.Posto.")
	}
	if in.SubstitutionType == "" {
		return Occurrence{}, fail("tipo_substituicao", "Selecione o tipo de substituição.")
	}
	if strings.TrimSpace(in.StartDate) == "" || strings.TrimSpace(in.EndDate) == "" {
		return Occurrence{}, fail("data_inicio", "Informe início e fim.")
	}
	days, ok := DaysBetween(in.StartDate, in.EndDate)
	if !ok {
		return Occurrence{}, fail("data_fim", "Período inválido (fim menor que início).")
	}

	if in.Reason == "" {
		in.Reason = DefaultReason
	}

	o := Occurrence{
		PersonnelID:      person.ID,
		PostID:           in.PostID,
		Reason:           in.Reason,
		StartDate:        NormalizeDate(in.StartDate),
		EndDate:          NormalizeDate(in.EndDate),
		TotalDays:        &days,
		SubstitutionType: in.SubstitutionType,
		Substitute:       in.Substitute,
	}
	if err := s.store.InsertOccurrence(ctx, o); err != nil {
		return Occurrence{}, fmt.Errorf("insert occurrence: %w", err)
	}
	return o, nil
}

// ListOccurrences returns the newest occurrences joined with the
// registration number and name of their personnel.
func (s *Service) ListOccurrences(ctx context.Context) ([]OccurrenceView, error) {
	list, err := s.store.ListOccurrences(ctx, OccurrenceQuery{Limit: ListLimit})
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}

	people, err := s.personnelIndex(ctx, list)
	if err != nil {
		return nil, err
	}

	views := make([]OccurrenceView, len(list))
	for i, o := range list {
		views[i] = OccurrenceView{Occurrence: o}
		if p, ok := people[o.PersonnelID]; ok {
			views[i].Matricula = p.Matricula
			views[i].Name = p.Name
		}
	}
	return views, nil
}

// personnelIndex loads the personnel referenced by occurrences, keyed by id.
func (s *Service) personnelIndex(ctx context.Context, list []Occurrence) (map[string]Personnel, error) {
	ids := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, o := range list {
		if o.PersonnelID == "" {
			continue
		}
		if _, dup := seen[o.PersonnelID]; dup {
			continue
		}
		seen[o.PersonnelID] = struct{}{}
		ids = append(ids, o.PersonnelID)
	}

	index := make(map[string]Personnel, len(ids))
	if len(ids) == 0 {
		return index, nil
	}

	people, err := s.store.PersonnelByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load personnel: %w", err)
	}
	for _, p := range people {
		index[p.ID] = p
	}
	return index, nil
}
