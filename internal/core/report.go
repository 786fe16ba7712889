package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Report filter kinds.
const (
	ReportByMatricula = "matricula"
	ReportByLotacao   = "lotacao"
	ReportByPeriod    = "periodo"
)

// ReportFilter selects which occurrences a report includes.
type ReportFilter struct {
	Kind      string
	Matricula string
	Lotacao   string
	Start     string
	End       string
}

// ReportRow is one report line.
type ReportRow struct {
	Number           int64  `json:"numero"`
	Matricula        string `json:"matricula"`
	Name             string `json:"nome"`
	Lotacao          string `json:"lotacao"`
	PostID           string `json:"posto_id"`
	Reason           string `json:"motivo"`
	StartDate        string `json:"data_inicio"`
	EndDate          string `json:"data_fim"`
	TotalDays        *int   `json:"total_dias"`
	SubstitutionType string `json:"tipo_substituicao"`
	Substitute       string `json:"substituto"`
}

// Period renders the start and end dates as "start → end".
func (r ReportRow) Period() string {
	return r.StartDate + " → " + r.EndDate
}

type reportPlan struct {
	query OccurrenceQuery
	keep  func(Personnel) bool
}

func (f ReportFilter) plan() (reportPlan, error) {
	p := reportPlan{query: OccurrenceQuery{Limit: ReportLimit}}

	switch strings.TrimSpace(f.Kind) {
	case ReportByMatricula:
		m := strings.TrimSpace(f.Matricula)
		if len([]rune(m)) != 4 {
			return p, fail("matricula", "Informe a matrícula (4 caracteres).")
		}
		p.keep = func(person Personnel) bool { return person.Matricula == m }

	case ReportByLotacao:
		l := strings.ToLower(strings.TrimSpace(f.Lotacao))
		if l == "" {
			return p, fail("lotacao", "Informe a lotação.")
		}
		p.keep = func(person Personnel) bool {
			return strings.Contains(strings.ToLower(person.Lotacao), l)
		}

	case ReportByPeriod:
		start, okS := ParseDate(f.Start)
		end, okE := ParseDate(f.End)
		if !okS || !okE {
			return p, fail("inicio", "Informe início e fim do período.")
		}
		if end.Before(start) {
			return p, fail("fim", "Período inválido (fim menor que início).")
		}
		p.query.StartFrom = start
		p.query.StartTo = end
		p.keep = func(Personnel) bool { return true }

	default:
		return p, fail("tipo", "Tipo de relatório inválido.")
	}

	return p, nil
}

// Report lists the newest occurrences matching filter, joined with their
// personnel. Period filtering happens in the query; the personnel filters
// are applied here after the join.
func (s *Service) Report(ctx context.Context, filter ReportFilter) ([]ReportRow, error) {
	plan, err := filter.plan()
	if err != nil {
		return nil, err
	}

	list, err := s.store.ListOccurrences(ctx, plan.query)
	if err != nil {
		return nil, fmt.Errorf("report occurrences: %w", err)
	}

	people, err := s.personnelIndex(ctx, list)
	if err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(list))
	for _, o := range list {
		person := people[o.PersonnelID]
		if !plan.keep(person) {
			continue
		}
		rows = append(rows, ReportRow{
			Number:           o.Number,
			Matricula:        person.Matricula,
			Name:             person.Name,
			Lotacao:          person.Lotacao,
			PostID:           o.PostID,
			Reason:           o.Reason,
			StartDate:        o.StartDate,
			EndDate:          o.EndDate,
			TotalDays:        o.TotalDays,
			SubstitutionType: o.SubstitutionType,
			Substitute:       o.Substitute,
		})
	}
	return rows, nil
}

// inPeriod reports whether an ISO start date lies within [from, to].
// Zero bounds are open. Used by stores that filter in memory.
func inPeriod(start string, from, to time.Time) bool {
	t, ok := ParseDate(start)
	if !ok {
		return from.IsZero() && to.IsZero()
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

// Matches reports whether o satisfies the date bounds of q.
func (q OccurrenceQuery) Matches(o Occurrence) bool {
	return inPeriod(o.StartDate, q.StartFrom, q.StartTo)
}
