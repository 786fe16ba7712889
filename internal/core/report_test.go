package core

import (
	"context"
	"testing"
)

func reportStore() *fakeStore {
	store := occurrenceStore()
	store.personnel = append(store.personnel,
		Personnel{ID: "33333333-3333-4333-8333-333333333333", Matricula: "0100", Name: "João", Lotacao: "Recife Antigo"},
	)
	store.occurrences = []Occurrence{
		{Number: 1, PersonnelID: personAID, StartDate: "2024-01-10", EndDate: "2024-01-12", Reason: "Férias"},
		{Number: 2, PersonnelID: personBID, StartDate: "2024-02-05", EndDate: "2024-02-06"},
		{Number: 3, PersonnelID: "33333333-3333-4333-8333-333333333333", StartDate: "2024-03-01", EndDate: "2024-03-02"},
		{Number: 4, PersonnelID: personAID, StartDate: "2024-03-15", EndDate: "2024-03-20", SubstitutionType: "Tipo 2"},
	}
	return store
}

func TestReport(t *testing.T) {
	tests := []struct {
		name       string
		filter     ReportFilter
		wantStarts []string
	}{
		{
			name:       "by matricula exact",
			filter:     ReportFilter{Kind: ReportByMatricula, Matricula: "0042"},
			wantStarts: []string{"2024-03-15", "2024-01-10"},
		},
		{
			name:       "by lotacao substring any case",
			filter:     ReportFilter{Kind: ReportByLotacao, Lotacao: "recife"},
			wantStarts: []string{"2024-03-15", "2024-03-01", "2024-01-10"},
		},
		{
			name:       "by period inclusive",
			filter:     ReportFilter{Kind: ReportByPeriod, Start: "2024-02-05", End: "2024-03-01"},
			wantStarts: []string{"2024-03-01", "2024-02-05"},
		},
		{
			name:       "no matches",
			filter:     ReportFilter{Kind: ReportByMatricula, Matricula: "9999"},
			wantStarts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(reportStore())

			rows, err := svc.Report(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Report() error = %v", err)
			}

			got := make([]string, len(rows))
			for i, r := range rows {
				got[i] = r.StartDate
			}
			if len(got) != len(tt.wantStarts) {
				t.Fatalf("rows = %v, want %v", got, tt.wantStarts)
			}
			for i := range got {
				if got[i] != tt.wantStarts[i] {
					t.Errorf("rows = %v, want %v", got, tt.wantStarts)
					break
				}
			}
		})
	}
}

func TestReport_CarriesOccurrenceFields(t *testing.T) {
	svc := newTestService(reportStore())

	rows, err := svc.Report(context.Background(), ReportFilter{Kind: ReportByMatricula, Matricula: "0042"})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected rows")
	}

	first := rows[0]
	if first.Number != 4 {
		t.Errorf("Number = %d, want 4", first.Number)
	}
	if first.SubstitutionType != "Tipo 2" {
		t.Errorf("SubstitutionType = %q, want %q", first.SubstitutionType, "Tipo 2")
	}
	if first.Name != "Maria" || first.Lotacao != "Recife" {
		t.Errorf("personnel not joined: %+v", first)
	}
}

func TestReport_PeriodPushedToQuery(t *testing.T) {
	store := reportStore()
	svc := newTestService(store)

	if _, err := svc.Report(context.Background(), ReportFilter{Kind: ReportByPeriod, Start: "2024-02-01", End: "2024-02-28"}); err != nil {
		t.Fatal(err)
	}
	if store.lastQuery.StartFrom.IsZero() || store.lastQuery.StartTo.IsZero() {
		t.Errorf("period bounds not passed to store: %+v", store.lastQuery)
	}
	if store.lastQuery.Limit != ReportLimit {
		t.Errorf("limit = %d, want %d", store.lastQuery.Limit, ReportLimit)
	}
}

func TestReport_InvalidFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter ReportFilter
	}{
		{"unknown kind", ReportFilter{Kind: "setor"}},
		{"short matricula", ReportFilter{Kind: ReportByMatricula, Matricula: "12"}},
		{"blank lotacao", ReportFilter{Kind: ReportByLotacao, Lotacao: "  "}},
		{"missing period end", ReportFilter{Kind: ReportByPeriod, Start: "2024-01-01"}},
		{"reversed period", ReportFilter{Kind: ReportByPeriod, Start: "2024-02-01", End: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(reportStore())
			if _, err := svc.Report(context.Background(), tt.filter); !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestReportRow_Period(t *testing.T) {
	r := ReportRow{StartDate: "2024-01-10", EndDate: "2024-01-12"}
	if got := r.Period(); got != "2024-01-10 → 2024-01-12" {
		t.Errorf("Period() = %q", got)
	}
}
