package core

// batch.go implements the post import loop.
//
// Rows are processed one at a time in file order. Each row is mapped through
// an AliasTable into a PostInput, checked, and submitted as a single keyed
// upsert. A row that fails mapping or whose upsert errors is counted as
// rejected and the loop moves on; nothing short of the caller's return ends a
// run early, so Accepted+Rejected always equals the number of rows given.

import (
	"context"
	"fmt"
	"log/slog"
)

// OutcomeKind tags the result of a single row.
type OutcomeKind int

const (
	OutcomeAccepted OutcomeKind = iota
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	if k == OutcomeAccepted {
		return "accepted"
	}
	return "rejected"
}

// RowOutcome describes what happened to one row.
type RowOutcome struct {
	Line       int // 1-based position among the data rows
	Kind       OutcomeKind
	Identifier string
	Reason     string
}

// BatchResult counts row outcomes for a run.
type BatchResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// Total returns the number of rows attempted.
func (r BatchResult) Total() int {
	return r.Accepted + r.Rejected
}

func (r BatchResult) add(o RowOutcome) BatchResult {
	if o.Kind == OutcomeAccepted {
		r.Accepted++
	} else {
		r.Rejected++
	}
	return r
}

// Reconciler upserts imported rows as posts.
type Reconciler struct {
	Upserter PostUpserter
	Aliases  AliasTable

	// OnRow, when set, is called after each row with its outcome.
	OnRow func(RowOutcome)

	Logger *slog.Logger
}

// Reconcile runs rows through a Reconciler using DefaultPostAliases.
func Reconcile(ctx context.Context, rows []Row, up PostUpserter) BatchResult {
	r := &Reconciler{Upserter: up, Aliases: DefaultPostAliases()}
	return r.Run(ctx, rows)
}

// Run processes every row sequentially and returns the outcome counts.
func (r *Reconciler) Run(ctx context.Context, rows []Row) BatchResult {
	aliases := r.Aliases
	if aliases == nil {
		aliases = DefaultPostAliases()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var result BatchResult
	for i, row := range rows {
		outcome := r.reconcileRow(ctx, aliases, row)
		outcome.Line = i + 1

		if outcome.Kind == OutcomeRejected {
			logger.Debug("import row rejected", "line", outcome.Line, "reason", outcome.Reason)
		}
		if r.OnRow != nil {
			r.OnRow(outcome)
		}
		result = result.add(outcome)
	}
	return result
}

func (r *Reconciler) reconcileRow(ctx context.Context, aliases AliasTable, row Row) RowOutcome {
	in, err := PostFromRow(row, aliases)
	if err != nil {
		return RowOutcome{Kind: OutcomeRejected, Reason: err.Error()}
	}

	id := PostIdentifier(in.Key())
	if id == "" {
		return RowOutcome{Kind: OutcomeRejected, Reason: "invalid post identifier"}
	}

	stored, err := r.Upserter.UpsertPost(ctx, in)
	if err != nil {
		return RowOutcome{Kind: OutcomeRejected, Identifier: id, Reason: fmt.Sprintf("upsert: %v", err)}
	}
	if stored != "" {
		id = stored
	}
	return RowOutcome{Kind: OutcomeAccepted, Identifier: id}
}

// PostFromRow maps an imported row onto a PostInput. Blank optional fields
// take the import defaults; a blank name, a missing or non-positive number,
// and non-numeric text in any numeric field are errors.
func PostFromRow(row Row, aliases AliasTable) (PostInput, error) {
	in := PostInput{
		Name:         aliases.Lookup(row, FieldPostName),
		Contract:     aliases.Lookup(row, FieldContract),
		Shift:        aliases.Lookup(row, FieldShift),
		LotacaoMacro: aliases.Lookup(row, FieldLotacaoMacro),
		Lotacao:      aliases.Lookup(row, FieldLotacao),
		Description:  aliases.Lookup(row, FieldDescription),
		City:         aliases.Lookup(row, FieldCity),
		Status:       aliases.Lookup(row, FieldStatus),
	}

	if in.Name == "" {
		return PostInput{}, ValidationError{Field: string(FieldPostName), Message: "required field is empty"}
	}

	raw := aliases.Lookup(row, FieldPostNumber)
	n, ok := ParseCount(raw)
	if !ok || n < 1 {
		return PostInput{}, ValidationError{Field: string(FieldPostNumber), Value: raw, Message: "invalid number"}
	}
	in.Number = n

	var err error
	if in.Sequence, err = countOrDefault(row, aliases, FieldSequence, DefaultSequence); err != nil {
		return PostInput{}, err
	}
	if in.Year, err = countOrDefault(row, aliases, FieldYear, DefaultYear); err != nil {
		return PostInput{}, err
	}

	if in.Contract == "" {
		in.Contract = DefaultContract
	}
	if in.Shift == "" {
		in.Shift = DefaultShift
	}
	if in.Status == "" {
		in.Status = DefaultStatus
	}

	return in, nil
}

func countOrDefault(row Row, aliases AliasTable, f Field, def int) (int, error) {
	raw := aliases.Lookup(row, f)
	if raw == "" {
		return def, nil
	}
	n, ok := ParseCount(raw)
	if !ok {
		return 0, ValidationError{Field: string(f), Value: raw, Message: "invalid number"}
	}
	return n, nil
}
