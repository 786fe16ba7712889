package core

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var errRemote = errors.New("remote service unavailable")

// fakeStore is an in-memory Store. Posts are keyed by identifier so repeated
// upserts overwrite, like the real procedure.
type fakeStore struct {
	mu sync.Mutex

	posts       map[string]PostInput
	upsertCalls int
	failUpsert  func(PostInput) error

	personnel   []Personnel
	inserted    []PersonnelRecord
	updated     map[string]PersonnelRecord
	deactivated []string
	vacated     []string

	occurrences []Occurrence
	lastQuery   OccurrenceQuery

	lotacoes []string
	alerts   []AbsenceAlert
	active   int64
	filled   int64

	failReads error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:   make(map[string]PostInput),
		updated: make(map[string]PersonnelRecord),
	}
}

func (f *fakeStore) UpsertPost(_ context.Context, in PostInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.upsertCalls++
	if f.failUpsert != nil {
		if err := f.failUpsert(in); err != nil {
			return "", err
		}
	}
	id := PostIdentifier(in.Key())
	f.posts[id] = in
	return id, nil
}

func (f *fakeStore) ListPosts(_ context.Context, limit int) ([]Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.posts))
	for id := range f.posts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Post, 0, len(ids))
	for _, id := range ids {
		in := f.posts[id]
		out = append(out, Post{Identifier: id, Name: in.Name, Number: in.Number, Status: in.Status})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) VacatePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vacated = append(f.vacated, id)
	return nil
}

func (f *fakeStore) ListLotacoes(context.Context) ([]string, error) {
	return f.lotacoes, f.failReads
}

func (f *fakeStore) InsertPersonnel(_ context.Context, rec PersonnelRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeStore) UpdatePersonnel(_ context.Context, id string, rec PersonnelRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.findByID(id); !ok {
		return ErrNotFound
	}
	f.updated[id] = rec
	return nil
}

func (f *fakeStore) DeactivatePersonnel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeStore) ListPersonnel(_ context.Context, limit int) ([]Personnel, error) {
	if f.failReads != nil {
		return nil, f.failReads
	}
	out := append([]Personnel(nil), f.personnel...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) FindPersonnelByCPF(_ context.Context, cpf string) ([]Personnel, error) {
	var out []Personnel
	for _, p := range f.personnel {
		if p.CPF == cpf {
			out = append(out, p)
		}
	}
	return out, f.failReads
}

func (f *fakeStore) FindPersonnelByMatricula(_ context.Context, m string) ([]Personnel, error) {
	var out []Personnel
	for _, p := range f.personnel {
		if p.Matricula == m {
			out = append(out, p)
		}
	}
	return out, f.failReads
}

func (f *fakeStore) PersonnelByIDs(_ context.Context, ids []string) ([]Personnel, error) {
	var out []Personnel
	for _, id := range ids {
		if p, ok := f.findByID(id); ok {
			out = append(out, p)
		}
	}
	return out, f.failReads
}

func (f *fakeStore) findByID(id string) (Personnel, bool) {
	for _, p := range f.personnel {
		if p.ID == id {
			return p, true
		}
	}
	return Personnel{}, false
}

func (f *fakeStore) InsertOccurrence(_ context.Context, o Occurrence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.Number = int64(len(f.occurrences) + 1)
	f.occurrences = append(f.occurrences, o)
	return nil
}

func (f *fakeStore) ListOccurrences(_ context.Context, q OccurrenceQuery) ([]Occurrence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q

	var out []Occurrence
	for i := len(f.occurrences) - 1; i >= 0; i-- {
		o := f.occurrences[i]
		if !q.Matches(o) {
			continue
		}
		out = append(out, o)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, f.failReads
}

func (f *fakeStore) CountActivePersonnel(context.Context) (int64, error) {
	return f.active, f.failReads
}

func (f *fakeStore) CountFilledPosts(context.Context) (int64, error) {
	return f.filled, nil
}

func (f *fakeStore) AbsenceAlerts(context.Context) ([]AbsenceAlert, error) {
	return f.alerts, nil
}

// failWhenName rejects upserts for posts whose name contains marker.
func failWhenName(marker string) func(PostInput) error {
	return func(in PostInput) error {
		if strings.Contains(in.Name, marker) {
			return errRemote
		}
		return nil
	}
}

func intPtr(n int) *int { return &n }
