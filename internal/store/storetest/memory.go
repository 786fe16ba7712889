// Package storetest provides an in-memory core.Store for tests.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/google/uuid"
)

// Memory is a concurrency-safe in-memory store. The zero value is not usable;
// call NewMemory.
type Memory struct {
	mu          sync.Mutex
	posts       map[string]core.Post
	personnel   map[string]core.Personnel
	occurrences []core.Occurrence
	alerts      []core.AbsenceAlert
	nextNumber  int64

	// Err, when set, is returned by every call.
	Err error
}

var _ core.Store = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		posts:     make(map[string]core.Post),
		personnel: make(map[string]core.Personnel),
	}
}

// SetAlerts replaces the absence alerts returned by AbsenceAlerts.
func (m *Memory) SetAlerts(alerts []core.AbsenceAlert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append([]core.AbsenceAlert(nil), alerts...)
}

// AddPersonnel stores p as is, assigning an id when it has none, and
// returns the id.
func (m *Memory) AddPersonnel(p core.Personnel) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.personnel[p.ID] = p
	return p.ID
}

// Posts returns every stored post ordered by identifier.
func (m *Memory) Posts() []core.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedPosts(0)
}

func (m *Memory) UpsertPost(_ context.Context, in core.PostInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}

	ident := core.PostIdentifier(in.Key())
	post, ok := m.posts[ident]
	if !ok {
		post.ID = uuid.NewString()
	}
	post.Identifier = ident
	post.Name = in.Name
	post.Number = in.Number
	post.Sequence = in.Sequence
	post.Contract = in.Contract
	post.Year = in.Year
	post.Shift = in.Shift
	post.LotacaoMacro = in.LotacaoMacro
	post.Lotacao = in.Lotacao
	post.Description = in.Description
	post.City = in.City
	post.Status = in.Status
	m.posts[ident] = post
	return ident, nil
}

func (m *Memory) ListPosts(_ context.Context, limit int) ([]core.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sortedPosts(limit), nil
}

func (m *Memory) sortedPosts(limit int) []core.Post {
	out := make([]core.Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Memory) VacatePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for k, p := range m.posts {
		if p.ID == id {
			p.Status = core.StatusVacant
			m.posts[k] = p
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *Memory) ListLotacoes(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []string
	for _, p := range m.posts {
		if p.Lotacao != "" {
			out = append(out, p.Lotacao)
		}
	}
	return out, nil
}

func (m *Memory) InsertPersonnel(_ context.Context, rec core.PersonnelRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	active := true
	p := fromRecord(rec)
	p.ID = uuid.NewString()
	p.CPF = rec.CPF
	p.Active = &active
	m.personnel[p.ID] = p
	return nil
}

func (m *Memory) UpdatePersonnel(_ context.Context, id string, rec core.PersonnelRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	old, ok := m.personnel[id]
	if !ok {
		return core.ErrNotFound
	}
	p := fromRecord(rec)
	p.ID = id
	p.CPF = old.CPF
	p.Active = old.Active
	m.personnel[id] = p
	return nil
}

func fromRecord(rec core.PersonnelRecord) core.Personnel {
	p := core.Personnel{
		Matricula:  rec.Matricula,
		Name:       rec.Name,
		Sex:        rec.Sex,
		Profession: rec.Profession,
		PostName:   rec.PostName,
		PostNumber: rec.PostNumber,
		PostRef:    rec.PostRef,
		Lotacao:    rec.Lotacao,
		Occupation: rec.Occupation,
	}
	if !rec.AdmissionDate.IsZero() {
		p.AdmissionDate = rec.AdmissionDate.Format(core.DateLayout)
	}
	return p
}

func (m *Memory) DeactivatePersonnel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	p, ok := m.personnel[id]
	if !ok {
		return core.ErrNotFound
	}
	inactive := false
	p.Active = &inactive
	m.personnel[id] = p
	return nil
}

func (m *Memory) ListPersonnel(_ context.Context, limit int) ([]core.Personnel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []core.Personnel
	for _, p := range m.personnel {
		if p.Active != nil && !*p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) FindPersonnelByCPF(_ context.Context, cpf string) ([]core.Personnel, error) {
	return m.find(func(p core.Personnel) bool { return p.CPF == cpf })
}

func (m *Memory) FindPersonnelByMatricula(_ context.Context, matricula string) ([]core.Personnel, error) {
	return m.find(func(p core.Personnel) bool { return p.Matricula == matricula })
}

func (m *Memory) find(match func(core.Personnel) bool) ([]core.Personnel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []core.Personnel
	for _, p := range m.personnel {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) PersonnelByIDs(_ context.Context, ids []string) ([]core.Personnel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []core.Personnel
	for _, id := range ids {
		if p, ok := m.personnel[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) InsertOccurrence(_ context.Context, o core.Occurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.nextNumber++
	o.Number = m.nextNumber
	m.occurrences = append(m.occurrences, o)
	return nil
}

func (m *Memory) ListOccurrences(_ context.Context, q core.OccurrenceQuery) ([]core.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []core.Occurrence
	for i := len(m.occurrences) - 1; i >= 0; i-- {
		o := m.occurrences[i]
		if !q.Matches(o) {
			continue
		}
		out = append(out, o)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) CountActivePersonnel(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, p := range m.personnel {
		if p.Active != nil && *p.Active {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountFilledPosts(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, p := range m.posts {
		if p.Status == core.StatusFilled {
			n++
		}
	}
	return n, nil
}

func (m *Memory) AbsenceAlerts(context.Context) ([]core.AbsenceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]core.AbsenceAlert(nil), m.alerts...), nil
}
