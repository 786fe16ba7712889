package core

import (
	"context"
	"fmt"
	"strings"
)

// SavePost creates or updates a post keyed by its identifier and returns the
// stored identifier. Blank optional fields take the same defaults as imports.
func (s *Service) SavePost(ctx context.Context, in PostInput) (string, error) {
	in.normalize()

	id := PostIdentifier(in.Key())
	if id == "" {
		return "", ValidationError{
			Field:   "id_posto",
			Message: "ID.Posto inválido: informe nome, número, sequencial, contrato e ano.",
		}
	}

	stored, err := s.store.UpsertPost(ctx, in)
	if err != nil {
		return "", fmt.Errorf("upsert post %s: %w", id, err)
	}
	if stored == "" {
		stored = id
	}
	return stored, nil
}

func (in *PostInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Contract = strings.TrimSpace(in.Contract)
	in.Shift = strings.TrimSpace(in.Shift)
	in.LotacaoMacro = strings.TrimSpace(in.LotacaoMacro)
	in.Lotacao = strings.TrimSpace(in.Lotacao)
	in.Description = strings.TrimSpace(in.Description)
	in.City = strings.TrimSpace(in.City)
	in.Status = strings.ToUpper(strings.TrimSpace(in.Status))

	if in.Sequence == 0 {
		in.Sequence = DefaultSequence
	}
	if in.Shift == "" {
		in.Shift = DefaultShift
	}
	if in.Status == "" {
		in.Status = DefaultStatus
	}
}

// ListPosts returns posts ordered by identifier.
func (s *Service) ListPosts(ctx context.Context) ([]Post, error) {
	posts, err := s.store.ListPosts(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// VacatePost marks post id as vacant. Posts are never removed.
func (s *Service) VacatePost(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.store.VacatePost(ctx, id); err != nil {
		return fmt.Errorf("vacate post %s: %w", id, err)
	}
	return nil
}
