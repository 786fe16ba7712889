package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Alert badges, from most to least urgent.
const (
	BadgeDanger = "danger"
	BadgeWarn   = "warn"
	BadgeOK     = "ok"
)

// missingDays stands in for an alert without a days-to-end value.
const missingDays = 999

// Badge classifies the alert by days remaining: at most 1 is danger,
// at most 3 is warn, anything else (including a missing value) is ok.
func (a AbsenceAlert) Badge() string {
	days := missingDays
	if a.DaysToEnd != nil {
		days = *a.DaysToEnd
	}
	switch {
	case days <= 1:
		return BadgeDanger
	case days <= 3:
		return BadgeWarn
	default:
		return BadgeOK
	}
}

// AlertView is an alert with its badge resolved.
type AlertView struct {
	AbsenceAlert
	Badge string `json:"badge"`
}

// Dashboard is the console's landing summary.
type Dashboard struct {
	ActivePersonnel int64       `json:"colaboradores_ativos"`
	FilledPosts     int64       `json:"postos_preenchidos"`
	Alerts          []AlertView `json:"alertas"`
}

// Dashboard runs its three reads concurrently and joins them.
// Any failing read fails the whole summary.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		d      Dashboard
		alerts []AbsenceAlert
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountActivePersonnel(gctx)
		if err != nil {
			return fmt.Errorf("count active personnel: %w", err)
		}
		d.ActivePersonnel = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountFilledPosts(gctx)
		if err != nil {
			return fmt.Errorf("count filled posts: %w", err)
		}
		d.FilledPosts = n
		return nil
	})
	g.Go(func() error {
		a, err := s.store.AbsenceAlerts(gctx)
		if err != nil {
			return fmt.Errorf("absence alerts: %w", err)
		}
		alerts = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Alerts = make([]AlertView, len(alerts))
	for i, a := range alerts {
		d.Alerts[i] = AlertView{AbsenceAlert: a, Badge: a.Badge()}
	}
	return &d, nil
}
