package core

import (
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/vmapp/internal/config"
	"github.com/google/uuid"
)

// List limits used by the console views.
const (
	ListLimit   = 300
	ReportLimit = 500
)

// recentImportsCap bounds the in-memory import history.
const recentImportsCap = 20

var (
	// ErrNotFound is returned when a lookup or update matches no record.
	ErrNotFound = errors.New("record not found")

	// ErrNoData is returned when an uploaded file decodes to zero rows.
	ErrNoData = errors.New("file has no data rows")
)

// ImportObserver receives import events, typically for metrics.
type ImportObserver interface {
	ObserveImportRow(kind OutcomeKind)
	ObserveImportRun(result *ImportResult, err error)
}

// Service provides the business logic of the admin console.
type Service struct {
	store         Store
	limiter       *ImportLimiter
	importTimeout time.Duration
	aliases       AliasTable
	observer      ImportObserver

	mu     sync.RWMutex
	recent []ImportResult
}

// NewService creates a Service backed by store.
func NewService(store Store, cfg config.ImportConfig) *Service {
	return &Service{
		store:         store,
		limiter:       NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		importTimeout: cfg.Timeout,
		aliases:       DefaultPostAliases(),
	}
}

// WithObserver sets the import observer and returns s.
func (s *Service) WithObserver(o ImportObserver) *Service {
	s.observer = o
	return s
}

// WithAliases replaces the header alias table used by imports and returns s.
func (s *Service) WithAliases(t AliasTable) *Service {
	s.aliases = t
	return s
}

// Limiter exposes the import limiter for shutdown draining and status.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// checkID rejects record ids that are not UUIDs before they reach the store.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ValidationError{Field: "id", Value: id, Message: "Identificador inválido."}
	}
	return nil
}
