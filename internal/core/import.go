package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/vmapp/internal/logging"
	"github.com/google/uuid"
)

// ImportResult summarizes one post import run.
type ImportResult struct {
	ID        string        `json:"id"`
	FileName  string        `json:"file_name"`
	Rows      int           `json:"rows"`
	Accepted  int           `json:"accepted"`
	Rejected  int           `json:"rejected"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Summary renders the operator-facing completion line.
func (r ImportResult) Summary() string {
	return fmt.Sprintf("Importação concluída. OK: %d | Falhas: %d", r.Accepted, r.Rejected)
}

// NoDataMessage is shown when an upload has no data rows.
const NoDataMessage = "Arquivo sem dados."

// ImportPosts decodes an uploaded file and upserts every row as a post.
//
// A file that cannot be decoded fails once, before any row is processed.
// A file with no data rows returns ErrNoData. Otherwise every row is attempted
// and the result counts each row exactly once. Runs are bounded by the import
// limiter and by the configured import timeout.
func (s *Service) ImportPosts(ctx context.Context, fileName string, data []byte) (*ImportResult, error) {
	result, err := s.importPosts(ctx, fileName, data)
	if s.observer != nil {
		s.observer.ObserveImportRun(result, err)
	}
	return result, err
}

func (s *Service) importPosts(ctx context.Context, fileName string, data []byte) (*ImportResult, error) {
	rows, err := Ingest(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", fileName, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.importTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.importTimeout)
		defer cancel()
	}

	result := &ImportResult{
		ID:        uuid.New().String(),
		FileName:  fileName,
		Rows:      len(rows),
		StartedAt: time.Now(),
	}
	logger := logging.WithFields(ctx,
		"import_id", result.ID,
		"file", fileName,
		"client_ip", ClientIPFromContext(ctx),
	)
	logger.Info("import started", "rows", len(rows))

	rec := &Reconciler{
		Upserter: s.store,
		Aliases:  s.aliases,
		Logger:   logger,
		OnRow: func(o RowOutcome) {
			if s.observer != nil {
				s.observer.ObserveImportRow(o.Kind)
			}
		},
	}
	counts := rec.Run(ctx, rows)

	result.Accepted = counts.Accepted
	result.Rejected = counts.Rejected
	result.Duration = time.Since(result.StartedAt)

	level := slog.LevelInfo
	if counts.Rejected > 0 {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "import finished",
		"accepted", result.Accepted,
		"rejected", result.Rejected,
		"duration", result.Duration,
	)

	s.remember(*result)
	return result, nil
}

// remember keeps the most recent import results, newest first.
func (s *Service) remember(r ImportResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append([]ImportResult{r}, s.recent...)
	if len(s.recent) > recentImportsCap {
		s.recent = s.recent[:recentImportsCap]
	}
}

// RecentImports returns the latest import results, newest first.
func (s *Service) RecentImports() []ImportResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ImportResult(nil), s.recent...)
}
