package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"aura/internal/logging"
	"aura/internal/services"
)

// Tracker assigns workflow identifiers and maintains lifecycle counters. It
// keeps an in-memory view of every record it created and, when a store is
// attached, writes records through so history survives restarts. Safe for
// concurrent use.
type Tracker struct {
	mu      sync.Mutex
	records map[string]*Record
	stats   Stats

	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker builds a tracker. A nil store keeps records in memory only.
func NewTracker(store *Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		records: make(map[string]*Record),
		store:   store,
		logger:  logging.NewComponentLogger(logger, "workflow"),
		now:     time.Now,
	}
}

// Create opens a new workflow record with a fresh identifier.
func (t *Tracker) Create(ctx context.Context) (*Record, error) {
	rec := &Record{
		ID:        uuid.NewString(),
		Status:    StatusCreated,
		CreatedAt: t.now().UTC(),
	}

	if t.store != nil {
		if err := t.store.Insert(ctx, rec); err != nil {
			return nil, services.Wrap(services.ErrTransient, "workflow", "create", "persist workflow record", err)
		}
	}

	t.mu.Lock()
	t.records[rec.ID] = rec
	t.stats.Total++
	t.stats.Active++
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "workflow created", logging.String(logging.FieldWorkflowID, rec.ID))
	return cloneRecord(rec), nil
}

// Complete closes a workflow with a terminal status. Completing an unknown or
// already terminal workflow is an error.
func (t *Tracker) Complete(ctx context.Context, id string, status Status, errMsg string) error {
	if !status.IsTerminal() {
		return services.Wrap(services.ErrValidation, "workflow", "complete", fmt.Sprintf("status %q is not terminal", status), nil)
	}

	completedAt := t.now().UTC()

	t.mu.Lock()
	rec, ok := t.records[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	if rec.Status.IsTerminal() {
		t.mu.Unlock()
		return services.Wrap(services.ErrValidation, "workflow", "complete", fmt.Sprintf("workflow %s already completed", id), nil)
	}
	rec.Status = status
	rec.CompletedAt = &completedAt
	rec.Error = errMsg
	t.stats.Active--
	switch status {
	case StatusSuccess:
		t.stats.Success++
	case StatusError:
		t.stats.Error++
	}
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.Complete(ctx, id, status, completedAt, errMsg); err != nil {
			return services.Wrap(services.ErrTransient, "workflow", "complete", "persist workflow completion", err)
		}
	}

	t.logger.InfoContext(ctx, "workflow completed",
		logging.String(logging.FieldWorkflowID, id),
		logging.String("status", string(status)))
	return nil
}

// Get returns a snapshot of one tracked record.
func (t *Tracker) Get(id string) (*Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	if !ok {
		return nil, false
	}
	return cloneRecord(rec), true
}

// Stats returns a snapshot of the lifecycle counters.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func cloneRecord(rec *Record) *Record {
	out := *rec
	if rec.CompletedAt != nil {
		completed := *rec.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}
