package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"aura/internal/services"
	"aura/internal/testsupport"
	"aura/internal/workflow"
)

func TestTrackerCreateAndComplete(t *testing.T) {
	tracker := workflow.NewTracker(nil, nil)
	ctx := context.Background()

	rec, err := tracker.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("record must have an identifier")
	}
	if rec.Status != workflow.StatusCreated {
		t.Fatalf("status = %q", rec.Status)
	}

	if err := tracker.Complete(ctx, rec.ID, workflow.StatusSuccess, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, ok := tracker.Get(rec.ID)
	if !ok {
		t.Fatal("record missing after completion")
	}
	if got.Status != workflow.StatusSuccess || got.CompletedAt == nil {
		t.Fatalf("unexpected record: %+v", got)
	}

	stats := tracker.Stats()
	if stats.Total != 1 || stats.Success != 1 || stats.Active != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestTrackerAssignsUniqueIDs(t *testing.T) {
	tracker := workflow.NewTracker(nil, nil)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		rec, err := tracker.Create(ctx)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, dup := seen[rec.ID]; dup {
			t.Fatalf("duplicate workflow id %q", rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
}

func TestTrackerRejectsNonTerminalCompletion(t *testing.T) {
	tracker := workflow.NewTracker(nil, nil)
	ctx := context.Background()

	rec, err := tracker.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = tracker.Complete(ctx, rec.ID, workflow.StatusCreated, "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTrackerRejectsDoubleCompletion(t *testing.T) {
	tracker := workflow.NewTracker(nil, nil)
	ctx := context.Background()

	rec, err := tracker.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := tracker.Complete(ctx, rec.ID, workflow.StatusError, "boom"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := tracker.Complete(ctx, rec.ID, workflow.StatusSuccess, ""); err == nil {
		t.Fatal("second completion must fail")
	}
}

func TestTrackerCompleteUnknownID(t *testing.T) {
	tracker := workflow.NewTracker(nil, nil)
	err := tracker.Complete(context.Background(), "missing", workflow.StatusSuccess, "")
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTrackerWritesThroughToStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	tracker := workflow.NewTracker(store, nil)
	ctx := context.Background()

	rec, err := tracker.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := tracker.Complete(ctx, rec.ID, workflow.StatusSuccess, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	persisted, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Status != workflow.StatusSuccess || persisted.CompletedAt == nil {
		t.Fatalf("unexpected persisted record: %+v", persisted)
	}
}

func TestTrackerConcurrentLifecycle(t *testing.T) {
	tracker := workflow.NewTracker(nil, nil)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			rec, err := tracker.Create(ctx)
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			status := workflow.StatusSuccess
			if n%4 == 0 {
				status = workflow.StatusError
			}
			if err := tracker.Complete(ctx, rec.ID, status, ""); err != nil {
				t.Errorf("Complete: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stats := tracker.Stats()
	if stats.Total != workers {
		t.Fatalf("total = %d, want %d", stats.Total, workers)
	}
	if stats.Active != 0 {
		t.Fatalf("active = %d, want 0", stats.Active)
	}
	if stats.Success+stats.Error != workers {
		t.Fatalf("terminal counts %d+%d do not sum to %d", stats.Success, stats.Error, workers)
	}
}
