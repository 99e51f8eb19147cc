package testsupport

import (
	"testing"

	"aura/internal/config"
	"aura/internal/workflow"
)

// MustOpenStore opens a workflow.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *workflow.Store {
	t.Helper()

	store, err := workflow.Open(cfg)
	if err != nil {
		t.Fatalf("workflow.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
