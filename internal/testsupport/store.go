package testsupport

import (
	"context"
	"testing"

	"shuttle/internal/catalog"
	"shuttle/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProject creates a project row for tests using the provided store.
func NewProject(t testing.TB, store *catalog.Store, name string) *catalog.Project {
	t.Helper()

	project, err := store.CreateProject(context.Background(), name)
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	return project
}
