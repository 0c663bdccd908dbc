package testutil

import (
	"context"
	"testing"

	"certcheck/internal/certcheck"
	"certcheck/internal/registry"
)

// NewTestRegistry creates a migrated in-memory SQLite registry holding
// records in order. It is closed automatically when the test completes.
func NewTestRegistry(t *testing.T, records ...certcheck.Record) *registry.SQLiteStore {
	t.Helper()

	s, err := registry.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test registry: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("migrating test registry: %v", err)
	}
	for _, rec := range records {
		if err := s.Add(context.Background(), rec); err != nil {
			t.Fatalf("seeding test registry: %v", err)
		}
	}
	return s
}
