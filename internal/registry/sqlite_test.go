package registry

import (
	"context"
	"path/filepath"
	"testing"
)

func newMigratedSQLite(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		return newMigratedSQLite(t, ":memory:")
	})
}

func TestSQLiteStore_CheckMigrations(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	if err := s.CheckMigrations(); err == nil {
		t.Error("CheckMigrations() expected error before Migrate")
	}
	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := s.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v after Migrate", err)
	}
}

func TestSQLiteStore_PersistsNotes(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")
	s := newMigratedSQLite(t, path)

	rec := validRecord()
	rec.Notes = "re-issued after name correction"
	if err := s.Add(ctx, rec); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := s.FindByDigest(ctx, rec.Digest)
	if err != nil {
		t.Fatalf("FindByDigest() error = %v", err)
	}
	if got == nil {
		t.Fatal("FindByDigest() = nil, want record")
	}
	if got.Notes != rec.Notes {
		t.Errorf("Notes = %q, want %q", got.Notes, rec.Notes)
	}
}

func TestSQLStore_Bind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"

	lite := &sqlStore{dialect: "sqlite3"}
	if got := lite.bind(q); got != q {
		t.Errorf("sqlite bind() = %q, want unchanged", got)
	}

	pg := &sqlStore{dialect: "postgres"}
	want := "SELECT a FROM t WHERE b = $1 AND c = $2"
	if got := pg.bind(q); got != want {
		t.Errorf("postgres bind() = %q, want %q", got, want)
	}
}
