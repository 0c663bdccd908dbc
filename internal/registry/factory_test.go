package registry

import (
	"context"
	"path/filepath"
	"testing"

	"certcheck/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded memory registry", func(t *testing.T) {
		got, err := NewStoreFromConfig(ctx, config.RegistryConfig{Type: "memory", Seed: true})
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer got.Close()

		recs, _ := got.List(ctx)
		if len(recs) != 3 {
			t.Errorf("len(List()) = %d, want 3", len(recs))
		}
	})

	t.Run("json registry", func(t *testing.T) {
		cfg := config.RegistryConfig{Type: "json", Path: filepath.Join(t.TempDir(), "r.json")}
		got, err := NewStoreFromConfig(ctx, cfg)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		if _, ok := got.(*FileStore); !ok {
			t.Errorf("NewStoreFromConfig() = %T, want *FileStore", got)
		}
	})

	t.Run("sqlite registry", func(t *testing.T) {
		cfg := config.RegistryConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "r.db")}
		got, err := NewStoreFromConfig(ctx, cfg)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer got.Close()
		if _, ok := got.(Migrator); !ok {
			t.Errorf("NewStoreFromConfig() = %T, want a Migrator", got)
		}
	})

	errorCases := []struct {
		name string
		cfg  config.RegistryConfig
	}{
		{"json without path", config.RegistryConfig{Type: "json"}},
		{"sqlite without path", config.RegistryConfig{Type: "sqlite"}},
		{"postgres without dsn", config.RegistryConfig{Type: "postgres"}},
		{"s3 without bucket", config.RegistryConfig{Type: "s3", S3Key: "records.json"}},
		{"redis without url", config.RegistryConfig{Type: "redis"}},
		{"unknown type", config.RegistryConfig{Type: "ldap"}},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(ctx, tt.cfg)
			if err == nil {
				t.Error("NewStoreFromConfig() expected error, got nil")
			}
			if got != nil {
				t.Error("NewStoreFromConfig() should return nil on error")
				got.Close()
			}
		})
	}
}
