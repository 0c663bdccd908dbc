package registry

import (
	"context"
	"fmt"

	"certcheck/internal/config"
)

// Migrator is implemented by stores with a managed schema.
type Migrator interface {
	Migrate() error
	CheckMigrations() error
}

var (
	_ Migrator = (*SQLiteStore)(nil)
	_ Migrator = (*PostgresStore)(nil)
)

// NewStoreFromConfig creates a Store based on the registry config type.
// SQL stores are returned unmigrated; callers check or apply migrations
// through Migrator.
func NewStoreFromConfig(ctx context.Context, cfg config.RegistryConfig) (Store, error) {
	switch cfg.Type {
	case "memory", "":
		if cfg.Seed {
			return NewMemory(DemoRecords()...), nil
		}
		return NewMemory(), nil
	case "json":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for json registry")
		}
		s, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite registry")
		}
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres registry")
		}
		s, err := NewPostgresStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		snap, err := NewS3Snapshot(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s, err := snap.Load(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis_url required for redis registry")
		}
		s, err := NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown registry type: %q", cfg.Type)
	}
}
