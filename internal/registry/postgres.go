package registry

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"certcheck/internal/registry/migrations"
)

// PostgresStore is a Store backed by a shared Postgres database, for
// deployments where several verifiers read one registry.
type PostgresStore struct {
	sqlStore
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects using a lib/pq DSN or URL. The schema is not
// migrated; call Migrate or CheckMigrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &PostgresStore{
		sqlStore: sqlStore{db: db, dialect: migrations.Postgres, isDuplicate: isPostgresDuplicate},
	}, nil
}

func isPostgresDuplicate(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}
