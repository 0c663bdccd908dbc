package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"certcheck/internal/certcheck"
	"certcheck/internal/registry/migrations"
)

const recordColumns = "certificate_number, digest, holder_name, institution, course, year, notes"

// sqlStore implements Store over database/sql. Queries are written with '?'
// placeholders and rebound for the dialect. Rows are ordered by id, which is
// insertion order.
type sqlStore struct {
	db          *sql.DB
	dialect     migrations.Dialect
	isDuplicate func(error) bool
}

func (s *sqlStore) bind(query string) string {
	if s.dialect != migrations.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CheckMigrations reports whether the schema is at the latest version.
func (s *sqlStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, s.dialect)
}

// Migrate applies pending schema migrations.
func (s *sqlStore) Migrate() error {
	return migrations.MigrateUp(s.db, s.dialect)
}

func (s *sqlStore) FindByDigest(ctx context.Context, d string) (*certcheck.Record, error) {
	row := s.db.QueryRowContext(ctx, s.bind(
		"SELECT "+recordColumns+" FROM registry_records WHERE digest = ? ORDER BY id LIMIT 1"), d)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding record by digest: %w", err)
	}
	return rec, nil
}

func (s *sqlStore) FindByIdentifier(ctx context.Context, id string) ([]certcheck.Record, error) {
	return s.query(ctx, "SELECT "+recordColumns+" FROM registry_records WHERE certificate_number = ? ORDER BY id", id)
}

func (s *sqlStore) List(ctx context.Context) ([]certcheck.Record, error) {
	return s.query(ctx, "SELECT "+recordColumns+" FROM registry_records ORDER BY id")
}

func (s *sqlStore) Add(ctx context.Context, rec certcheck.Record) error {
	_, err := s.db.ExecContext(ctx, s.bind(
		"INSERT INTO registry_records ("+recordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)"),
		rec.Identifier, rec.Digest, rec.Name, rec.Institution, rec.Course, rec.Year, rec.Notes)
	if err != nil {
		if s.isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) query(ctx context.Context, query string, args ...any) ([]certcheck.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []certcheck.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*certcheck.Record, error) {
	var rec certcheck.Record
	if err := sc.Scan(&rec.Identifier, &rec.Digest, &rec.Name, &rec.Institution, &rec.Course, &rec.Year, &rec.Notes); err != nil {
		return nil, err
	}
	return &rec, nil
}
