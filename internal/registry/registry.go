// Package registry provides the known-good certificate records the engine
// cross-checks against, backed by memory, a JSON file, SQLite, Postgres,
// Redis, or an S3 snapshot.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"certcheck/internal/certcheck"
	"certcheck/internal/digest"
	"certcheck/internal/identifier"
)

var (
	// ErrReadOnly is returned by Add on sources that are snapshots of another store.
	ErrReadOnly = errors.New("registry source is read-only")
	// ErrDuplicate is returned by Add when a record with the same
	// certificate number and digest already exists.
	ErrDuplicate = errors.New("record already registered")
	// ErrInvalidRecord wraps validation failures from Normalize.
	ErrInvalidRecord = errors.New("invalid record")
)

// Store is a registry source with an administrative write side.
// Lookups return records in a stable order: insertion order.
type Store interface {
	certcheck.Registry
	Add(ctx context.Context, rec certcheck.Record) error
	List(ctx context.Context) ([]certcheck.Record, error)
	Close() error
}

// Normalize validates rec for registration and returns it in canonical form:
// uppercase certificate number, lowercase digest, trimmed text fields.
func Normalize(rec certcheck.Record) (certcheck.Record, error) {
	rec.Identifier = strings.ToUpper(strings.TrimSpace(rec.Identifier))
	rec.Digest = strings.ToLower(strings.TrimSpace(rec.Digest))
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Institution = strings.TrimSpace(rec.Institution)
	rec.Course = strings.TrimSpace(rec.Course)
	rec.Notes = strings.TrimSpace(rec.Notes)

	switch {
	case !identifier.Valid(rec.Identifier):
		return rec, fmt.Errorf("%w: certificate number %q is not of the form JH-XX-YYYY-NNNNNN", ErrInvalidRecord, rec.Identifier)
	case !digest.Valid(rec.Digest):
		return rec, fmt.Errorf("%w: digest must be %d hex characters", ErrInvalidRecord, digest.Size)
	case rec.Name == "":
		return rec, fmt.Errorf("%w: holder name is required", ErrInvalidRecord)
	case rec.Institution == "":
		return rec, fmt.Errorf("%w: institution is required", ErrInvalidRecord)
	case rec.Year < 1900 || rec.Year > 2100:
		return rec, fmt.Errorf("%w: year %d out of range", ErrInvalidRecord, rec.Year)
	}
	return rec, nil
}

// DemoRecords returns the records a fresh demo registry is seeded with.
// The first record's digest is that of empty content; the other two share a
// certificate number to exercise clone detection.
func DemoRecords() []certcheck.Record {
	return []certcheck.Record{
		{
			Identifier:  "JH-NU-2019-000123",
			Digest:      digest.Bytes(nil),
			Name:        "Aarav Kumar",
			Institution: "Nilamber-Pitamber University",
			Course:      "B.Sc",
			Year:        2019,
		},
		{
			Identifier:  "JH-RU-2021-004567",
			Digest:      strings.Repeat("a", digest.Size),
			Name:        "Ishita Singh",
			Institution: "Ranchi University",
			Course:      "B.Tech",
			Year:        2021,
		},
		{
			Identifier:  "JH-RU-2021-004567",
			Digest:      strings.Repeat("b", digest.Size),
			Name:        "Ishita Singh",
			Institution: "Ranchi University",
			Course:      "B.Tech",
			Year:        2021,
		},
	}
}

// Import normalizes and adds each record to s, skipping exact duplicates.
// It returns the number of records added.
func Import(ctx context.Context, s Store, records []certcheck.Record) (int, error) {
	added := 0
	for i, rec := range records {
		n, err := Normalize(rec)
		if err != nil {
			return added, fmt.Errorf("record %d: %w", i, err)
		}
		if err := s.Add(ctx, n); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return added, fmt.Errorf("record %d: %w", i, err)
		}
		added++
	}
	return added, nil
}
