package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"certcheck/internal/certcheck"
)

// FileStore keeps the registry as a JSON array on disk and serves lookups
// from memory. Add rewrites the file atomically.
type FileStore struct {
	mu   sync.Mutex // serializes writes to path
	path string
	mem  *Memory
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads path. A missing file is an empty registry. Loaded
// records are normalized; an invalid record is an error.
func NewFileStore(path string) (*FileStore, error) {
	records, err := readRecordsFile(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, mem: NewMemory(records...)}, nil
}

func readRecordsFile(path string) ([]certcheck.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening registry file: %w", err)
	}
	defer f.Close()

	records, err := DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("reading registry file %s: %w", path, err)
	}
	records, err = normalizeAll(records)
	if err != nil {
		return nil, fmt.Errorf("reading registry file %s: %w", path, err)
	}
	return records, nil
}

// normalizeAll brings hand-edited records into canonical form so lookups
// by uppercase identifier and lowercase digest find them. A record that
// cannot be normalized fails the whole load.
func normalizeAll(records []certcheck.Record) ([]certcheck.Record, error) {
	for i, rec := range records {
		n, err := Normalize(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records[i] = n
	}
	return records, nil
}

// DecodeRecords reads a JSON array of records.
func DecodeRecords(r io.Reader) ([]certcheck.Record, error) {
	var records []certcheck.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}

// EncodeRecords writes records as an indented JSON array.
func EncodeRecords(w io.Writer, records []certcheck.Record) error {
	if records == nil {
		records = []certcheck.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return nil
}

func (s *FileStore) FindByDigest(ctx context.Context, d string) (*certcheck.Record, error) {
	return s.mem.FindByDigest(ctx, d)
}

func (s *FileStore) FindByIdentifier(ctx context.Context, id string) ([]certcheck.Record, error) {
	return s.mem.FindByIdentifier(ctx, id)
}

func (s *FileStore) List(ctx context.Context) ([]certcheck.Record, error) {
	return s.mem.List(ctx)
}

func (s *FileStore) Add(ctx context.Context, rec certcheck.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.mem.List(ctx)
	for _, r := range records {
		if r.Identifier == rec.Identifier && r.Digest == rec.Digest {
			return ErrDuplicate
		}
	}
	if err := s.write(append(records, rec)); err != nil {
		return err
	}
	return s.mem.Add(ctx, rec)
}

func (s *FileStore) write(records []certcheck.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("creating temp registry file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := EncodeRecords(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp registry file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing registry file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
