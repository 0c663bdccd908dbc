package registry

import (
	"context"
	"sync"

	"certcheck/internal/certcheck"
)

// Memory is an in-process Store. Records keep insertion order.
// Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	records  []certcheck.Record
	readOnly bool
}

var _ Store = (*Memory)(nil)

// NewMemory creates a Memory store holding records in the given order.
func NewMemory(records ...certcheck.Record) *Memory {
	return &Memory{records: append([]certcheck.Record(nil), records...)}
}

// newSnapshot creates a Memory store that rejects Add.
func newSnapshot(records []certcheck.Record) *Memory {
	m := NewMemory(records...)
	m.readOnly = true
	return m
}

func (m *Memory) FindByDigest(_ context.Context, d string) (*certcheck.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.records {
		if m.records[i].Digest == d {
			rec := m.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindByIdentifier(_ context.Context, id string) ([]certcheck.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []certcheck.Record
	for _, rec := range m.records {
		if rec.Identifier == id {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) Add(_ context.Context, rec certcheck.Record) error {
	if m.readOnly {
		return ErrReadOnly
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.Identifier == rec.Identifier && r.Digest == rec.Digest {
			return ErrDuplicate
		}
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) List(_ context.Context) ([]certcheck.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]certcheck.Record(nil), m.records...), nil
}

func (m *Memory) Close() error { return nil }
