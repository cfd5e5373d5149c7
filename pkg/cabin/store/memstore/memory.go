package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/brunoga/deep"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
	"github.com/cognicore/cabin/pkg/cabin/internalerr"
	"github.com/cognicore/cabin/pkg/cabin/normalize"
	"github.com/cognicore/cabin/pkg/cabin/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	catalog  *catalog.Catalog
	tables   map[string][]normalize.Entry
	records  []store.Record
	recordID map[string]bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		tables:   make(map[string][]normalize.Entry),
		recordID: make(map[string]bool),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveCatalog stores c. Catalogs are immutable so it is kept as is.
func (s *Store) SaveCatalog(ctx context.Context, c *catalog.Catalog) error {
	if c == nil {
		return fmt.Errorf("save nil catalog: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
	return nil
}

// LoadCatalog returns the stored catalog.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return nil, fmt.Errorf("catalog: %w", internalerr.ErrNotFound)
	}
	return s.catalog, nil
}

// SaveTable replaces the named table.
func (s *Store) SaveTable(ctx context.Context, name string, entries []normalize.Entry) error {
	if name == "" {
		return fmt.Errorf("table without name: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = copyEntries(entries)
	return nil
}

// LoadTable returns the named table.
func (s *Store) LoadTable(ctx context.Context, name string) ([]normalize.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, internalerr.ErrNotFound)
	}
	return copyEntries(entries), nil
}

// AppendRecord adds r to the journal. IDs must be unique.
func (s *Store) AppendRecord(ctx context.Context, r store.Record) error {
	if r.ID == "" {
		return fmt.Errorf("record without id: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordID[r.ID] {
		return fmt.Errorf("record %s: %w", r.ID, internalerr.ErrDuplicate)
	}
	s.recordID[r.ID] = true
	s.records = append(s.records, copyRecord(r))
	return nil
}

// RecentRecords returns up to k records, newest first.
func (s *Store) RecentRecords(ctx context.Context, k int) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || k > len(s.records) {
		k = len(s.records)
	}
	out := make([]store.Record, 0, k)
	for i := len(s.records) - 1; i >= 0 && len(out) < k; i-- {
		out = append(out, copyRecord(s.records[i]))
	}
	return out, nil
}

func copyEntries(in []normalize.Entry) []normalize.Entry {
	out := make([]normalize.Entry, len(in))
	for i, e := range in {
		out[i] = normalize.Entry{Canonical: e.Canonical, Aliases: append([]string(nil), e.Aliases...)}
	}
	return out
}

// Time holds a *Location, so only the slices and maps are deep-copied.
func copyRecord(r store.Record) store.Record {
	cp := r
	cp.Entities = deep.MustCopy(r.Entities)
	cp.Changes = deep.MustCopy(r.Changes)
	cp.Statuses = deep.MustCopy(r.Statuses)
	return cp
}
