package index

import (
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Document field names shared by the builder, the synchronizer and the query
// planner.
const (
	FieldType        = "type"
	FieldCategoryID  = "category_id"
	FieldSectorID    = "sector_id"
	FieldTags        = "tags"
	FieldURL         = "url"
	FieldContent     = "content"
	FieldPrice       = "price"
	FieldDate        = "date"
	FieldTitle       = "title"
	FieldCreatedAt   = "created_at"
	FieldPublishedAt = "published_at"
	FieldUpdatedAt   = "updated_at"

	// DocType distinguishes announce documents in case the index directory is
	// ever shared with another document source.
	DocType = "announce"
)

// Store owns the bleve index artifact. The instance behind Index() changes
// when Reset recreates the index, so callers must not hold on to it across
// operations.
type Store struct {
	mu   sync.RWMutex
	path string
	idx  bleve.Index
}

// Open opens the index at path, creating it if absent. The returned bool is
// true when a fresh index was created, which callers use to trigger an initial
// full rebuild.
func Open(path string) (*Store, bool, error) {
	idx, err := bleve.Open(path)
	if err == nil {
		return &Store{path: path, idx: idx}, false, nil
	}
	if err != bleve.ErrorIndexPathDoesNotExist {
		return nil, false, fmt.Errorf("index.Open: failed to open index at %s: %w", path, err)
	}
	idx, err = bleve.New(path, buildMapping())
	if err != nil {
		return nil, false, fmt.Errorf("index.Open: failed to create index at %s: %w", path, err)
	}
	return &Store{path: path, idx: idx}, true, nil
}

// OpenMem creates a memory-only index, used by tests.
func OpenMem() (*Store, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("index.OpenMem: %w", err)
	}
	return &Store{idx: idx}, nil
}

func (s *Store) Index() bleve.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx
}

// Reset discards the current index and recreates it empty. Used by full
// rebuilds.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.idx.Close(); err != nil {
		return fmt.Errorf("index.Reset: failed to close index: %w", err)
	}
	if s.path == "" {
		idx, err := bleve.NewMemOnly(buildMapping())
		if err != nil {
			return fmt.Errorf("index.Reset: %w", err)
		}
		s.idx = idx
		return nil
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("index.Reset: failed to remove index at %s: %w", s.path, err)
	}
	idx, err := bleve.New(s.path, buildMapping())
	if err != nil {
		return fmt.Errorf("index.Reset: failed to recreate index at %s: %w", s.path, err)
	}
	s.idx = idx
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Close()
}

func buildMapping() mapping.IndexMapping {
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name

	text := bleve.NewTextFieldMapping()

	num := bleve.NewNumericFieldMapping()
	date := bleve.NewDateTimeFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(FieldType, exact)
	doc.AddFieldMappingsAt(FieldCategoryID, exact)
	doc.AddFieldMappingsAt(FieldSectorID, exact)
	doc.AddFieldMappingsAt(FieldTags, exact)
	doc.AddFieldMappingsAt(FieldURL, exact)
	doc.AddFieldMappingsAt(FieldTitle, exact)
	doc.AddFieldMappingsAt(FieldContent, text)
	doc.AddFieldMappingsAt(FieldPrice, num)
	doc.AddFieldMappingsAt(FieldDate, date)
	doc.AddFieldMappingsAt(FieldCreatedAt, date)
	doc.AddFieldMappingsAt(FieldPublishedAt, date)
	doc.AddFieldMappingsAt(FieldUpdatedAt, date)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}
