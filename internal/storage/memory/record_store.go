package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/news-article-crawler/internal/crawler"
)

// RecordStore keeps ArticleRecords in process memory, keyed by URL. It backs
// dry runs and tests.
type RecordStore struct {
	mu      sync.RWMutex
	open    bool
	records map[string]crawler.ArticleRecord
	order   []string
	opens   int
	closes  int
}

var _ crawler.RecordStore = (*RecordStore)(nil)

// NewRecordStore constructs an empty RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]crawler.ArticleRecord)}
}

// Seed stores records without going through Insert, for pre-populating runs.
func (s *RecordStore) Seed(records ...crawler.ArticleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, ok := s.records[r.URL]; !ok {
			s.order = append(s.order, r.URL)
		}
		s.records[r.URL] = r
	}
}

// Open marks the store usable.
func (s *RecordStore) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.opens++
	return nil
}

// Exists reports whether url has a stored record.
func (s *RecordStore) Exists(_ context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return false, errors.New("record store is not open")
	}
	_, ok := s.records[url]
	return ok, nil
}

// Insert stores record unless its URL is already present.
func (s *RecordStore) Insert(_ context.Context, record crawler.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return errors.New("record store is not open")
	}
	if _, ok := s.records[record.URL]; ok {
		return fmt.Errorf("%w: %s", crawler.ErrDuplicateURL, record.URL)
	}
	s.records[record.URL] = record
	s.order = append(s.order, record.URL)
	return nil
}

// Close marks the store closed. Records are kept for inspection.
func (s *RecordStore) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.closes++
	return nil
}

// Get returns the record stored for url.
func (s *RecordStore) Get(url string) (crawler.ArticleRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[url]
	return r, ok
}

// Records returns stored records in insertion order.
func (s *RecordStore) Records() []crawler.ArticleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.ArticleRecord, 0, len(s.order))
	for _, url := range s.order {
		out = append(out, s.records[url])
	}
	return out
}

// Lifecycle reports how many times Open and Close were called.
func (s *RecordStore) Lifecycle() (opens, closes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opens, s.closes
}
