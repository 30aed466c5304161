package crawler

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// stubFetcher serves canned responses keyed by URL.
type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]FetchResponse
	errs      map[string]error
	calls     map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		responses: make(map[string]FetchResponse),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (s *stubFetcher) respond(url string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[url] = FetchResponse{URL: url, StatusCode: status, Headers: http.Header{}, Body: []byte(body)}
}

func (s *stubFetcher) fail(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[url] = err
}

func (s *stubFetcher) Fetch(_ context.Context, req FetchRequest) (FetchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[req.URL]++
	if err, ok := s.errs[req.URL]; ok {
		return FetchResponse{}, err
	}
	if resp, ok := s.responses[req.URL]; ok {
		return resp, nil
	}
	return FetchResponse{URL: req.URL, StatusCode: http.StatusNotFound, Headers: http.Header{}}, nil
}

func (s *stubFetcher) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

// lookupStore answers Exists from a fixed set.
type lookupStore struct {
	stored map[string]bool
	err    error
}

func (l *lookupStore) Open(context.Context) error { return nil }

func (l *lookupStore) Exists(_ context.Context, url string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.stored[url], nil
}

func (l *lookupStore) Insert(context.Context, ArticleRecord) error {
	return errors.New("not implemented")
}

func (l *lookupStore) Close(context.Context) error { return nil }
