package crawler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"sjsage522/pricescout/helpers"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// mockFetcher serves canned pages keyed by URL
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]*helpers.Page
	errs  map[string]error
	calls []string
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		pages: make(map[string]*helpers.Page),
		errs:  make(map[string]error),
	}
}

func (f *mockFetcher) serve(url, body string) *mockFetcher {
	return f.redirect(url, url, body)
}

func (f *mockFetcher) redirect(url, finalURL, body string) *mockFetcher {
	f.pages[url] = &helpers.Page{Body: []byte(body), URL: url, FinalURL: finalURL, StatusCode: 200}
	return f
}

func (f *mockFetcher) fail(url string, err error) *mockFetcher {
	f.errs[url] = err
	return f
}

func (f *mockFetcher) Fetch(_ context.Context, url string) (*helpers.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return nil, &mockError{message: "no page for " + url}
}

func parseDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func newTestPage(t *testing.T, url, markup string) *Page {
	t.Helper()
	return NewPage(parseDoc(t, markup), url, url)
}
