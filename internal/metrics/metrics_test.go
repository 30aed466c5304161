package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestObservePage(t *testing.T) {
	Init()
	Init()

	stored := crawlerPagesTotal.WithLabelValues("news.example", "stored")
	before := testutil.ToFloat64(stored)
	bytesBefore := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues("news.example"))

	ObservePage("https://News.Example/articles/1", "stored", 512)
	ObservePage("https://news.example/articles/2", "duplicate", 0)

	if got := testutil.ToFloat64(stored); got != before+1 {
		t.Errorf("stored counter = %f; want %f", got, before+1)
	}
	if got := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues("news.example")); got != bytesBefore+512 {
		t.Errorf("bytes counter = %f; want %f", got, bytesBefore+512)
	}
}

func TestObserveSideEffectFailure(t *testing.T) {
	Init()
	counter := crawlerSideEffectFailures.WithLabelValues("publish")
	before := testutil.ToFloat64(counter)

	ObserveSideEffectFailure("publish")

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("publish failures = %f; want %f", got, before+1)
	}
}

func TestActiveStreamsGauge(t *testing.T) {
	Init()
	before := testutil.ToFloat64(crawlerActiveStreams)
	IncActiveStreams()
	IncActiveStreams()
	DecActiveStreams()
	if got := testutil.ToFloat64(crawlerActiveStreams); got != before+1 {
		t.Errorf("active streams = %f; want %f", got, before+1)
	}
	DecActiveStreams()
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
