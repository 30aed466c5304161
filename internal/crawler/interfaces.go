package crawler

import (
	"context"
	"io"
)

// Fetcher fetches a URL and returns the body plus metadata. Any HTTP status is
// a successful fetch; errors are reserved for transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// RecordStore is the article document store. Open and Close bracket a crawl
// run; the same handle serves the dedup lookup and the insert.
type RecordStore interface {
	Open(ctx context.Context) error
	Exists(ctx context.Context, url string) (bool, error)
	// Insert returns an error wrapping ErrDuplicateURL when a record with the
	// same URL is already stored.
	Insert(ctx context.Context, record ArticleRecord) error
	Close(ctx context.Context) error
}

// Extractor converts a validated page into an ArticleRecord.
type Extractor interface {
	Extract(pageURL string, body []byte) ArticleRecord
}

// ErrorSink durably records URLs rejected by the response validator.
type ErrorSink interface {
	Append(url string) error
	Close() error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RobotsPolicy decides whether robots.txt permits fetching a URL.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// HostLimiter blocks until the next request to the URL's host may be sent.
type HostLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// IdentityStrategy yields the client identity declared on outbound requests.
type IdentityStrategy interface {
	UserAgent() string
}

// Processor runs the full pipeline for one URL.
type Processor interface {
	Process(ctx context.Context, rawURL string) Result
}
