package crawler

import (
	"net/http"
	"time"
)

// Sentinel values substituted for absent page fields.
const (
	// HeadlineNotFound is stored when the page carries no headline.
	HeadlineNotFound = "not-found"
	// DecorativeImageAlt marks separator images that are never recorded.
	DecorativeImageAlt = "line"
)

// ArticleRecord is the normalized document persisted for one article page.
// It is built once per validated fetch and never mutated afterwards.
type ArticleRecord struct {
	URL       string     `json:"url" bson:"url"`
	CreatedAt CreatedAt  `json:"createdAt" bson:"createdAt"`
	Headline  string     `json:"headline" bson:"headline"`
	Authors   [][]string `json:"authors" bson:"authors"`
	Text      string     `json:"text" bson:"text"`
	Images    []Image    `json:"images" bson:"images"`
	Tags      []string   `json:"tags" bson:"tags"`
}

// CreatedAt keeps the raw page timestamp next to its decomposed parts. The
// derived fields are either all set or all empty (nil / "").
type CreatedAt struct {
	ISODatetime string `json:"isoDatetime" bson:"isoDatetime"`
	Year        *int   `json:"year" bson:"year"`
	Month       *int   `json:"month" bson:"month"`
	Day         *int   `json:"day" bson:"day"`
	Time        string `json:"time" bson:"time"`
}

// Decomposed reports whether the derived date fields are populated.
func (c CreatedAt) Decomposed() bool {
	return c.Year != nil && c.Month != nil && c.Day != nil && c.Time != ""
}

// Image references one non-decorative picture embedded in the article text
// through an "@<Ref>" marker.
type Image struct {
	Ref         string  `json:"ref" bson:"ref"`
	Source      *string `json:"source" bson:"source"`
	Description *string `json:"description" bson:"description"`
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Outcome classifies how the pipeline finished with one URL.
type Outcome string

// Pipeline outcomes counted per run.
const (
	OutcomeStored      Outcome = "stored"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeRejected    Outcome = "rejected"
	OutcomeDisallowed  Outcome = "disallowed"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeStoreFailed Outcome = "store_failed"
)

// Result is what Pipeline.Process reports for a single URL. Err carries the
// classified cause for every outcome except OutcomeStored.
type Result struct {
	URL     string
	Outcome Outcome
	Err     error
	Record  *ArticleRecord
	Bytes   int
}

// Summary aggregates the results of one scheduler run.
type Summary struct {
	RunID      string
	Counts     map[Outcome]int
	Dispatched int
	Skipped    int
	Elapsed    time.Duration
}

// Count returns the number of URLs that finished with outcome o.
func (s Summary) Count(o Outcome) int {
	return s.Counts[o]
}
