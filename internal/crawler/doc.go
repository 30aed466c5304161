// Package crawler implements the article crawl pipeline: seed loading,
// per-host scheduling, robots.txt and dedup gating, origin status validation,
// and hand-off of extracted records to the configured store.
package crawler
