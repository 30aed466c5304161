package crawler

import (
	"context"
	"fmt"
)

// RequestDeduplicator gates a URL against the run's claims and the record
// store. The store lookup is a pre-check only; the store's unique URL key
// settles races between concurrent fetches of the same URL.
type RequestDeduplicator struct {
	store  RecordStore
	claims *claimSet
}

// NewRequestDeduplicator returns a deduplicator reading from store.
func NewRequestDeduplicator(store RecordStore) *RequestDeduplicator {
	return &RequestDeduplicator{store: store, claims: newClaimSet()}
}

// Admit returns nil when url should be fetched. It wraps ErrDuplicateURL when
// the URL was already claimed in this run or is already stored, and
// ErrStorage when the lookup itself fails.
func (d *RequestDeduplicator) Admit(ctx context.Context, url string) error {
	if !d.claims.Claim(url) {
		return fmt.Errorf("%w: %s seen earlier in this run", ErrDuplicateURL, url)
	}
	exists, err := d.store.Exists(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: lookup %s: %w", ErrStorage, url, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateURL, url)
	}
	return nil
}
