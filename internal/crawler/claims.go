package crawler

import "sync"

// claimSet records URLs accepted for processing during a single run so a URL
// repeated in the seed list is fetched at most once.
type claimSet struct {
	seen sync.Map
}

func newClaimSet() *claimSet {
	return &claimSet{}
}

// Claim stores the URL if it has not been seen before and returns true.
func (c *claimSet) Claim(url string) bool {
	if url == "" {
		return false
	}
	_, loaded := c.seen.LoadOrStore(url, struct{}{})
	return !loaded
}
