package crawler

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// DefaultUserAgent is the declared client identity when none is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36"

// Identity strategy names accepted by NewIdentityStrategy.
const (
	IdentityFixed   = "fixed"
	IdentityShuffle = "shuffle"
)

var desktopAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36 Edg/106.0.1370.42",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:105.0) Gecko/20100101 Firefox/105.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 12.6; rv:105.0) Gecko/20100101 Firefox/105.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:105.0) Gecko/20100101 Firefox/105.0",
}

// DesktopAgents returns a copy of the built-in browser identity pool.
func DesktopAgents() []string {
	out := make([]string, len(desktopAgents))
	copy(out, desktopAgents)
	return out
}

// FixedIdentity always declares the same client identity. The zero value
// declares DefaultUserAgent.
type FixedIdentity struct {
	Agent string
}

// UserAgent implements IdentityStrategy.
func (f FixedIdentity) UserAgent() string {
	if f.Agent == "" {
		return DefaultUserAgent
	}
	return f.Agent
}

// ShuffledIdentity picks a random identity from its pool on every request. The
// zero value draws from the built-in desktop pool.
type ShuffledIdentity struct {
	pool []string
}

// UserAgent implements IdentityStrategy.
func (s ShuffledIdentity) UserAgent() string {
	pool := s.pool
	if len(pool) == 0 {
		pool = desktopAgents
	}
	return pool[rand.IntN(len(pool))]
}

// NewIdentityStrategy returns the strategy named by kind. An empty agent falls
// back to DefaultUserAgent; an empty pool falls back to DesktopAgents.
func NewIdentityStrategy(kind, agent string, pool []string) (IdentityStrategy, error) {
	if strings.TrimSpace(agent) == "" {
		agent = DefaultUserAgent
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", IdentityFixed:
		return FixedIdentity{Agent: agent}, nil
	case IdentityShuffle:
		if len(pool) == 0 {
			pool = DesktopAgents()
		}
		return ShuffledIdentity{pool: pool}, nil
	default:
		return nil, fmt.Errorf("unknown user agent strategy %q", kind)
	}
}
