package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsEnforcer enforces robots.txt directives per host. robots.txt bodies are
// fetched through the same Fetcher as articles so they share the client
// identity and transport, then cached for the life of the run.
type RobotsEnforcer struct {
	fetcher Fetcher
	limiter HostLimiter
	agent   string
	logger  *zap.Logger
	cache   sync.Map
	loads   sync.Map
}

// NewRobotsEnforcer builds a RobotsPolicy respecting the config toggle.
// Groups are matched against agent, the configured fixed identity, even when
// requests rotate identities. A non-nil limiter spaces the robots.txt request
// from the article requests to the same host.
func NewRobotsEnforcer(respect bool, fetcher Fetcher, limiter HostLimiter, agent string, logger *zap.Logger) RobotsPolicy {
	if !respect {
		return &allowAllPolicy{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RobotsEnforcer{
		fetcher: fetcher,
		limiter: limiter,
		agent:   agent,
		logger:  logger,
	}
}

// Allowed implements RobotsPolicy. A robots.txt that cannot be fetched allows
// the URL; an unparseable target URL is refused.
func (r *RobotsEnforcer) Allowed(ctx context.Context, rawURL string) bool {
	if r == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	if IsRobotsURL(rawURL) {
		return true
	}
	data, err := r.load(ctx, parsed)
	if err != nil {
		r.logger.Warn("robots fetch failed; allowing access", zap.String("host", parsed.Host), zap.Error(err))
		return true
	}
	return data.TestAgent(requestPath(parsed), r.agent)
}

func (r *RobotsEnforcer) load(ctx context.Context, parsed *url.URL) (*robotstxt.RobotsData, error) {
	hostKey := HostOf(parsed.String())
	if data, ok := r.cache.Load(hostKey); ok {
		cached, assertOK := data.(*robotstxt.RobotsData)
		if !assertOK {
			return nil, fmt.Errorf("robots cache type mismatch: %T", data)
		}
		return cached, nil
	}

	// One fetch per host even when several streams ask at once.
	muAny, _ := r.loads.LoadOrStore(hostKey, &sync.Mutex{})
	mu, _ := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	if data, ok := r.cache.Load(hostKey); ok {
		if cached, assertOK := data.(*robotstxt.RobotsData); assertOK {
			return cached, nil
		}
	}

	robotsURL, err := RobotsURL(parsed.String())
	if err != nil {
		return nil, err
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, robotsURL); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req := FetchRequest{URL: robotsURL, Headers: http.Header{}}
	resp, err := r.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	r.cache.Store(hostKey, data)
	return data, nil
}

func requestPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

type allowAllPolicy struct{}

func (a *allowAllPolicy) Allowed(context.Context, string) bool { return true }
