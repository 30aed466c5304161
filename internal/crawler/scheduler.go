package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/news-article-crawler/internal/metrics"
)

// SchedulerConfig bounds dispatch per host.
type SchedulerConfig struct {
	RunID string
	// PerHostConcurrency caps in-flight URLs per host. Values below 1 mean 1.
	PerHostConcurrency int
}

// Scheduler drives a seed list through a Processor with one dispatch stream
// per host. Within a host URLs are dispatched in seed order; different hosts
// proceed independently.
type Scheduler struct {
	processor Processor
	cfg       SchedulerConfig
	logger    *zap.Logger
}

// NewScheduler returns a scheduler dispatching to processor.
func NewScheduler(processor Processor, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if cfg.PerHostConcurrency < 1 {
		cfg.PerHostConcurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{processor: processor, cfg: cfg, logger: logger.Named("scheduler")}
}

// Run processes every seed and returns once all dispatched URLs have finished.
// Cancelling ctx stops further dispatch; URLs already handed to the processor
// are awaited.
func (s *Scheduler) Run(ctx context.Context, seeds []string) Summary {
	start := time.Now()
	summary := Summary{RunID: s.cfg.RunID, Counts: make(map[Outcome]int)}
	var mu sync.Mutex
	record := func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		summary.Counts[res.Outcome]++
	}

	hosts, order := groupByHost(seeds)
	s.logger.Info("Starting crawl",
		zap.String("run_id", s.cfg.RunID),
		zap.Int("seeds", len(seeds)),
		zap.Int("hosts", len(order)),
		zap.Int("per_host_concurrency", s.cfg.PerHostConcurrency))

	var dispatched atomic.Int64
	var g errgroup.Group
	for _, host := range order {
		urls := hosts[host]
		g.Go(func() error {
			dispatched.Add(int64(s.runHost(ctx, host, urls, record)))
			return nil
		})
	}
	_ = g.Wait()

	summary.Dispatched = int(dispatched.Load())
	summary.Skipped = len(seeds) - summary.Dispatched
	summary.Elapsed = time.Since(start)
	return summary
}

// runHost dispatches urls in order, holding one semaphore slot per in-flight
// URL. It returns the number of URLs handed to the processor.
func (s *Scheduler) runHost(ctx context.Context, host string, urls []string, record func(Result)) int {
	metrics.IncActiveStreams()
	defer metrics.DecActiveStreams()

	sem := semaphore.NewWeighted(int64(s.cfg.PerHostConcurrency))
	var wg sync.WaitGroup
	n := 0
	for _, u := range urls {
		err := ctx.Err()
		if err == nil {
			err = sem.Acquire(ctx, 1)
		}
		if err != nil {
			s.logger.Info("Dispatch cancelled", zap.String("host", host), zap.Int("remaining", len(urls)-n), zap.Error(err))
			break
		}
		n++
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer sem.Release(1)
			record(s.processor.Process(ctx, u))
		}(u)
	}
	wg.Wait()
	return n
}

// groupByHost buckets seeds by host, keeping seed order inside each bucket and
// first-seen order across buckets.
func groupByHost(seeds []string) (map[string][]string, []string) {
	hosts := make(map[string][]string)
	var order []string
	for _, u := range seeds {
		host := HostOf(u)
		if _, ok := hosts[host]; !ok {
			order = append(order, host)
		}
		hosts[host] = append(hosts[host], u)
	}
	return hosts, order
}
