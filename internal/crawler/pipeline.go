package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-article-crawler/internal/metrics"
	"github.com/JakeFAU/news-article-crawler/internal/telemetry"
)

// ArticleStored is the notification published after a record is persisted.
type ArticleStored struct {
	URL         string    `json:"url"`
	Headline    string    `json:"headline"`
	ISODatetime string    `json:"iso_datetime"`
	StoredAt    time.Time `json:"stored_at"`
	RunID       string    `json:"run_id"`
}

// PipelineDeps wires the pipeline's collaborators. Archive and Publisher are
// optional; everything else is required.
type PipelineDeps struct {
	Store     RecordStore
	Fetcher   Fetcher
	Extractor Extractor
	ErrorSink ErrorSink
	Robots    RobotsPolicy
	Limiter   HostLimiter
	Archive   BlobStore
	Publisher Publisher
	Logger    *zap.Logger
	Tracer    trace.Tracer
	Now       func() time.Time
}

// PipelineConfig holds per-run pipeline settings.
type PipelineConfig struct {
	RunID          string
	StatusHeader   string
	AcceptedStatus string
	ArchivePrefix  string
	PublishTopic   string
}

// Pipeline runs one URL at a time through the gates and into the store. It
// owns the store and error sink for the duration of a run.
type Pipeline struct {
	deps      PipelineDeps
	cfg       PipelineConfig
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
	validator ResponseValidator
	dedup     *RequestDeduplicator

	startMu  sync.Mutex
	started  atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

// NewPipeline validates deps and returns an unstarted pipeline.
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) (*Pipeline, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("pipeline: record store is required")
	case deps.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case deps.ErrorSink == nil:
		return nil, errors.New("pipeline: error sink is required")
	}
	if deps.Robots == nil {
		deps.Robots = &allowAllPolicy{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		deps:      deps,
		cfg:       cfg,
		logger:    logger.Named("pipeline").With(zap.String("run_id", cfg.RunID)),
		tracer:    tracer,
		now:       now,
		validator: NewResponseValidator(cfg.StatusHeader, cfg.AcceptedStatus),
		dedup:     NewRequestDeduplicator(deps.Store),
	}, nil
}

// Start opens the record store. Calling Start on a started pipeline is a no-op.
func (p *Pipeline) Start(ctx context.Context) error {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.started.Load() {
		return nil
	}
	if err := p.deps.Store.Open(ctx); err != nil {
		return fmt.Errorf("%w: open store: %w", ErrStorage, err)
	}
	p.started.Store(true)
	p.logger.Info("Pipeline started")
	return nil
}

// Stop releases the store and error sink. Only the first call has an effect;
// later calls return the first call's error.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.started.Store(false)
		var errs []error
		if err := p.deps.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		if err := p.deps.ErrorSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close error sink: %w", err))
		}
		p.stopErr = errors.Join(errs...)
		p.logger.Info("Pipeline stopped", zap.Error(p.stopErr))
	})
	return p.stopErr
}

// Ready reports whether the pipeline is started and able to process URLs.
func (p *Pipeline) Ready() bool {
	return p.started.Load()
}

// Process runs rawURL through robots, dedup, fetch, validation, extraction and
// storage. Per-URL failures are reported in the Result, never returned.
func (p *Pipeline) Process(ctx context.Context, rawURL string) Result {
	ctx, span := p.tracer.Start(ctx, "crawler.Process", trace.WithAttributes(attribute.String("url", rawURL)))
	defer span.End()

	res := p.process(ctx, rawURL)

	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	if res.Err != nil && res.Outcome != OutcomeDuplicate {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, string(res.Outcome))
	}
	metrics.ObservePage(res.URL, string(res.Outcome), res.Bytes)
	p.logResult(res)
	return res
}

func (p *Pipeline) process(ctx context.Context, rawURL string) Result {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return Result{URL: rawURL, Outcome: OutcomeFetchFailed, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}
	res := Result{URL: url}
	if !p.started.Load() {
		res.Outcome, res.Err = OutcomeStoreFailed, fmt.Errorf("%w: %w", ErrStorage, ErrPipelineNotStarted)
		return res
	}

	if !p.deps.Robots.Allowed(ctx, url) {
		res.Outcome, res.Err = OutcomeDisallowed, fmt.Errorf("%w: %s", ErrRobotsDisallowed, url)
		return res
	}

	if err := p.dedup.Admit(ctx, url); err != nil {
		res.Err = err
		res.Outcome = OutcomeStoreFailed
		if errors.Is(err, ErrDuplicateURL) {
			res.Outcome = OutcomeDuplicate
		}
		return res
	}

	if p.deps.Limiter != nil {
		if err := p.deps.Limiter.Wait(ctx, url); err != nil {
			res.Outcome, res.Err = OutcomeFetchFailed, fmt.Errorf("%w: rate limit wait: %w", ErrTransport, err)
			return res
		}
	}

	resp, err := p.deps.Fetcher.Fetch(ctx, FetchRequest{URL: url})
	if err != nil {
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		res.Outcome, res.Err = OutcomeFetchFailed, err
		return res
	}
	if resp.URL == "" {
		resp.URL = url
	}
	res.Bytes = len(resp.Body)
	metrics.ObserveFetch(url, resp.Duration)

	if err := p.validator.Validate(resp); err != nil {
		res.Outcome, res.Err = OutcomeRejected, err
		if sinkErr := p.deps.ErrorSink.Append(url); sinkErr != nil {
			metrics.ObserveSideEffectFailure("error_log")
			p.logger.Error("Failed to record rejected URL", zap.String("url", url), zap.Error(sinkErr))
		}
		return res
	}

	p.archive(ctx, url, resp.Body)

	record := p.deps.Extractor.Extract(url, resp.Body)
	if record.URL == "" {
		record.URL = url
	}
	res.Record = &record

	if record.URL != url {
		p.logger.Debug("Page declares a different canonical URL",
			zap.String("url", url), zap.String("canonical_url", record.URL))
		if err := p.dedup.Admit(ctx, record.URL); err != nil {
			res.Err = err
			res.Outcome = OutcomeStoreFailed
			if errors.Is(err, ErrDuplicateURL) {
				res.Outcome = OutcomeDuplicate
			}
			return res
		}
	}

	if err := p.deps.Store.Insert(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateURL) {
			res.Outcome, res.Err = OutcomeDuplicate, err
			return res
		}
		if !errors.Is(err, ErrStorage) {
			err = fmt.Errorf("%w: %w", ErrStorage, err)
		}
		res.Outcome, res.Err = OutcomeStoreFailed, err
		return res
	}
	res.Outcome = OutcomeStored

	p.publish(ctx, record)
	return res
}

func (p *Pipeline) archive(ctx context.Context, url string, body []byte) {
	if p.deps.Archive == nil {
		return
	}
	objectPath := ArchivePath(p.cfg.ArchivePrefix, url, p.now())
	uri, err := p.deps.Archive.PutObject(ctx, objectPath, "text/html; charset=utf-8", bytes.NewReader(body))
	if err != nil {
		metrics.ObserveSideEffectFailure("archive")
		p.logger.Warn("Failed to archive page", zap.String("url", url), zap.Error(err))
		return
	}
	p.logger.Debug("Archived page", zap.String("url", url), zap.String("uri", uri))
}

func (p *Pipeline) publish(ctx context.Context, record ArticleRecord) {
	if p.deps.Publisher == nil || p.cfg.PublishTopic == "" {
		return
	}
	event := ArticleStored{
		URL:         record.URL,
		Headline:    record.Headline,
		ISODatetime: record.CreatedAt.ISODatetime,
		StoredAt:    p.now().UTC(),
		RunID:       p.cfg.RunID,
	}
	id, err := p.deps.Publisher.Publish(ctx, p.cfg.PublishTopic, event)
	if err != nil {
		metrics.ObserveSideEffectFailure("publish")
		p.logger.Warn("Failed to publish article notification", zap.String("url", record.URL), zap.Error(err))
		return
	}
	p.logger.Debug("Published article notification", zap.String("url", record.URL), zap.String("message_id", id))
}

func (p *Pipeline) logResult(res Result) {
	fields := []zap.Field{zap.String("url", res.URL), zap.String("outcome", string(res.Outcome))}
	switch res.Outcome {
	case OutcomeStored:
		p.logger.Info("Stored article", append(fields, zap.String("headline", res.Record.Headline))...)
	case OutcomeDuplicate:
		p.logger.Info("Already processed", fields...)
	case OutcomeDisallowed:
		p.logger.Info("Disallowed by robots.txt", fields...)
	case OutcomeRejected:
		var statusErr *StatusError
		if errors.As(res.Err, &statusErr) {
			fields = append(fields, zap.String("status", statusErr.Status))
		}
		p.logger.Warn("Rejected response", fields...)
	default:
		p.logger.Error("Failed to process URL", append(fields, zap.Error(res.Err))...)
	}
}
