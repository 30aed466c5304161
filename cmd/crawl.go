package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/news-article-crawler/internal/app"
	"github.com/JakeFAU/news-article-crawler/internal/config"
	"github.com/JakeFAU/news-article-crawler/internal/crawler"
	"github.com/JakeFAU/news-article-crawler/internal/extract"
	"github.com/JakeFAU/news-article-crawler/internal/id/uuid"
	collyfetcher "github.com/JakeFAU/news-article-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/news-article-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/news-article-crawler/internal/server"
)

type crawlOptions struct {
	seedsFile string
	runID     string
}

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	opts := &crawlOptions{}
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls every URL in the seed file",
		Long: `Loads the seed list, then fetches, validates, extracts and stores each
article. URLs already in the store are skipped. The run ends when the seed
list is exhausted or the process is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			if opts.seedsFile != "" {
				rt.cfg.Seeds.File = opts.seedsFile
			}
			_, err = runCrawl(cmd.Context(), rt.cfg, rt.logger, opts.runID)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.seedsFile, "seeds", "", "seed file overriding seeds.file")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "run identifier (default: random UUID)")
	return cmd
}

// runCrawl executes one crawl run and returns its summary.
func runCrawl(ctx context.Context, cfg config.Config, logger *zap.Logger, runID string) (crawler.Summary, error) {
	if runID == "" {
		id, err := uuid.NewRunID()
		if err != nil {
			return crawler.Summary{}, err
		}
		runID = id
	} else if !uuid.ValidRunID(runID) {
		logger.Debug("Using free-form run id", zap.String("run_id", runID))
	}
	logger = logger.With(zap.String("run_id", runID))

	seeds, err := crawler.LoadSeedFile(cfg.Seeds.File, logger)
	if err != nil {
		return crawler.Summary{}, fmt.Errorf("load seeds from %s: %w", cfg.Seeds.File, err)
	}
	logger.Info("Loaded seed list",
		zap.String("file", cfg.Seeds.File),
		zap.Int("urls", len(seeds.URLs)),
		zap.Int("skipped", seeds.Skipped))

	services, err := newApp(ctx, cfg, logger)
	if err != nil {
		return crawler.Summary{}, fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer func() {
		if cerr := services.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("Failed to close application services", zap.Error(cerr))
		}
	}()

	pipeline, err := buildPipeline(cfg, services, logger, runID)
	if err != nil {
		return crawler.Summary{}, err
	}
	if err := pipeline.Start(ctx); err != nil {
		_ = pipeline.Stop(context.WithoutCancel(ctx))
		return crawler.Summary{}, fmt.Errorf("start pipeline: %w", err)
	}
	defer func() {
		if serr := pipeline.Stop(context.WithoutCancel(ctx)); serr != nil {
			logger.Warn("Failed to stop pipeline", zap.Error(serr))
		}
	}()

	var summary crawler.Summary
	runCtx, cancelOps := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	if cfg.Server.ListenAddr != "" {
		ops := server.New(pipeline.Ready, logger)
		g.Go(func() error {
			return ops.ListenAndServe(gctx, cfg.Server.ListenAddr)
		})
	}
	g.Go(func() error {
		defer cancelOps()
		scheduler := crawler.NewScheduler(pipeline, crawler.SchedulerConfig{
			RunID:              runID,
			PerHostConcurrency: cfg.Crawler.PerHostConcurrency,
		}, logger)
		summary = scheduler.Run(gctx, seeds.URLs)
		return nil
	})
	if err := g.Wait(); err != nil {
		cancelOps()
		return summary, err
	}
	cancelOps()

	logSummary(logger, summary)
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return summary, fmt.Errorf("crawl interrupted: %w", err)
	}
	return summary, nil
}

func buildPipeline(cfg config.Config, services *app.App, logger *zap.Logger, runID string) (*crawler.Pipeline, error) {
	identity, err := crawler.NewIdentityStrategy(cfg.Crawler.UserAgentStrategy, cfg.Crawler.UserAgent, nil)
	if err != nil {
		return nil, fmt.Errorf("init identity: %w", err)
	}
	fetcher := collyfetcher.New(collyfetcher.Config{
		Identity: identity,
		Timeout:  cfg.Crawler.RequestTimeout,
	})
	robotsAgent := cfg.Crawler.UserAgent
	if robotsAgent == "" {
		robotsAgent = crawler.DefaultUserAgent
	}

	limiter := ratelimit.New(ratelimit.Config{Delay: cfg.Crawler.Delay})

	pipeline, err := crawler.NewPipeline(crawler.PipelineDeps{
		Store:     services.Store,
		Fetcher:   fetcher,
		Extractor: extract.New(logger),
		ErrorSink: services.ErrorSink,
		Robots:    crawler.NewRobotsEnforcer(cfg.Crawler.RespectRobots, fetcher, limiter, robotsAgent, logger),
		Limiter:   limiter,
		Archive:   services.Archive,
		Publisher: services.Publisher,
		Logger:    logger,
	}, crawler.PipelineConfig{
		RunID:          runID,
		StatusHeader:   cfg.Crawler.StatusHeader,
		AcceptedStatus: cfg.Crawler.AcceptedStatus,
		ArchivePrefix:  cfg.Archive.Prefix,
		PublishTopic:   cfg.PubSub.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}
	return pipeline, nil
}

func logSummary(logger *zap.Logger, summary crawler.Summary) {
	logger.Info("Crawl finished",
		zap.Int("dispatched", summary.Dispatched),
		zap.Int("not_dispatched", summary.Skipped),
		zap.Int(string(crawler.OutcomeStored), summary.Count(crawler.OutcomeStored)),
		zap.Int(string(crawler.OutcomeDuplicate), summary.Count(crawler.OutcomeDuplicate)),
		zap.Int(string(crawler.OutcomeRejected), summary.Count(crawler.OutcomeRejected)),
		zap.Int(string(crawler.OutcomeDisallowed), summary.Count(crawler.OutcomeDisallowed)),
		zap.Int(string(crawler.OutcomeFetchFailed), summary.Count(crawler.OutcomeFetchFailed)),
		zap.Int(string(crawler.OutcomeStoreFailed), summary.Count(crawler.OutcomeStoreFailed)),
		zap.Duration("elapsed", summary.Elapsed))
}
