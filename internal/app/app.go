// Package app initializes and holds the long-lived services a crawl run needs,
// acting as a dependency injection container for the cmd layer.
package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-article-crawler/internal/config"
	"github.com/JakeFAU/news-article-crawler/internal/crawler"
	"github.com/JakeFAU/news-article-crawler/internal/errorlog"
	pubsubpublisher "github.com/JakeFAU/news-article-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/news-article-crawler/internal/storage/gcs"
	"github.com/JakeFAU/news-article-crawler/internal/storage/local"
	"github.com/JakeFAU/news-article-crawler/internal/storage/memory"
	"github.com/JakeFAU/news-article-crawler/internal/storage/mongo"
	"github.com/JakeFAU/news-article-crawler/internal/storage/postgres"
	"github.com/JakeFAU/news-article-crawler/internal/telemetry"
)

// App holds the configured backends. Store and ErrorSink are handed to the
// pipeline, which opens and closes them; everything else is released by Close.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Store     crawler.RecordStore
	ErrorSink crawler.ErrorSink
	// Archive is nil when archive.driver is none.
	Archive crawler.BlobStore
	// Publisher is nil when pubsub.topic is empty.
	Publisher crawler.Publisher

	closers []func(context.Context) error
}

var openErrorLog = errorlog.Open

// New builds every backend selected by cfg. It fails fast: on error, anything
// already created is released before returning.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}
	logger.Info("Initializing application services...")

	steps := []func(context.Context) error{
		a.initTracing,
		a.initStore,
		a.initErrorSink,
		a.initArchive,
		a.initPublisher,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			if cerr := a.Close(ctx); cerr != nil {
				logger.Warn("Cleanup after failed init", zap.Error(cerr))
			}
			return nil, err
		}
	}

	logger.Info("Application services initialized successfully.")
	return a, nil
}

func (a *App) initTracing(ctx context.Context) error {
	shutdown, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
		Enabled:      a.Config.Tracing.Enabled,
		ServiceName:  a.Config.Tracing.ServiceName,
		OTLPEndpoint: a.Config.Tracing.OTLPEndpoint,
		SampleRatio:  a.Config.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)
	return nil
}

func (a *App) initStore(context.Context) error {
	var err error
	switch a.Config.Store.Driver {
	case config.StoreMongo:
		m := a.Config.Store.Mongo
		a.Logger.Info("Using MongoDB record store", zap.String("database", m.Database), zap.String("collection", m.Collection))
		a.Store, err = mongo.New(mongo.Config{
			URI:        m.URI,
			User:       m.User,
			Password:   m.Password,
			Host:       m.Host,
			Port:       m.Port,
			Database:   m.Database,
			Collection: m.Collection,
		}, a.Logger)
	case config.StorePostgres:
		p := a.Config.Store.Postgres
		a.Logger.Info("Using PostgreSQL record store", zap.String("table", p.Table))
		a.Store, err = postgres.New(postgres.Config{
			DSN:      p.DSN,
			Table:    p.Table,
			MaxConns: int32(p.MaxConns), //nolint:gosec // bounded by config validation
		})
	case config.StoreMemory:
		a.Logger.Info("Using in-memory record store. Records are discarded on exit.")
		a.Store = memory.NewRecordStore()
	default:
		return fmt.Errorf("unknown store driver: %s", a.Config.Store.Driver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

func (a *App) initErrorSink(context.Context) error {
	path := a.Config.ErrorLog.Path
	if path == "" {
		a.Logger.Info("Error log disabled. Rejected URLs will not be recorded.")
		a.ErrorSink = errorlog.Discard{}
		return nil
	}
	sink, err := openErrorLog(path)
	if err != nil {
		return fmt.Errorf("failed to open error log: %w", err)
	}
	// The pipeline closes the sink on Stop; File.Close tolerates the second call.
	a.closers = append(a.closers, func(context.Context) error { return sink.Close() })
	a.ErrorSink = sink
	return nil
}

func (a *App) initArchive(ctx context.Context) error {
	switch a.Config.Archive.Driver {
	case config.ArchiveNone, "":
		return nil
	case config.ArchiveLocal:
		store, err := local.New(local.Config{BaseDir: a.Config.Archive.Local.BaseDir})
		if err != nil {
			return fmt.Errorf("failed to initialize local archive: %w", err)
		}
		a.Logger.Info("Archiving raw pages locally", zap.String("base_dir", a.Config.Archive.Local.BaseDir))
		a.Archive = store
		return nil
	case config.ArchiveGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		store, err := gcs.New(ctx, client, gcs.Config{Bucket: a.Config.Archive.GCS.Bucket})
		if err != nil {
			return fmt.Errorf("failed to initialize gcs archive: %w", err)
		}
		a.Logger.Info("Archiving raw pages to GCS", zap.String("bucket", a.Config.Archive.GCS.Bucket))
		a.Archive = store
		return nil
	default:
		return fmt.Errorf("unknown archive driver: %s", a.Config.Archive.Driver)
	}
}

func (a *App) initPublisher(ctx context.Context) error {
	if a.Config.PubSub.Topic == "" {
		return nil
	}
	client, err := pubsub.NewClient(ctx, a.Config.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to create pubsub client: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	pub, err := pubsubpublisher.New(client)
	if err != nil {
		return fmt.Errorf("failed to initialize publisher: %w", err)
	}
	// Topics must stop before the client closes; closers run in reverse.
	a.closers = append(a.closers, func(context.Context) error {
		pub.Close()
		return nil
	})
	a.Logger.Info("Publishing article notifications", zap.String("topic", a.Config.PubSub.Topic))
	a.Publisher = pub
	return nil
}

// Close releases clients in reverse creation order and joins their errors.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
