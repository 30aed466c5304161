// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-article-crawler/internal/app"
	"github.com/JakeFAU/news-article-crawler/internal/config"
	"github.com/JakeFAU/news-article-crawler/internal/crawler"
	"github.com/JakeFAU/news-article-crawler/internal/errorlog"
	"github.com/JakeFAU/news-article-crawler/internal/storage/memory"
	"github.com/JakeFAU/news-article-crawler/internal/storage/mongo"
	"github.com/JakeFAU/news-article-crawler/internal/storage/postgres"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		ErrorLog: config.ErrorLogConfig{Path: filepath.Join(t.TempDir(), "error_urls.txt")},
		Crawler: config.CrawlerConfig{
			UserAgentStrategy:  crawler.IdentityFixed,
			PerHostConcurrency: 1,
			RequestTimeout:     time.Second,
		},
		Store:   config.StoreConfig{Driver: config.StoreMemory},
		Archive: config.ArchiveConfig{Driver: config.ArchiveNone},
	}
}

func TestNewApp_MemoryDefaults(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), baseConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close(context.Background())) })

	assert.IsType(t, &memory.RecordStore{}, a.Store)
	assert.IsType(t, &errorlog.File{}, a.ErrorSink)
	assert.Nil(t, a.Archive)
	assert.Nil(t, a.Publisher)
}

func TestNewApp_StoreDrivers(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Store = config.StoreConfig{
		Driver: config.StoreMongo,
		Mongo:  config.MongoConfig{Host: "localhost", Port: 27017, Database: "news", Collection: "articles"},
	}
	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err, "mongo store connects lazily in Open")
	assert.IsType(t, &mongo.ArticleStore{}, a.Store)
	require.NoError(t, a.Close(context.Background()))

	cfg.Store = config.StoreConfig{
		Driver:   config.StorePostgres,
		Postgres: config.PostgresConfig{DSN: "postgres://crawler@localhost/news", Table: "articles", MaxConns: 2},
	}
	a, err = app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &postgres.ArticleStore{}, a.Store)
	require.NoError(t, a.Close(context.Background()))
}

func TestNewApp_LocalArchiveAndDiscardedErrors(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.ErrorLog.Path = ""
	cfg.Archive = config.ArchiveConfig{Driver: config.ArchiveLocal, Local: config.LocalArchiveConfig{BaseDir: t.TempDir()}}

	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	require.NotNil(t, a.Archive)
	assert.Equal(t, errorlog.Discard{}, a.ErrorSink)
}

func TestNewApp_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]func(*config.Config){
		"unknown store":   func(c *config.Config) { c.Store.Driver = "sqlite" },
		"postgres no dsn": func(c *config.Config) { c.Store.Driver = config.StorePostgres },
		"mongo no db":     func(c *config.Config) { c.Store = config.StoreConfig{Driver: config.StoreMongo, Mongo: config.MongoConfig{Host: "h"}} },
		"unknown archive": func(c *config.Config) { c.Archive.Driver = "s3" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig(t)
			mutate(&cfg)
			_, err := app.New(context.Background(), cfg, zap.NewNop())
			require.Error(t, err)
		})
	}
}

func TestNewApp_PubSubPublisher(t *testing.T) {
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })
	t.Setenv("PUBSUB_EMULATOR_HOST", srv.Addr)

	cfg := baseConfig(t)
	cfg.PubSub = config.PubSubConfig{ProjectID: "demo", Topic: "articles"}

	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, a.Publisher)
	require.NoError(t, a.Close(context.Background()))
	require.NoError(t, a.Close(context.Background()), "second close is a no-op")
}
