// Package mongo stores ArticleRecords in a MongoDB collection with a unique
// index on url.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-article-crawler/internal/crawler"
)

const urlIndexName = "url_unique"

// Config describes how to reach the article collection. URI wins over the
// individual connection fields.
type Config struct {
	URI        string
	User       string
	Password   string
	Host       string
	Port       int
	Database   string
	Collection string
}

// BuildURI composes a mongodb:// URI from the individual fields, escaping the
// credentials.
func BuildURI(cfg Config) (string, error) {
	if cfg.URI != "" {
		return cfg.URI, nil
	}
	if cfg.Host == "" {
		return "", errors.New("store.mongo.uri or store.mongo.host is required")
	}
	host := cfg.Host
	if cfg.Port > 0 {
		host = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}
	var b strings.Builder
	b.WriteString("mongodb://")
	if cfg.User != "" {
		b.WriteString(url.QueryEscape(cfg.User))
		if cfg.Password != "" {
			b.WriteByte(':')
			b.WriteString(url.QueryEscape(cfg.Password))
		}
		b.WriteByte('@')
	}
	b.WriteString(host)
	b.WriteByte('/')
	return b.String(), nil
}

// documentCollection is the slice of collection behaviour the store needs.
type documentCollection interface {
	ensureUniqueURL(ctx context.Context) error
	hasURL(ctx context.Context, url string) (bool, error)
	insert(ctx context.Context, record crawler.ArticleRecord) error
}

type driverCollection struct {
	coll *mongo.Collection
}

func (d driverCollection) ensureUniqueURL(ctx context.Context) error {
	_, err := d.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(urlIndexName),
	})
	return err
}

func (d driverCollection) hasURL(ctx context.Context, u string) (bool, error) {
	err := d.coll.FindOne(ctx, bson.D{{Key: "url", Value: u}},
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d driverCollection) insert(ctx context.Context, record crawler.ArticleRecord) error {
	_, err := d.coll.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", crawler.ErrDuplicateURL, record.URL)
	}
	return err
}

// ArticleStore is the MongoDB RecordStore. The client is connected by Open
// and disconnected by Close.
type ArticleStore struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.RWMutex
	client *mongo.Client
	coll   documentCollection
}

var _ crawler.RecordStore = (*ArticleStore)(nil)

// New validates cfg without connecting.
func New(cfg Config, logger *zap.Logger) (*ArticleStore, error) {
	if _, err := BuildURI(cfg); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		return nil, errors.New("store.mongo.database is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "articles"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleStore{cfg: cfg, logger: logger.Named("mongo")}, nil
}

// newWithCollection builds a store over an already-connected collection.
func newWithCollection(coll documentCollection) *ArticleStore {
	return &ArticleStore{logger: zap.NewNop(), coll: coll}
}

// Open connects, pings the primary and ensures the unique url index.
func (s *ArticleStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coll == nil {
		uri, err := BuildURI(s.cfg)
		if err != nil {
			return err
		}
		client, err := mongo.Connect(options.Client().ApplyURI(uri))
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return fmt.Errorf("ping mongo: %w", err)
		}
		s.client = client
		s.coll = driverCollection{coll: client.Database(s.cfg.Database).Collection(s.cfg.Collection)}
		s.logger.Info("Connected to MongoDB",
			zap.String("database", s.cfg.Database),
			zap.String("collection", s.cfg.Collection))
	}
	if err := s.coll.ensureUniqueURL(ctx); err != nil {
		return fmt.Errorf("create url index: %w", err)
	}
	return nil
}

func (s *ArticleStore) collection() (documentCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return nil, errors.New("article store is not open")
	}
	return s.coll, nil
}

// Exists reports whether a document with url is stored.
func (s *ArticleStore) Exists(ctx context.Context, u string) (bool, error) {
	coll, err := s.collection()
	if err != nil {
		return false, err
	}
	found, err := coll.hasURL(ctx, u)
	if err != nil {
		return false, fmt.Errorf("find article: %w", err)
	}
	return found, nil
}

// Insert writes record as a new document.
func (s *ArticleStore) Insert(ctx context.Context, record crawler.ArticleRecord) error {
	coll, err := s.collection()
	if err != nil {
		return err
	}
	if err := coll.insert(ctx, record); err != nil {
		if errors.Is(err, crawler.ErrDuplicateURL) {
			return err
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *ArticleStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	client := s.client
	s.client = nil
	s.coll = nil
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
