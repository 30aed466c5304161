// Package postgres stores ArticleRecords as JSONB documents in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/news-article-crawler/internal/crawler"
)

const uniqueViolation = "23505"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for article rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// ArticleStore keeps one row per article URL. The url column is the primary
// key, so a second insert of the same URL is reported as a duplicate.
type ArticleStore struct {
	cfg   Config
	pool  querier
	table string
}

var _ crawler.RecordStore = (*ArticleStore)(nil)

// New validates cfg; the pool is created by Open.
func New(cfg Config) (*ArticleStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("store.postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	return &ArticleStore{cfg: cfg, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool querier, table string) (*ArticleStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ArticleStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Open connects the pool if needed and creates the article table.
func (s *ArticleStore) Open(ctx context.Context) error {
	if s.pool == nil {
		pool, err := connect(ctx, s.cfg)
		if err != nil {
			return err
		}
		s.pool = pool
	}
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	url TEXT PRIMARY KEY,
	document JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// Exists reports whether a row with url is stored.
func (s *ArticleStore) Exists(ctx context.Context, url string) (bool, error) {
	if s.pool == nil {
		return false, errors.New("article store is not open")
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE url = $1)`, s.table)
	if err := s.pool.QueryRow(ctx, query, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup article: %w", err)
	}
	return exists, nil
}

// Insert writes record as a JSONB document.
func (s *ArticleStore) Insert(ctx context.Context, record crawler.ArticleRecord) error {
	if s.pool == nil {
		return errors.New("article store is not open")
	}
	if record.URL == "" {
		return errors.New("record url is required")
	}
	document, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (url, document) VALUES ($1, $2) ON CONFLICT (url) DO NOTHING`, s.table)
	tag, err := s.pool.Exec(ctx, query, record.URL, document)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", crawler.ErrDuplicateURL, record.URL)
		}
		return fmt.Errorf("insert article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", crawler.ErrDuplicateURL, record.URL)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ArticleStore) Close(context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
