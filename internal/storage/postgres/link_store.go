// Package postgres persists link extraction outcomes in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

const defaultTable = "link_extractions"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// LinkStoreConfig controls the Postgres connection pool used for link rows.
type LinkStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Ping(context.Context) error
	Close()
}

// LinkStore writes one row per resolved link. It implements
// enrichment.LinkRecorder.
type LinkStore struct {
	pool  execCloser
	table string
}

// NewLinkStore creates a Postgres-backed LinkStore using the provided config.
func NewLinkStore(ctx context.Context, cfg LinkStoreConfig) (*LinkStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
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
	return &LinkStore{pool: pool, table: table}, nil
}

// NewLinkStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewLinkStoreWithPool(pool execCloser, table string) (*LinkStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &LinkStore{pool: pool, table: name}, nil
}

// Close releases the underlying pool resources.
func (s *LinkStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping reports whether the database is reachable.
func (s *LinkStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("link store is not configured")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema creates the table when it does not exist yet.
func (s *LinkStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("link store is not configured")
	}
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id            TEXT PRIMARY KEY,
	batch_id      TEXT,
	url           TEXT NOT NULL,
	status        TEXT NOT NULL,
	backend       TEXT,
	attempts      INTEGER NOT NULL,
	duration_ms   BIGINT NOT NULL,
	content_chars INTEGER NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// RecordLink inserts a link row into Postgres.
func (s *LinkStore) RecordLink(ctx context.Context, record enrichment.LinkRecord) error {
	if s == nil || s.pool == nil {
		return errors.New("link store is not configured")
	}
	if record.ID == "" {
		return errors.New("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	batch_id,
	url,
	status,
	backend,
	attempts,
	duration_ms,
	content_chars,
	recorded_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)`, s.table)

	args := []any{
		record.ID,
		nullable(record.BatchID),
		record.URL,
		string(record.Status),
		nullable(record.Backend),
		record.Attempts,
		record.DurationMs,
		record.ContentChars,
		record.RecordedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
