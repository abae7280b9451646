package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/promptforge/promptforge/pkg/provider/embeddings"
	"github.com/promptforge/promptforge/pkg/ragstore"
)

// Store is the PostgreSQL-backed implementation of the ragstore interfaces.
// Document text written through AddDocument and query text passed to Search
// are embedded with the provider handed to [NewStore] before they touch the
// database.
type Store struct {
	pool     *pgxpool.Pool
	embedder embeddings.Provider
	log      *slog.Logger
}

var (
	_ ragstore.DocumentStore = (*Store)(nil)
	_ ragstore.ChatStore     = (*Store)(nil)
	_ ragstore.UserStore     = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for background activity such as the
// keep-alive loop. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore connects to PostgreSQL, registers the pgvector types on every
// pooled connection, and runs the schema migration sized to the embedder's
// vector dimensions.
//
// If dsn cannot be parsed as a connection string it is reparsed as a URL and
// rebuilt into keyword/value form with sslmode=require. Managed Postgres
// providers hand out URLs with query parameters or encodings the parser
// rejects; the rebuilt form strips those down to the components that matter.
func NewStore(ctx context.Context, dsn string, embedder embeddings.Provider, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		fallback, ferr := rebuildDSN(dsn)
		if ferr != nil {
			return nil, fmt.Errorf("postgres: parse dsn: %w", err)
		}
		cfg, err = pgxpool.ParseConfig(fallback)
		if err != nil {
			return nil, fmt.Errorf("postgres: parse rebuilt dsn: %w", err)
		}
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if err := Migrate(ctx, pool, embedder.Dimensions()); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Store{
		pool:     pool,
		embedder: embedder,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// rebuildDSN decomposes a postgres:// URL and reassembles it as a
// keyword/value connection string with sslmode=require.
func rebuildDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", dsn)
	}

	parts := []string{
		"host=" + u.Hostname(),
		"sslmode=require",
	}
	if port := u.Port(); port != "" {
		parts = append(parts, "port="+port)
	}
	if u.User != nil {
		parts = append(parts, "user="+u.User.Username())
		if pw, ok := u.User.Password(); ok {
			parts = append(parts, "password="+pw)
		}
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		parts = append(parts, "dbname="+db)
	}
	return strings.Join(parts, " "), nil
}

// Ping verifies connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// KeepAlive issues a trivial query every interval until ctx is cancelled.
// Hosted Postgres tiers drop connections idle for more than a few minutes;
// run this in a goroutine when deploying against one. Failures are logged
// and the loop continues.
func (s *Store) KeepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.pool.Exec(ctx, "SELECT 1"); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn("database keep-alive failed", "error", err)
			}
		}
	}
}
