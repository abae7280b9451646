// Package postgres provides the PostgreSQL-backed implementation of the
// ragstore interfaces ([ragstore.DocumentStore], [ragstore.ChatStore],
// [ragstore.UserStore]).
//
// All three stores share a single [pgxpool.Pool]. The pgvector extension must
// be available in the target database; [Migrate] installs it automatically
// via CREATE EXTENSION IF NOT EXISTS.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn, embedder)
//	if err != nil { … }
//	defer store.Close()
//
//	id, _ := store.AddDocument(ctx, tenantID, "The sky is blue.", map[string]any{"source": "a.txt"})
//	results, _ := store.Search(ctx, tenantID, "What color is the sky?", 5)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlUsers = `
CREATE TABLE IF NOT EXISTS users (
    id              BIGSERIAL    PRIMARY KEY,
    email           TEXT         NOT NULL UNIQUE,
    hashed_password TEXT         NOT NULL,
    created_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

const ddlChatHistory = `
CREATE TABLE IF NOT EXISTS chat_history (
    id           BIGSERIAL    PRIMARY KEY,
    user_id      BIGINT       NOT NULL REFERENCES users (id),
    user_message TEXT         NOT NULL,
    ai_message   TEXT         NOT NULL,
    timestamp    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chat_history_user_timestamp
    ON chat_history (user_id, timestamp DESC, id DESC);
`

// ddlDocuments returns the documents DDL with the embedding dimension
// substituted. The vector width is baked into the column type at schema
// creation time; changing the embedding model afterwards requires a manual
// schema change.
//
// The HNSW index makes large knowledge bases approximate rather than exact;
// at small scale the planner falls back to a brute-force scan, which is
// exact. Either way results come back ordered by cosine distance.
func ddlDocuments(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
    id         BIGSERIAL  PRIMARY KEY,
    user_id    BIGINT     NOT NULL REFERENCES users (id),
    content    TEXT       NOT NULL,
    metadata   JSONB      NOT NULL DEFAULT '{}',
    embedding  vector(%d)
);

CREATE INDEX IF NOT EXISTS idx_documents_user_id
    ON documents (user_id);

CREATE INDEX IF NOT EXISTS idx_documents_source
    ON documents (user_id, (metadata->>'source'));

CREATE INDEX IF NOT EXISTS idx_documents_embedding
    ON documents USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates or ensures all required tables, indexes, and extensions.
// It is idempotent and safe to call on every application start.
//
// embeddingDimensions must match the vector length of the configured
// embedding model (384 for all-MiniLM-L6-v2).
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	statements := []string{
		ddlUsers,
		ddlDocuments(embeddingDimensions),
		ddlChatHistory,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
