package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/promptforge/promptforge/pkg/ragstore"
)

// AddDocument embeds text and inserts it with its metadata into the tenant's
// knowledge base, returning the new document id.
func (s *Store) AddDocument(ctx context.Context, tenantID int64, text string, metadata map[string]any) (int64, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("add document: %w", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO documents (user_id, content, metadata, embedding)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		tenantID, text, metadata, pgvector.NewVector(vec),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add document: %w", err)
	}
	return id, nil
}

// Search embeds queryText and returns the k documents of the tenant closest
// by cosine distance, most similar first. Equal distances are broken by
// ascending id so repeated calls return a stable order.
func (s *Store) Search(ctx context.Context, tenantID int64, queryText string, k int) ([]ragstore.SearchResult, error) {
	vec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
		 FROM documents
		 WHERE user_id = $2
		 ORDER BY embedding <=> $1, id
		 LIMIT $3`,
		pgvector.NewVector(vec), tenantID, k,
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[ragstore.SearchResult])
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

// previewLength is the number of leading content characters kept in the
// per-source preview returned by ListDocuments.
const previewLength = 200

// ListDocuments returns one preview per distinct metadata source of the
// tenant, alongside the count of distinct sources. Documents sharing a
// source are collapsed to the lowest-id representative.
func (s *Store) ListDocuments(ctx context.Context, tenantID int64, limit int) (ragstore.DocumentListing, error) {
	var listing ragstore.DocumentListing

	err := s.pool.QueryRow(ctx,
		`SELECT count(DISTINCT metadata->>'source')
		 FROM documents
		 WHERE user_id = $1`,
		tenantID,
	).Scan(&listing.Count)
	if err != nil {
		return ragstore.DocumentListing{}, fmt.Errorf("list documents: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (metadata->>'source')
		        id, metadata, left(content, $2) AS preview
		 FROM documents
		 WHERE user_id = $1
		 ORDER BY metadata->>'source', id
		 LIMIT $3`,
		tenantID, previewLength, limit,
	)
	if err != nil {
		return ragstore.DocumentListing{}, fmt.Errorf("list documents: %w", err)
	}

	previews, err := pgx.CollectRows(rows, pgx.RowToStructByName[ragstore.DocumentPreview])
	if err != nil {
		return ragstore.DocumentListing{}, fmt.Errorf("list documents: %w", err)
	}
	for i := range previews {
		previews[i].Preview += "..."
	}

	listing.Documents = previews
	return listing, nil
}
