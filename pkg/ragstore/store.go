// Package ragstore defines the persistent retrieval-engine stores: documents
// with vector embeddings, per-tenant chat history, and identity records.
//
// Every operation takes the owning tenant's ID as a mandatory parameter that
// implementations bake into the query predicate itself — tenant scoping is an
// authorization rule enforced at the store boundary, never a post-filter.
// A by-ID lookup with the wrong tenant reports [ErrNotFound], identical to an
// absent row, so one tenant can never learn whether another tenant's row
// exists.
//
// Implementations must be safe for concurrent use.
package ragstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match no row for the given tenant.
// Callers treat it as an absent result, not a failure.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned by [UserStore.CreateUser] when the email is
// already registered. It must not be retried verbatim.
var ErrEmailTaken = errors.New("email already registered")

// User is an identity record. The ID scopes all documents and chat turns.
type User struct {
	ID             int64
	Email          string
	CredentialHash string
	CreatedAt      time.Time
}

// Document is one ingested chunk of text owned by a single tenant. Documents
// are immutable after creation; multiple documents may share the same
// metadata "source" value (multi-page or chunked ingestion).
type Document struct {
	ID       int64
	TenantID int64
	Content  string

	// Metadata is an open string-keyed map of JSON-compatible values. The
	// engine writes "source", "page", and "type"; ingestion may attach
	// arbitrary extra keys which are stored verbatim.
	Metadata map[string]any
}

// SearchResult is one nearest-neighbour match.
type SearchResult struct {
	Content  string
	Metadata map[string]any

	// Similarity is 1 - cosineDistance(query, document): approximately
	// [-1, 1], practically [0, 1] for normalised embeddings.
	Similarity float64
}

// DocumentPreview is one entry of a document listing: the first-encountered
// row for a distinct source, with content truncated for display.
type DocumentPreview struct {
	ID       int64
	Metadata map[string]any

	// Preview holds the first 200 characters of content with a trailing
	// ellipsis marker, appended whether or not truncation occurred.
	Preview string
}

// DocumentListing summarises a tenant's knowledge base.
type DocumentListing struct {
	// Count is the number of distinct source values, not the row count.
	Count     int
	Documents []DocumentPreview
}

// ChatTurn is one immutable query/response pair. Timestamp is assigned by
// the store at insertion and is monotonically non-decreasing per tenant as
// observed by ListTurns.
type ChatTurn struct {
	ID          int64
	TenantID    int64
	UserMessage string
	AIMessage   string
	Timestamp   time.Time
}

// DocumentStore persists document chunks and serves nearest-neighbour queries.
type DocumentStore interface {
	// AddDocument embeds text, persists one row for the tenant, and returns
	// the assigned ID. Duplicate (tenant, source) pairs are expected and
	// allowed.
	AddDocument(ctx context.Context, tenantID int64, text string, metadata map[string]any) (int64, error)

	// Search embeds queryText and returns the tenant's k nearest documents,
	// nearest first, distance ties broken by insertion order. A tenant with
	// zero documents yields an empty slice and no error.
	Search(ctx context.Context, tenantID int64, queryText string, k int) ([]SearchResult, error)

	// ListDocuments returns the distinct-source count and up to limit
	// previews, one per distinct source.
	ListDocuments(ctx context.Context, tenantID int64, limit int) (DocumentListing, error)
}

// ChatStore persists per-tenant conversation turns.
type ChatStore interface {
	// SaveTurn appends one immutable turn with a server-assigned timestamp
	// and returns its ID.
	SaveTurn(ctx context.Context, tenantID int64, userMessage, aiMessage string) (int64, error)

	// ListTurns returns up to limit turns, most recent first, timestamp ties
	// broken by ID descending.
	ListTurns(ctx context.Context, tenantID int64, limit int) ([]ChatTurn, error)

	// GetTurn returns the turn with the given ID if it belongs to tenantID;
	// otherwise [ErrNotFound]. The tenant filter is part of the lookup
	// predicate itself.
	GetTurn(ctx context.Context, turnID, tenantID int64) (*ChatTurn, error)
}

// UserStore persists identity records keyed by email.
type UserStore interface {
	// CreateUser inserts a new identity row and returns its ID. A duplicate
	// email yields [ErrEmailTaken].
	CreateUser(ctx context.Context, email, credentialHash string) (int64, error)

	// GetUser looks up a user by email, returning [ErrNotFound] when absent.
	GetUser(ctx context.Context, email string) (*User, error)
}
