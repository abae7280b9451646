// Package mock provides in-memory test doubles for the ragstore interfaces.
//
// Each mock records every method call for assertion in tests and exposes
// exported fields that control what the mock returns. All mocks are safe for
// concurrent use via an internal [sync.Mutex].
//
// Typical usage:
//
//	docs := &mock.DocumentStore{}
//	docs.SearchResults = []ragstore.SearchResult{{Content: "The sky is blue.", Similarity: 0.97}}
//
//	// inject docs into the system under test …
//
//	if got := docs.CallCount("Search"); got != 1 {
//	    t.Errorf("expected 1 Search call, got %d", got)
//	}
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/promptforge/promptforge/pkg/ragstore"
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// calls is embedded by every mock in this package.
type calls struct {
	mu   sync.Mutex
	list []Call
}

func (c *calls) record(method string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, Call{Method: method, Args: args})
}

// Calls returns a copy of all recorded method invocations.
func (c *calls) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.list))
	copy(out, c.list)
	return out
}

// CallCount returns how many times the named method was invoked.
func (c *calls) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.list {
		if call.Method == method {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// DocumentStore mock
// ─────────────────────────────────────────────────────────────────────────────

// DocumentStore is a configurable test double for [ragstore.DocumentStore].
// All exported *Err fields default to nil (success).
type DocumentStore struct {
	calls

	// NextID is returned (and then incremented) by AddDocument. A zero
	// NextID starts the sequence at 1.
	NextID int64

	// AddDocumentErr is returned by [DocumentStore.AddDocument] when non-nil.
	AddDocumentErr error

	// SearchResults is returned by [DocumentStore.Search].
	// When nil, Search returns an empty non-nil slice.
	SearchResults []ragstore.SearchResult

	// SearchErr is returned by [DocumentStore.Search] when non-nil.
	SearchErr error

	// Listing is returned by [DocumentStore.ListDocuments].
	Listing ragstore.DocumentListing

	// ListDocumentsErr is returned by [DocumentStore.ListDocuments] when non-nil.
	ListDocumentsErr error
}

var _ ragstore.DocumentStore = (*DocumentStore)(nil)

func (m *DocumentStore) AddDocument(_ context.Context, tenantID int64, text string, metadata map[string]any) (int64, error) {
	m.record("AddDocument", tenantID, text, metadata)
	if m.AddDocumentErr != nil {
		return 0, m.AddDocumentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NextID == 0 {
		m.NextID = 1
	}
	id := m.NextID
	m.NextID++
	return id, nil
}

func (m *DocumentStore) Search(_ context.Context, tenantID int64, queryText string, k int) ([]ragstore.SearchResult, error) {
	m.record("Search", tenantID, queryText, k)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if m.SearchResults == nil {
		return []ragstore.SearchResult{}, nil
	}
	if len(m.SearchResults) > k {
		return m.SearchResults[:k], nil
	}
	return m.SearchResults, nil
}

func (m *DocumentStore) ListDocuments(_ context.Context, tenantID int64, limit int) (ragstore.DocumentListing, error) {
	m.record("ListDocuments", tenantID, limit)
	if m.ListDocumentsErr != nil {
		return ragstore.DocumentListing{}, m.ListDocumentsErr
	}
	return m.Listing, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ChatStore mock
// ─────────────────────────────────────────────────────────────────────────────

// ChatStore is a configurable test double for [ragstore.ChatStore]. Saved
// turns are kept in memory so ListTurns and GetTurn observe prior SaveTurn
// calls without extra wiring.
type ChatStore struct {
	calls

	// SaveTurnErr is returned by [ChatStore.SaveTurn] when non-nil.
	SaveTurnErr error

	// ListTurnsErr is returned by [ChatStore.ListTurns] when non-nil.
	ListTurnsErr error

	// GetTurnErr is returned by [ChatStore.GetTurn] when non-nil.
	GetTurnErr error

	turns  []ragstore.ChatTurn
	nextID int64
}

var _ ragstore.ChatStore = (*ChatStore)(nil)

func (m *ChatStore) SaveTurn(_ context.Context, tenantID int64, userMessage, aiMessage string) (int64, error) {
	m.record("SaveTurn", tenantID, userMessage, aiMessage)
	if m.SaveTurnErr != nil {
		return 0, m.SaveTurnErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.turns = append(m.turns, ragstore.ChatTurn{
		ID:          m.nextID,
		TenantID:    tenantID,
		UserMessage: userMessage,
		AIMessage:   aiMessage,
		Timestamp:   time.Now(),
	})
	return m.nextID, nil
}

func (m *ChatStore) ListTurns(_ context.Context, tenantID int64, limit int) ([]ragstore.ChatTurn, error) {
	m.record("ListTurns", tenantID, limit)
	if m.ListTurnsErr != nil {
		return nil, m.ListTurnsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []ragstore.ChatTurn{}
	for i := len(m.turns) - 1; i >= 0 && len(out) < limit; i-- {
		if m.turns[i].TenantID == tenantID {
			out = append(out, m.turns[i])
		}
	}
	return out, nil
}

func (m *ChatStore) GetTurn(_ context.Context, turnID, tenantID int64) (*ragstore.ChatTurn, error) {
	m.record("GetTurn", turnID, tenantID)
	if m.GetTurnErr != nil {
		return nil, m.GetTurnErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, turn := range m.turns {
		if turn.ID == turnID && turn.TenantID == tenantID {
			t := turn
			return &t, nil
		}
	}
	return nil, ragstore.ErrNotFound
}

// ─────────────────────────────────────────────────────────────────────────────
// UserStore mock
// ─────────────────────────────────────────────────────────────────────────────

// UserStore is a configurable test double for [ragstore.UserStore]. Created
// accounts are kept in memory; creating the same email twice reports
// [ragstore.ErrEmailTaken] like the real store.
type UserStore struct {
	calls

	// CreateUserErr is returned by [UserStore.CreateUser] when non-nil.
	CreateUserErr error

	// GetUserErr is returned by [UserStore.GetUser] when non-nil.
	GetUserErr error

	users  map[string]ragstore.User
	nextID int64
}

var _ ragstore.UserStore = (*UserStore)(nil)

func (m *UserStore) CreateUser(_ context.Context, email, credentialHash string) (int64, error) {
	m.record("CreateUser", email, credentialHash)
	if m.CreateUserErr != nil {
		return 0, m.CreateUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]ragstore.User)
	}
	if _, ok := m.users[email]; ok {
		return 0, ragstore.ErrEmailTaken
	}
	m.nextID++
	m.users[email] = ragstore.User{
		ID:             m.nextID,
		Email:          email,
		CredentialHash: credentialHash,
		CreatedAt:      time.Now(),
	}
	return m.nextID, nil
}

func (m *UserStore) GetUser(_ context.Context, email string) (*ragstore.User, error) {
	m.record("GetUser", email)
	if m.GetUserErr != nil {
		return nil, m.GetUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, ragstore.ErrNotFound
	}
	return &u, nil
}
