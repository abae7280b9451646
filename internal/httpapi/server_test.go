package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/engine"
	"github.com/promptforge/promptforge/internal/httpapi"
	"github.com/promptforge/promptforge/pkg/provider/embeddings"
	llmmock "github.com/promptforge/promptforge/pkg/provider/llm/mock"
	"github.com/promptforge/promptforge/pkg/ragstore"
	"github.com/promptforge/promptforge/pkg/ragstore/mock"
)

// testServer bundles the server under test with its mock dependencies.
type testServer struct {
	srv   *httptest.Server
	docs  *mock.DocumentStore
	chats *mock.ChatStore
	users *mock.UserStore
	llm   *llmmock.Provider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	docs := &mock.DocumentStore{}
	chats := &mock.ChatStore{}
	users := &mock.UserStore{}
	provider := &llmmock.Provider{Response: "generated text"}

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	server := httpapi.NewServer(httpapi.Config{
		Auth:   auth.NewService(users, issuer),
		Issuer: issuer,
		Engine: engine.New(docs, chats, provider, nil, engine.Options{HistoryTurns: 5}),
		Docs:   docs,
		Chats:  chats,
	})

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, docs: docs, chats: chats, users: users, llm: provider}
}

// register creates an account through the API and returns its token.
func (ts *testServer) register(t *testing.T, email string) string {
	t.Helper()
	resp := ts.postJSON(t, "/api/register", "", map[string]string{
		"email":    email,
		"password": "long enough password",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return body.Token
}

func (ts *testServer) postJSON(t *testing.T, path, token string, payload any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest("POST", ts.srv.URL+path, strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (ts *testServer) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("GET", ts.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	token := ts.register(t, "alice@example.com")
	if token == "" {
		t.Fatal("register returned empty token")
	}

	// Duplicate registration conflicts.
	resp := ts.postJSON(t, "/api/register", "", map[string]string{
		"email": "alice@example.com", "password": "long enough password",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want 409", resp.StatusCode)
	}

	// Login with the right password.
	resp = ts.postJSON(t, "/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "long enough password",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login: status %d, want 200", resp.StatusCode)
	}

	// Wrong password.
	resp = ts.postJSON(t, "/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong password!!",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login: status %d, want 401", resp.StatusCode)
	}

	// Unusable registration input.
	resp = ts.postJSON(t, "/api/register", "", map[string]string{
		"email": "bob@example.com", "password": "short",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("short password: status %d, want 400", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	protected := []struct{ method, path string }{
		{"POST", "/api/generate"},
		{"POST", "/api/ingest/text"},
		{"GET", "/api/documents"},
		{"GET", "/api/history"},
		{"GET", "/api/history/1"},
	}

	for _, route := range protected {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req, _ := http.NewRequest(route.method, ts.srv.URL+route.path, strings.NewReader("{}"))
			resp, err := ts.srv.Client().Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("no token: status %d, want 401", resp.StatusCode)
			}

			req, _ = http.NewRequest(route.method, ts.srv.URL+route.path, strings.NewReader("{}"))
			req.Header.Set("Authorization", "Bearer not.a.valid.token")
			resp, err = ts.srv.Client().Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("garbage token: status %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "gen@example.com")

	ts.docs.SearchResults = []ragstore.SearchResult{
		{Content: "The sky is blue.", Metadata: map[string]any{"source": "facts.txt"}, Similarity: 0.95},
	}

	resp := ts.postJSON(t, "/api/generate", token, map[string]string{
		"query": "What color is the sky?",
		"mode":  "direct",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status %d, want 200", resp.StatusCode)
	}
	body := decodeBody[struct {
		Response string   `json:"response"`
		Context  []string `json:"context"`
		Sources  []string `json:"sources"`
		Mode     string   `json:"mode"`
	}](t, resp)

	if body.Response != "generated text" {
		t.Errorf("response: got %q", body.Response)
	}
	if len(body.Context) != 1 || body.Context[0] != "The sky is blue." {
		t.Errorf("context: got %v", body.Context)
	}
	if len(body.Sources) != 1 || body.Sources[0] != "facts.txt" {
		t.Errorf("sources: got %v", body.Sources)
	}
	if body.Mode != "direct" {
		t.Errorf("mode: got %q", body.Mode)
	}

	// The turn was persisted.
	if got := ts.chats.CallCount("SaveTurn"); got != 1 {
		t.Errorf("SaveTurn calls: want 1, got %d", got)
	}

	// Blank query is rejected.
	resp = ts.postJSON(t, "/api/generate", token, map[string]string{"query": "  "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank query: status %d, want 400", resp.StatusCode)
	}
}

func TestIngestText(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "ingest@example.com")

	form := url.Values{"text": {"The sky is blue."}, "source": {"facts.txt"}}
	req, _ := http.NewRequest("POST", ts.srv.URL+"/api/ingest/text", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ingest: status %d, want 201", resp.StatusCode)
	}
	body := decodeBody[struct {
		ID     int64  `json:"id"`
		Source string `json:"source"`
	}](t, resp)
	if body.ID == 0 || body.Source != "facts.txt" {
		t.Errorf("ingest response: %+v", body)
	}

	// The document went to the store with its source metadata.
	calls := ts.docs.Calls()
	if len(calls) != 1 || calls[0].Method != "AddDocument" {
		t.Fatalf("store calls: %+v", calls)
	}
	meta := calls[0].Args[2].(map[string]any)
	if meta["source"] != "facts.txt" || meta["type"] != "text" {
		t.Errorf("metadata: %v", meta)
	}

	// Missing fields are rejected.
	req, _ = http.NewRequest("POST", ts.srv.URL+"/api/ingest/text", strings.NewReader("text=only"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("ingest missing source: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing source: status %d, want 400", resp.StatusCode)
	}
}

func TestListDocuments(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "docs@example.com")

	ts.docs.Listing = ragstore.DocumentListing{
		Count: 2,
		Documents: []ragstore.DocumentPreview{
			{ID: 1, Metadata: map[string]any{"source": "a.txt"}, Preview: "The sky..."},
			{ID: 3, Metadata: map[string]any{"source": "b.txt"}, Preview: "Water..."},
		},
	}

	resp := ts.get(t, "/api/documents", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("documents: status %d, want 200", resp.StatusCode)
	}
	body := decodeBody[struct {
		Count     int `json:"count"`
		Documents []struct {
			ID      int64  `json:"id"`
			Preview string `json:"preview"`
		} `json:"documents"`
	}](t, resp)
	if body.Count != 2 || len(body.Documents) != 2 {
		t.Errorf("listing: %+v", body)
	}
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := ts.register(t, "alice-h@example.com")
	bobToken := ts.register(t, "bob-h@example.com")

	// Alice generates one turn.
	resp := ts.postJSON(t, "/api/generate", aliceToken, map[string]string{"query": "hello"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status %d", resp.StatusCode)
	}

	// Alice sees her history.
	resp = ts.get(t, "/api/history", aliceToken)
	turns := decodeBody[[]struct {
		ID          int64  `json:"id"`
		UserMessage string `json:"user_message"`
	}](t, resp)
	if len(turns) != 1 || turns[0].UserMessage != "hello" {
		t.Fatalf("history: %+v", turns)
	}

	// Alice can fetch the single turn.
	resp = ts.get(t, "/api/history/1", aliceToken)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get turn: status %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// Bob cannot see Alice's turn.
	resp = ts.get(t, "/api/history/1", bobToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-tenant turn: status %d, want 404", resp.StatusCode)
	}
	resp = ts.get(t, "/api/history", bobToken)
	bobTurns := decodeBody[[]struct{ ID int64 }](t, resp)
	if len(bobTurns) != 0 {
		t.Errorf("bob history: want empty, got %+v", bobTurns)
	}

	// Non-numeric id is a bad request.
	resp = ts.get(t, "/api/history/abc", aliceToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id: status %d, want 400", resp.StatusCode)
	}
}

func TestProbesAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp := ts.get(t, path, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestStoreFailureMapsToInternalError(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "fail@example.com")

	ts.docs.SearchErr = context.DeadlineExceeded

	resp := ts.postJSON(t, "/api/generate", token, map[string]string{"query": "q"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("store failure: status %d, want 500", resp.StatusCode)
	}

	ts.docs.SearchErr = fmt.Errorf("embed query: %w", embeddings.ErrEmbedFailed)
	resp = ts.postJSON(t, "/api/generate", token, map[string]string{"query": "q"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("embedding failure: status %d, want 502", resp.StatusCode)
	}
}
