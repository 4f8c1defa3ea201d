package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doctalk0/doctalk/internal/log"
	"github.com/doctalk0/doctalk/internal/respond"
	"github.com/doctalk0/doctalk/internal/security"
	"github.com/doctalk0/doctalk/internal/session"
)

type fakeIndexer struct {
	ok      bool
	message string
	folders []string
}

func (f *fakeIndexer) LoadOrBuild(_ context.Context, folder string) (bool, string) {
	f.folders = append(f.folders, folder)
	return f.ok, f.message
}

type fakeAnswerer struct {
	resp    respond.Response
	folder  string
	message string
	history int
}

func (f *fakeAnswerer) Generate(_ context.Context, folder, userMessage string, history []respond.Turn) respond.Response {
	f.folder = folder
	f.message = userMessage
	f.history = len(history)
	return f.resp
}

type fakeLister struct {
	files []string
	err   error
}

func (f *fakeLister) EmptyDocs(string) ([]string, error) {
	return f.files, f.err
}

func newTestServer(t *testing.T, indexer *fakeIndexer, answerer *fakeAnswerer) (*Server, *session.Registry) {
	t.Helper()

	sessions := session.NewRegistry(nil)
	srv, err := NewServer(ServerConfig{
		Indexer:   indexer,
		Responder: answerer,
		Sessions:  sessions,
		Loader:    &fakeLister{},
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	return srv, sessions
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeIndexer{}, &fakeAnswerer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestIndexEndpoint(t *testing.T) {
	indexer := &fakeIndexer{ok: true, message: "indexed"}
	srv, _ := newTestServer(t, indexer, &fakeAnswerer{})

	rec := postJSON(t, srv.Handler(), "/api/v1/index", map[string]string{"folder": "/kb/docs"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result indexResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Message != "indexed" {
		t.Errorf("result = %+v", result)
	}
	if len(indexer.folders) != 1 || indexer.folders[0] != "/kb/docs" {
		t.Errorf("indexed folders = %v", indexer.folders)
	}
}

func TestIndexEndpointRequiresFolder(t *testing.T) {
	srv, _ := newTestServer(t, &fakeIndexer{}, &fakeAnswerer{})

	rec := postJSON(t, srv.Handler(), "/api/v1/index", map[string]string{})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIndexEndpointDeniedFolder(t *testing.T) {
	root := t.TempDir()
	folders, err := security.NewFolder([]string{root})
	if err != nil {
		t.Fatalf("NewFolder() error: %v", err)
	}

	indexer := &fakeIndexer{ok: true, message: "indexed"}
	sessions := session.NewRegistry(nil)
	srv, err := NewServer(ServerConfig{
		Indexer:   indexer,
		Responder: &fakeAnswerer{},
		Sessions:  sessions,
		Loader:    &fakeLister{},
		Folders:   folders,
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	rec := postJSON(t, srv.Handler(), "/api/v1/index", map[string]string{"folder": "/etc"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if len(indexer.folders) != 0 {
		t.Errorf("denied folder reached the indexer: %v", indexer.folders)
	}
}

func TestSessionAnswerFlow(t *testing.T) {
	indexer := &fakeIndexer{ok: true, message: "ready"}
	answerer := &fakeAnswerer{resp: respond.Response{
		Answer:      "the answer",
		Sources:     []string{"a.pdf, pages: 1"},
		Suggestions: []string{"next?"},
	}}
	srv, _ := newTestServer(t, indexer, answerer)
	handler := srv.Handler()

	// Create a session.
	rec := postJSON(t, handler, "/api/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d", rec.Code)
	}
	var created sessionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	// Asking before selecting a knowledge base is a 409.
	rec = postJSON(t, handler, "/api/v1/sessions/"+created.SessionID+"/messages",
		map[string]string{"message": "hello"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("answer without KB status = %d, want 409", rec.Code)
	}

	// Select a knowledge base.
	rec = postJSON(t, handler, "/api/v1/sessions/"+created.SessionID+"/knowledge-base",
		map[string]string{"folder": "/kb/docs"})
	if rec.Code != http.StatusOK {
		t.Fatalf("select KB status = %d", rec.Code)
	}

	// Ask.
	rec = postJSON(t, handler, "/api/v1/sessions/"+created.SessionID+"/messages",
		map[string]string{"message": "what is it?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("answer status = %d", rec.Code)
	}
	var result answerResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Answer != "the answer" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Sources) != 1 || len(result.Suggestions) != 1 {
		t.Errorf("Sources = %v, Suggestions = %v", result.Sources, result.Suggestions)
	}
	if answerer.folder != "/kb/docs" {
		t.Errorf("responder folder = %q, want /kb/docs", answerer.folder)
	}

	// The second question carries the first exchange as history.
	rec = postJSON(t, handler, "/api/v1/sessions/"+created.SessionID+"/messages",
		map[string]string{"message": "and then?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("second answer status = %d", rec.Code)
	}
	if answerer.history != 1 {
		t.Errorf("history length = %d, want 1", answerer.history)
	}
}

func TestAnswerUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, &fakeIndexer{}, &fakeAnswerer{})

	rec := postJSON(t, srv.Handler(), "/api/v1/sessions/does-not-exist/messages",
		map[string]string{"message": "hi"})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSelectKBFailureDoesNotBindFolder(t *testing.T) {
	indexer := &fakeIndexer{ok: false, message: "no valid files"}
	srv, sessions := newTestServer(t, indexer, &fakeAnswerer{})
	handler := srv.Handler()

	rec := postJSON(t, handler, "/api/v1/sessions", nil)
	var created sessionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	rec = postJSON(t, handler, "/api/v1/sessions/"+created.SessionID+"/knowledge-base",
		map[string]string{"folder": "/kb/empty"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result indexResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Success {
		t.Error("selectKB reported success for a failed build")
	}

	if _, err := sessions.Folder(created.SessionID); err == nil {
		t.Error("failed build still bound a folder to the session")
	}
}

func TestEmptyDocsEndpoint(t *testing.T) {
	sessions := session.NewRegistry(nil)
	srv, err := NewServer(ServerConfig{
		Indexer:   &fakeIndexer{},
		Responder: &fakeAnswerer{},
		Sessions:  sessions,
		Loader:    &fakeLister{files: []string{"scan.pdf"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/empty-docs?folder=/kb/docs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result emptyDocsResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 1 || result.Files[0] != "scan.pdf" {
		t.Errorf("Files = %v", result.Files)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := recoveryMiddleware(log.NewNop())(panicky)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
