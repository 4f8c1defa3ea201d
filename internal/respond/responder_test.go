package respond

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/doctalk0/doctalk/internal/document"
	"github.com/doctalk0/doctalk/internal/index"
)

const chunkText = "alpha retrieval knowledge content"

// scriptedModel returns canned replies keyed by which system prompt it was
// called with, and records the order of calls.
type scriptedModel struct {
	mu           sync.Mutex
	systems      []string
	rewriteReply string
	answerReply  string
	suggestReply string
	err          error
}

func (m *scriptedModel) Complete(_ context.Context, system string, _ []*ai.Message) (string, error) {
	m.mu.Lock()
	m.systems = append(m.systems, system)
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	switch system {
	case rewriteSystem:
		return m.rewriteReply, nil
	case suggestSystem:
		return m.suggestReply, nil
	default:
		return m.answerReply, nil
	}
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.systems)
}

func (m *scriptedModel) firstSystem() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.systems) == 0 {
		return ""
	}
	return m.systems[0]
}

// directionEmbedder embeds the indexed chunk along [1,0] and every query
// along a configurable direction, so tests dial in exact similarities.
type directionEmbedder struct {
	mu       sync.Mutex
	queryVec []float32
	lastText string
}

func (e *directionEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.lastText = text
	e.mu.Unlock()

	if strings.Contains(text, "alpha") {
		return []float32{1, 0}, nil
	}
	return e.queryVec, nil
}

func (e *directionEmbedder) last() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastText
}

func writeChunkDOCX(t *testing.T, dir string) {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, "notes.docx"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` +
		chunkText + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// newFixture builds a one-chunk knowledge base and a responder around the
// scripted collaborators.
func newFixture(t *testing.T, model *scriptedModel, emb *directionEmbedder) (*Responder, string) {
	t.Helper()

	dir := t.TempDir()
	writeChunkDOCX(t, dir)

	store := index.NewStore(document.NewLoader(nil), emb, nil, index.Options{})
	if ok, msg := store.LoadOrBuild(context.Background(), dir); !ok {
		t.Fatalf("index build failed: %q", msg)
	}

	return NewResponder(store, emb, model, nil, Options{}), dir
}

func TestGenerateNoIndex(t *testing.T) {
	model := &scriptedModel{}
	store := index.NewStore(document.NewLoader(nil), &directionEmbedder{}, nil, index.Options{})
	r := NewResponder(store, &directionEmbedder{}, model, nil, Options{})

	resp := r.Generate(context.Background(), t.TempDir(), "hello", nil)

	if resp.Answer != fallbackMessages["en"][msgNoIndex] {
		t.Errorf("Answer = %q, want the no-index message", resp.Answer)
	}
	if resp.Sources != nil || resp.Suggestions != nil {
		t.Error("no-index response must carry nil sources and suggestions")
	}
	if model.callCount() != 0 {
		t.Errorf("model called %d times before any index existed", model.callCount())
	}
}

func TestGenerateWithReferences(t *testing.T) {
	model := &scriptedModel{
		answerReply:  "Alpha is described in the notes.",
		suggestReply: "1. What about beta?\n2. Where is alpha used?",
	}
	emb := &directionEmbedder{queryVec: []float32{1, 0}} // similarity 1.0
	r, dir := newFixture(t, model, emb)

	resp := r.Generate(context.Background(), dir, "what is alpha?", nil)

	if resp.Answer != "Alpha is described in the notes." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "notes.docx, pages: Unknown" {
		t.Errorf("Sources = %v, want [notes.docx, pages: Unknown]", resp.Sources)
	}
	if len(resp.Suggestions) != 2 {
		t.Errorf("Suggestions = %v, want 2 items", resp.Suggestions)
	}
}

func TestGenerateRelevanceGateWithholdsSources(t *testing.T) {
	model := &scriptedModel{answerReply: "Partial answer.", suggestReply: "NONE"}
	// cos([0.75, 0.6614], [1,0]) ≈ 0.75: above the docs threshold,
	// below the prompt threshold.
	emb := &directionEmbedder{queryVec: []float32{0.75, 0.6614}}
	r, dir := newFixture(t, model, emb)

	resp := r.Generate(context.Background(), dir, "what is alpha?", nil)

	if resp.Answer != "Partial answer." {
		t.Errorf("Answer = %q, want the synthesized answer", resp.Answer)
	}
	if resp.Sources != nil {
		t.Errorf("Sources = %v, want nil below the prompt threshold", resp.Sources)
	}
	if resp.Suggestions != nil {
		t.Errorf("Suggestions = %v, want nil when the model declines", resp.Suggestions)
	}
}

func TestGenerateNotFoundFastPath(t *testing.T) {
	model := &scriptedModel{answerReply: "should never be used"}
	emb := &directionEmbedder{queryVec: []float32{0, 1}} // similarity 0
	r, dir := newFixture(t, model, emb)

	resp := r.Generate(context.Background(), dir, "unrelated question", nil)

	if resp.Answer != fallbackMessages["en"][msgNotFound] {
		t.Errorf("Answer = %q, want the not-found message", resp.Answer)
	}
	if resp.Sources != nil || resp.Suggestions != nil {
		t.Error("not-found response must carry nil sources and suggestions")
	}
	if model.callCount() != 0 {
		t.Errorf("model called %d times on the fast path, want 0", model.callCount())
	}
}

func TestGenerateSynthesisFailure(t *testing.T) {
	model := &scriptedModel{err: errors.New("model exploded")}
	emb := &directionEmbedder{queryVec: []float32{1, 0}}
	r, dir := newFixture(t, model, emb)

	resp := r.Generate(context.Background(), dir, "what is alpha?", nil)

	if resp.Answer != fallbackMessages["en"][msgError] {
		t.Errorf("Answer = %q, want the generic error message", resp.Answer)
	}
	if resp.Sources != nil || resp.Suggestions != nil {
		t.Error("error response must carry nil sources and suggestions")
	}
}

func TestGenerateSkipsRewriteWithoutHistory(t *testing.T) {
	model := &scriptedModel{answerReply: "ok", suggestReply: "NONE"}
	emb := &directionEmbedder{queryVec: []float32{1, 0}}
	r, dir := newFixture(t, model, emb)

	r.Generate(context.Background(), dir, "what is alpha?", nil)

	if got := model.firstSystem(); got == rewriteSystem {
		t.Error("rewrite was called despite empty history")
	}
}

func TestGenerateRewritesWithHistory(t *testing.T) {
	model := &scriptedModel{
		rewriteReply: "standalone alpha query",
		answerReply:  "ok",
		suggestReply: "NONE",
	}
	emb := &directionEmbedder{queryVec: []float32{1, 0}}
	r, dir := newFixture(t, model, emb)

	history := []Turn{{User: "tell me about alpha", Assistant: "alpha is a thing"}}
	r.Generate(context.Background(), dir, "what about the second one?", history)

	if got := model.firstSystem(); got != rewriteSystem {
		t.Fatal("first model call was not the query rewrite")
	}
	// The rewritten query, not the raw message, is what gets embedded.
	if got := emb.last(); got != "standalone alpha query" {
		t.Errorf("embedded query = %q, want the rewritten one", got)
	}
}

func TestGenerateRewriteFailureFallsBackToRawMessage(t *testing.T) {
	model := &scriptedModel{
		rewriteReply: "",
		answerReply:  "ok",
		suggestReply: "NONE",
	}
	emb := &directionEmbedder{queryVec: []float32{1, 0}}
	r, dir := newFixture(t, model, emb)

	history := []Turn{{User: "a", Assistant: "b"}}
	resp := r.Generate(context.Background(), dir, "what is alpha?", history)

	if resp.Answer != "ok" {
		t.Errorf("Answer = %q, want the synthesized answer", resp.Answer)
	}
	if got := emb.last(); got != "what is alpha?" {
		t.Errorf("embedded query = %q, want the raw message", got)
	}
}

func TestTruncateHistory(t *testing.T) {
	history := make([]Turn, 15)
	for i := range history {
		history[i] = Turn{User: "u", Assistant: "a"}
	}

	if got := truncateHistory(history, 10); len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
	if got := truncateHistory(history[:3], 10); len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}
