package catalog

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/doctalk0/doctalk/internal/document"
)

// memCatalog is an in-memory Catalog for analyzer tests.
type memCatalog struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func newMemCatalog() *memCatalog {
	return &memCatalog{entries: make(map[string]Entry)}
}

func (m *memCatalog) Get(_ context.Context, path string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *memCatalog) Upsert(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Deleted = false
	m.entries[entry.Path] = entry
	return nil
}

func (m *memCatalog) ActivePaths(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	for path, e := range m.entries {
		if !e.Deleted {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func (m *memCatalog) MarkDeleted(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path]
	if !ok {
		return errors.New("unknown path")
	}
	e.Deleted = true
	m.entries[path] = e
	return nil
}

// fixedDescriber counts calls and returns a fixed annotation.
type fixedDescriber struct {
	mu    sync.Mutex
	calls int
	reply string
}

func (d *fixedDescriber) Complete(context.Context, string, []*ai.Message) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.reply, nil
}

func (d *fixedDescriber) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func writeDOCX(t *testing.T, path, text string) {
	t.Helper()

	f, err := os.Create(path)
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
		text + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyzeCatalogsNewFile(t *testing.T) {
	dir := t.TempDir()
	writeDOCX(t, filepath.Join(dir, "lease.docx"), "lease agreement between parties")

	cat := newMemCatalog()
	model := &fixedDescriber{reply: "Document Type: contract\nDescription: A lease agreement."}
	analyzer := NewAnalyzer(cat, document.NewLoader(nil), model, nil)

	if err := analyzer.Analyze(context.Background(), dir); err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	entry, err := cat.Get(context.Background(), filepath.Join(dir, "lease.docx"))
	if err != nil {
		t.Fatalf("entry missing: %v", err)
	}
	if entry.DocumentType != "contract" {
		t.Errorf("DocumentType = %q, want contract", entry.DocumentType)
	}
	if entry.Description != "A lease agreement." {
		t.Errorf("Description = %q", entry.Description)
	}
	if entry.Filename != "lease.docx" {
		t.Errorf("Filename = %q", entry.Filename)
	}
}

func TestAnalyzeSkipsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	writeDOCX(t, filepath.Join(dir, "lease.docx"), "lease agreement")

	cat := newMemCatalog()
	model := &fixedDescriber{reply: "Document Type: contract\nDescription: x"}
	analyzer := NewAnalyzer(cat, document.NewLoader(nil), model, nil)

	if err := analyzer.Analyze(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	first := model.count()

	if err := analyzer.Analyze(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	if model.count() != first {
		t.Errorf("unchanged file was re-described: %d calls, want %d", model.count(), first)
	}
}

func TestAnalyzeReanalyzesModifiedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lease.docx")
	writeDOCX(t, path, "v1 content")

	cat := newMemCatalog()
	model := &fixedDescriber{reply: "Document Type: contract\nDescription: x"}
	analyzer := NewAnalyzer(cat, document.NewLoader(nil), model, nil)

	if err := analyzer.Analyze(context.Background(), dir); err != nil {
		t.Fatal(err)
	}

	writeDOCX(t, path, "v2 content")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	if err := analyzer.Analyze(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	if model.count() != 2 {
		t.Errorf("modified file described %d times, want 2", model.count())
	}
}

func TestAnalyzeMarksDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.docx")
	writeDOCX(t, path, "will be removed")

	cat := newMemCatalog()
	model := &fixedDescriber{reply: "Document Type: note\nDescription: x"}
	analyzer := NewAnalyzer(cat, document.NewLoader(nil), model, nil)

	if err := analyzer.Analyze(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := analyzer.Analyze(context.Background(), dir); err != nil {
		t.Fatal(err)
	}

	entry, err := cat.Get(context.Background(), path)
	if err != nil {
		t.Fatalf("entry vanished instead of being marked: %v", err)
	}
	if !entry.Deleted {
		t.Error("entry not marked deleted after file removal")
	}
}

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name            string
		reply           string
		wantType        string
		wantDescription string
	}{
		{
			name:            "well formed",
			reply:           "Document Type: invoice\nDescription: Monthly billing statement.",
			wantType:        "invoice",
			wantDescription: "Monthly billing statement.",
		},
		{
			name:            "case insensitive prefixes",
			reply:           "document type: report\ndescription: Annual results.",
			wantType:        "report",
			wantDescription: "Annual results.",
		},
		{
			name:            "extra chatter around lines",
			reply:           "Sure, here you go:\nDocument Type: manual\nDescription: User guide.\nHope that helps!",
			wantType:        "manual",
			wantDescription: "User guide.",
		},
		{
			name:     "missing description",
			reply:    "Document Type: memo",
			wantType: "memo",
		},
		{
			name:  "garbage",
			reply: "I cannot classify this.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docType, description := parseAnnotation(tt.reply)
			if docType != tt.wantType {
				t.Errorf("docType = %q, want %q", docType, tt.wantType)
			}
			if description != tt.wantDescription {
				t.Errorf("description = %q, want %q", description, tt.wantDescription)
			}
		})
	}
}
