package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/doctalk0/doctalk/internal/document"
	"github.com/doctalk0/doctalk/internal/log"
)

// annotationSampleRunes caps how much document text is shown to the model
// when asking for a type and description.
const annotationSampleRunes = 2000

const annotateSystem = `You classify documents. Given an excerpt, reply with exactly two lines:
Document Type: <a short category, e.g. contract, report, invoice, manual>
Description: <one sentence describing what the document is about>`

// Describer is the model capability the analyzer consumes.
type Describer interface {
	Complete(ctx context.Context, system string, messages []*ai.Message) (string, error)
}

// Analyzer walks a knowledge-base folder, asks the model to describe each
// new or changed file, and reconciles the catalog with what is on disk.
type Analyzer struct {
	catalog Catalog
	loader  *document.Loader
	model   Describer
	logger  log.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger discards output.
func NewAnalyzer(catalog Catalog, loader *document.Loader, model Describer, logger log.Logger) *Analyzer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Analyzer{
		catalog: catalog,
		loader:  loader,
		model:   model,
		logger:  logger.With("component", "catalog"),
	}
}

// Analyze catalogs the folder's supported files. Files whose modification
// time is not newer than their last analysis are skipped; files that
// disappeared from disk are marked deleted. Per-file failures are logged
// and do not abort the sweep.
func (a *Analyzer) Analyze(ctx context.Context, folder string) error {
	folder, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("resolve folder: %w", err)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return fmt.Errorf("read folder: %w", err)
	}

	seen := make(map[string]bool)
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !document.Supported(dirEntry.Name()) {
			continue
		}

		path := filepath.Join(folder, dirEntry.Name())
		seen[path] = true

		if err := a.analyzeFile(ctx, path, dirEntry.Name()); err != nil {
			a.logger.Warn("document analysis failed, skipping", "file", path, "error", err)
		}
	}

	return a.sweepDeleted(ctx, folder, seen)
}

func (a *Analyzer) analyzeFile(ctx context.Context, path, filename string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	existing, err := a.catalog.Get(ctx, path)
	if err == nil && !info.ModTime().After(existing.AnalyzedAt) {
		return nil // unchanged since last analysis
	}

	docs, err := a.loader.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load file: %w", err)
	}
	sample := sampleText(docs)
	if sample == "" {
		return fmt.Errorf("no extractable text")
	}

	reply, err := a.model.Complete(ctx, annotateSystem,
		[]*ai.Message{ai.NewUserMessage(ai.NewTextPart(sample))})
	if err != nil {
		return fmt.Errorf("describe document: %w", err)
	}

	docType, description := parseAnnotation(reply)
	entry := Entry{
		Path:         path,
		Filename:     filename,
		DocumentType: docType,
		Description:  description,
		DateModified: info.ModTime(),
		AnalyzedAt:   time.Now(),
	}
	if err := a.catalog.Upsert(ctx, entry); err != nil {
		return err
	}

	a.logger.Info("document cataloged", "file", filename, "type", docType)
	return nil
}

func (a *Analyzer) sweepDeleted(ctx context.Context, folder string, seen map[string]bool) error {
	paths, err := a.catalog.ActivePaths(ctx)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if filepath.Dir(path) != folder || seen[path] {
			continue
		}
		if err := a.catalog.MarkDeleted(ctx, path); err != nil {
			a.logger.Warn("mark deleted failed", "file", path, "error", err)
			continue
		}
		a.logger.Info("document marked deleted", "file", path)
	}
	return nil
}

// sampleText concatenates document text up to the annotation sample cap.
func sampleText(docs []document.Document) string {
	var sb strings.Builder
	for _, doc := range docs {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(doc.Content)
		if sb.Len() >= annotationSampleRunes*4 { // rough byte bound before the rune cut
			break
		}
	}
	runes := []rune(strings.TrimSpace(sb.String()))
	if len(runes) > annotationSampleRunes {
		runes = runes[:annotationSampleRunes]
	}
	return string(runes)
}

// parseAnnotation extracts the type and description lines from the model
// reply. Missing lines come back empty; the caller stores whatever was
// recognizable.
func parseAnnotation(reply string) (docType, description string) {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := cutPrefixFold(line, "Document Type:"); ok {
			docType = strings.TrimSpace(rest)
		} else if rest, ok := cutPrefixFold(line, "Description:"); ok {
			description = strings.TrimSpace(rest)
		}
	}
	return docType, description
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}
