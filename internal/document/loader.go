package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doctalk0/doctalk/internal/log"
)

// PageUnknown marks a Document whose source format has no page concept
// (DOCX, XLSX). Rendered as "Unknown" in reference blocks.
const PageUnknown = 0

// Document is a unit of ingested content. Immutable once created;
// re-ingestion produces new Documents rather than mutating old ones.
type Document struct {
	Content string
	Source  string // base filename within the knowledge-base folder
	Page    int    // 1-based PDF page, or PageUnknown
}

// supportedExtensions are the file types the loader understands.
// Extensions are matched case-insensitively.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".xlsx": true,
}

// Supported reports whether the filename has a loadable extension.
func Supported(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SupportedTypes returns a human-readable list of supported formats,
// used in user-facing failure messages.
func SupportedTypes() string {
	return "PDF, Word (.docx) or Excel (.xlsx)"
}

// Loader extracts text from knowledge-base folders.
type Loader struct {
	logger log.Logger
}

// NewLoader creates a Loader. A nil logger falls back to a no-op logger.
func NewLoader(logger log.Logger) *Loader {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Loader{logger: logger.With("component", "document")}
}

// LoadFolder enumerates supported files directly inside folder and extracts
// their text. Files that fail to load are skipped with a warning. The
// returned slice is empty (not nil-checked by callers) when the folder holds
// no supported files; deciding what that means is the caller's job.
func (l *Loader) LoadFolder(folder string) ([]Document, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("reading folder %q: %w", folder, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !Supported(name) {
			continue
		}

		loaded, err := l.loadFile(filepath.Join(folder, name), name)
		if err != nil {
			l.logger.Warn("skipping unreadable file", "file", name, "error", err)
			continue
		}
		docs = append(docs, loaded...)
	}

	return docs, nil
}

// LoadFile extracts text from a single supported file. The source recorded
// on the returned documents is the base filename.
func (l *Loader) LoadFile(path string) ([]Document, error) {
	return l.loadFile(path, filepath.Base(path))
}

// loadFile dispatches on the file extension.
func (l *Loader) loadFile(path, source string) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".pdf":
		return loadPDF(path, source)
	case ".docx":
		return loadDOCX(path, source)
	case ".xlsx":
		return loadXLSX(path, source)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", source)
	}
}

// EmptyDocs returns the names of files containing at least one page (or, for
// single-document formats, a body) with no extractable text. Used to warn
// users about scanned or image-only documents.
func (l *Loader) EmptyDocs(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("reading folder %q: %w", folder, err)
	}

	var empty []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		name := entry.Name()

		docs, err := l.loadFile(filepath.Join(folder, name), name)
		if err != nil {
			// Unreadable counts as empty: the user gets no text either way.
			if !seen[name] {
				empty = append(empty, name)
				seen[name] = true
			}
			continue
		}
		for _, doc := range docs {
			if strings.TrimSpace(doc.Content) == "" && !seen[name] {
				empty = append(empty, name)
				seen[name] = true
			}
		}
	}

	return empty, nil
}
