package document

import (
	"fmt"

	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts text page by page, producing one Document per page with
// its 1-based page number. The file is validated with pdfcpu first so that
// corrupt files fail fast with a clear error instead of a parser panic
// deep inside text extraction.
func loadPDF(path, source string) ([]Document, error) {
	if err := pdfcpu.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("validating %s: %w", source, err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", source, err)
	}
	defer func() {
		_ = f.Close()
	}()

	numPages := reader.NumPage()
	docs := make([]Document, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single undecodable page becomes an empty Document so the
			// page still shows up in EmptyDocs diagnostics.
			text = ""
		}

		docs = append(docs, Document{
			Content: text,
			Source:  source,
			Page:    i,
		})
	}

	return docs, nil
}
