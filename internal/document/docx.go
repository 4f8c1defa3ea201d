package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// loadDOCX extracts paragraph text from a Word document. DOCX is a ZIP
// archive; the body lives in word/document.xml. The whole file becomes a
// single Document with no page number.
func loadDOCX(path, source string) ([]Document, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", source, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	content, err := extractDocumentXML(&reader.Reader)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", source, err)
	}

	return []Document{{
		Content: content,
		Source:  source,
		Page:    PageUnknown,
	}}, nil
}

// documentXML mirrors the parts of word/document.xml we care about.
// The xml package matches on local names, so the w: namespace prefix
// is irrelevant here.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []string `xml:"t"`
}

// extractDocumentXML locates word/document.xml in the archive and joins its
// paragraph text with newlines, mirroring how Word itself flows a document.
func extractDocumentXML(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("opening document.xml: %w", err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("reading document.xml: %w", err)
		}

		var doc documentXML
		if err := xml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("parsing document.xml: %w", err)
		}

		var paragraphs []string
		for _, p := range doc.Body.Paragraphs {
			var sb strings.Builder
			for _, r := range p.Runs {
				for _, t := range r.Text {
					sb.WriteString(t)
				}
			}
			paragraphs = append(paragraphs, sb.String())
		}
		return strings.Join(paragraphs, "\n"), nil
	}

	return "", fmt.Errorf("word/document.xml not found in archive")
}
