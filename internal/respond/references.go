package respond

import (
	"sort"
	"strconv"
	"strings"

	"github.com/doctalk0/doctalk/internal/document"
	"github.com/doctalk0/doctalk/internal/index"
)

// buildReferences maps the cited chunks back to their source files. One line
// per file, filenames in first-seen order among the chunks, pages ascending
// with "Unknown" last for content that has no page (DOCX, XLSX).
func buildReferences(chunks []index.Scored) []string {
	var order []string
	pages := make(map[string]map[int]bool)

	for _, sc := range chunks {
		src := sc.Chunk.Source
		if src == "" {
			continue
		}
		if _, seen := pages[src]; !seen {
			order = append(order, src)
			pages[src] = make(map[int]bool)
		}
		pages[src][sc.Chunk.Page] = true
	}

	refs := make([]string, 0, len(order))
	for _, src := range order {
		refs = append(refs, src+", pages: "+renderPages(pages[src]))
	}
	return refs
}

func renderPages(set map[int]bool) string {
	var numbered []int
	unknown := false
	for page := range set {
		if page == document.PageUnknown {
			unknown = true
			continue
		}
		numbered = append(numbered, page)
	}
	sort.Ints(numbered)

	parts := make([]string, 0, len(numbered)+1)
	for _, page := range numbered {
		parts = append(parts, strconv.Itoa(page))
	}
	if unknown {
		parts = append(parts, "Unknown")
	}
	return strings.Join(parts, ", ")
}
