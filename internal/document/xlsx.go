package document

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// loadXLSX renders a spreadsheet as plain text: every sheet in order, one
// line per row, cells joined with tabs. The whole workbook becomes a single
// Document with no page number.
func loadXLSX(path, source string) ([]Document, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", source, err)
	}
	defer func() {
		_ = wb.Close()
	}()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q of %s: %w", sheet, source, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}

	return []Document{{
		Content: sb.String(),
		Source:  source,
		Page:    PageUnknown,
	}}, nil
}
