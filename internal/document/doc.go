// Package document extracts plain text from knowledge-base files.
//
// A knowledge base is a flat folder of PDF, DOCX and XLSX files. The loader
// turns each file into one or more Documents:
//
//   - PDF: one Document per page, with the 1-based page number preserved
//   - DOCX: one Document for the whole file (paragraph text joined)
//   - XLSX: one Document for the whole file (all sheets, rows joined)
//
// Unreadable or corrupt files are skipped with a logged warning; a single bad
// file never aborts ingestion of the rest of the folder. The package also
// provides two diagnostics: EmptyDocs (files with at least one page yielding
// no text) and CountTokens (total token count of a folder's extracted text).
package document
