// Package catalog maintains a PostgreSQL inventory of the documents the
// bot can answer from: one row per file with a model-generated type and
// description, the file's modification time, and a deletion marker.
//
// The catalog is optional supporting metadata. Answering works without it;
// it exists so operators can list what a knowledge base contains and so
// re-analysis can skip files that have not changed since they were last
// described.
package catalog
