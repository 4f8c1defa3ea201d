// Package index builds, persists and queries vector indexes for
// knowledge-base folders.
//
// One Index exists per folder. It is built once — documents are split into
// overlapping chunks, each chunk is embedded, and the (chunk, vector) pairs
// are persisted to a sidecar file inside the folder — and reloaded from that
// sidecar on every subsequent access, so embedding cost is paid at most once
// per folder across process restarts.
//
// # Layout
//
//	<folder>/
//	    report.pdf
//	    minutes.docx
//	    vector_store/          sidecar, owned by this package
//	        index.gob          persisted index (atomic replace on rebuild)
//	        .build.lock        cross-process build lock (flock)
//
// # Concurrency
//
// An Index is immutable after construction; concurrent searches need no
// locking. Store serializes builds per folder (in-process mutex plus a file
// lock for other processes) while builds and queries for distinct folders
// proceed independently. A rebuild writes to a temporary file and renames it
// into place, so readers observe either the old or the new index, never a
// partial one.
//
// # Staleness
//
// There is no content-drift detection: once a persisted index exists for a
// folder it is reused even if files inside the folder have changed since.
// Re-indexing requires removing the sidecar (Store.Forget + deleting the
// vector_store directory).
package index
