// Package session tracks which knowledge-base folder each conversation is
// using.
//
// The active index is deliberately not process-global state: every
// conversation owns a session, and the session names the folder its
// questions are answered from. Several users can therefore work against
// different knowledge bases at the same time without interfering.
//
// # Local State
//
// [SaveCurrentFolder] and [LoadCurrentFolder] persist the CLI's active
// folder to ~/.doctalk/current_kb using atomic writes (temp file + rename)
// with file locking via [github.com/gofrs/flock].
package session
