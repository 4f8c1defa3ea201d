// Package api exposes the answering pipeline over a JSON HTTP API: session
// provisioning, knowledge-base selection and indexing, question answering,
// and catalog inspection.
//
// The API is a thin shell: request decoding, precondition checks and
// response encoding live here, everything else is delegated to the index,
// respond, session and catalog packages.
package api
