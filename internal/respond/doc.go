// Package respond turns a user question into a grounded answer using the
// active knowledge-base index.
//
// Each request walks a fixed pipeline: rewrite the question into a
// standalone search query using conversation history, retrieve the closest
// chunks from the folder's index, gate them by similarity, synthesize an
// answer from the surviving context, attach source references when the
// match is strong enough, and finally propose follow-up questions.
//
// Two thresholds drive the gating. A chunk below the document threshold is
// dropped from the synthesis context entirely. The prompt threshold applies
// to the best candidate overall: when even the best match stays below it,
// the answer is returned without references, on the assumption that the
// model answered from general knowledge rather than the corpus.
//
// Generate never returns an error. Every internal failure degrades to a
// plain-language fallback answer with nil sources and suggestions, so the
// messaging layer can relay the result to the user verbatim.
package respond
