package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doctalk0/doctalk/internal/catalog"
	"github.com/doctalk0/doctalk/internal/log"
	"github.com/doctalk0/doctalk/internal/respond"
	"github.com/doctalk0/doctalk/internal/security"
	"github.com/doctalk0/doctalk/internal/session"
)

// Indexer is the indexing capability the API consumes.
type Indexer interface {
	LoadOrBuild(ctx context.Context, folder string) (bool, string)
}

// Answerer is the question-answering capability the API consumes.
type Answerer interface {
	Generate(ctx context.Context, folder, userMessage string, history []respond.Turn) respond.Response
}

// EmptyDocLister reports files without extractable text.
type EmptyDocLister interface {
	EmptyDocs(folder string) ([]string, error)
}

type indexHandler struct {
	indexer Indexer
	loader  EmptyDocLister
	folders *security.Folder
	logger  log.Logger
}

type indexRequest struct {
	Folder string `json:"folder"`
}

type indexResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// index builds or loads the folder's vector index.
func (h *indexHandler) index(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Folder == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "folder is required", h.logger)
		return
	}

	folder, err := h.folders.Validate(req.Folder)
	if err != nil {
		writeError(w, http.StatusForbidden, "folder_denied", "folder is outside the allowed roots", h.logger)
		return
	}

	ok, message := h.indexer.LoadOrBuild(r.Context(), folder)
	writeJSON(w, http.StatusOK, indexResult{Success: ok, Message: message}, h.logger)
}

type emptyDocsResult struct {
	Files []string `json:"files"`
}

// emptyDocs lists files with at least one page of unextractable text, so
// operators can spot scanned or image-only documents.
func (h *indexHandler) emptyDocs(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "folder query parameter is required", h.logger)
		return
	}

	folder, err := h.folders.Validate(folder)
	if err != nil {
		writeError(w, http.StatusForbidden, "folder_denied", "folder is outside the allowed roots", h.logger)
		return
	}

	files, err := h.loader.EmptyDocs(folder)
	if err != nil {
		writeError(w, http.StatusNotFound, "folder_unreadable", "folder could not be read", h.logger)
		return
	}
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, emptyDocsResult{Files: files}, h.logger)
}

type sessionHandler struct {
	sessions *session.Registry
	indexer  Indexer
	folders  *security.Folder
	logger   log.Logger
}

type sessionResult struct {
	SessionID string `json:"session_id"`
}

func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResult{SessionID: s.ID}, h.logger)
}

func (h *sessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type selectKBRequest struct {
	Folder string `json:"folder"`
}

// selectKB points the session at a knowledge-base folder and ensures its
// index is ready, building it when missing.
func (h *sessionHandler) selectKB(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req selectKBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Folder == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "folder is required", h.logger)
		return
	}

	folder, err := h.folders.Validate(req.Folder)
	if err != nil {
		writeError(w, http.StatusForbidden, "folder_denied", "folder is outside the allowed roots", h.logger)
		return
	}

	ok, message := h.indexer.LoadOrBuild(r.Context(), folder)
	if !ok {
		writeJSON(w, http.StatusOK, indexResult{Success: false, Message: message}, h.logger)
		return
	}

	if err := h.sessions.SelectFolder(id, folder); err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown session", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, indexResult{Success: true, Message: message}, h.logger)
}

type answerHandler struct {
	sessions  *session.Registry
	responder Answerer
	history   int
	logger    log.Logger
}

type answerRequest struct {
	Message string `json:"message"`
}

type answerResult struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// answer runs the retrieval pipeline for one conversation turn and records
// the exchange in the session history.
func (h *answerHandler) answer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required", h.logger)
		return
	}

	folder, err := h.sessions.Folder(id)
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "unknown session", h.logger)
		return
	case errors.Is(err, session.ErrNoFolder):
		writeError(w, http.StatusConflict, "no_knowledge_base", "select a knowledge base first", h.logger)
		return
	}

	records, err := h.sessions.History(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown session", h.logger)
		return
	}
	history := make([]respond.Turn, len(records))
	for i, rec := range records {
		history[i] = respond.Turn{User: rec.User, Assistant: rec.Assistant}
	}

	resp := h.responder.Generate(r.Context(), folder, req.Message, history)

	if err := h.sessions.AppendTurn(id, req.Message, resp.Answer, h.history); err != nil {
		h.logger.Warn("recording turn failed", "session_id", id, "error", err)
	}

	writeJSON(w, http.StatusOK, answerResult{
		Answer:      resp.Answer,
		Sources:     resp.Sources,
		Suggestions: resp.Suggestions,
	}, h.logger)
}

type catalogHandler struct {
	store  *catalog.Store
	logger log.Logger
}

type catalogEntry struct {
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type"`
	Description  string `json:"description"`
	Deleted      bool   `json:"deleted"`
}

// list returns the cataloged documents, newest analysis first.
func (h *catalogHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("catalog list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "could not list documents", h.logger)
		return
	}

	out := make([]catalogEntry, len(entries))
	for i, e := range entries {
		out[i] = catalogEntry{
			Filename:     e.Filename,
			DocumentType: e.DocumentType,
			Description:  e.Description,
			Deleted:      e.Deleted,
		}
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}
