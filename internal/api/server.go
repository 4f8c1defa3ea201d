package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctalk0/doctalk/internal/catalog"
	"github.com/doctalk0/doctalk/internal/log"
	"github.com/doctalk0/doctalk/internal/security"
	"github.com/doctalk0/doctalk/internal/session"
)

// ServerConfig contains everything needed to build the API server.
type ServerConfig struct {
	Logger       log.Logger
	Indexer      Indexer          // Required
	Responder    Answerer         // Required
	Sessions     *session.Registry // Required
	Loader       EmptyDocLister   // Required
	HistoryDepth int              // turns kept per session (0 = default 10)
	Folders      *security.Folder // Optional: nil allows any folder
	Catalog      *catalog.Store   // Optional: nil disables /api/v1/documents
	Pool         *pgxpool.Pool    // Optional: nil disables pool check in /ready
}

// Server is the JSON API HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Indexer == nil || cfg.Responder == nil || cfg.Sessions == nil || cfg.Loader == nil {
		return nil, errors.New("indexer, responder, sessions and loader are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 10
	}
	folders := cfg.Folders
	if folders == nil {
		folders, _ = security.NewFolder(nil)
	}

	ih := &indexHandler{indexer: cfg.Indexer, loader: cfg.Loader, folders: folders, logger: logger}
	sh := &sessionHandler{sessions: cfg.Sessions, indexer: cfg.Indexer, folders: folders, logger: logger}
	ah := &answerHandler{sessions: cfg.Sessions, responder: cfg.Responder, history: cfg.HistoryDepth, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/index", ih.index)
	mux.HandleFunc("GET /api/v1/empty-docs", ih.emptyDocs)

	mux.HandleFunc("POST /api/v1/sessions", sh.create)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", sh.delete)
	mux.HandleFunc("POST /api/v1/sessions/{id}/knowledge-base", sh.selectKB)
	mux.HandleFunc("POST /api/v1/sessions/{id}/messages", ah.answer)

	if cfg.Catalog != nil {
		ch := &catalogHandler{store: cfg.Catalog, logger: logger}
		mux.HandleFunc("GET /api/v1/documents", ch.list)
	}

	// Middleware stack, outermost first: Recovery → RequestID → Logging.
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation calls are slow; write timeout must cover a full
		// pipeline run including retries.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness reports whether the server can take traffic. With a pool
// configured it also checks database connectivity.
func readiness(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}
