// Package app assembles the application: model provider, embedder, index
// store, responder, sessions and the optional document catalog.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctalk0/doctalk/internal/catalog"
	"github.com/doctalk0/doctalk/internal/config"
	"github.com/doctalk0/doctalk/internal/document"
	"github.com/doctalk0/doctalk/internal/index"
	"github.com/doctalk0/doctalk/internal/log"
	"github.com/doctalk0/doctalk/internal/respond"
	"github.com/doctalk0/doctalk/internal/security"
	"github.com/doctalk0/doctalk/internal/session"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Loader    *document.Loader
	Store     *index.Store
	Responder *respond.Responder
	Sessions  *session.Registry
	Folders   *security.Folder

	// Catalog and Analyzer are nil unless the document catalog is enabled
	// in config.
	Catalog  *catalog.Store
	Analyzer *catalog.Analyzer
	DBPool   *pgxpool.Pool

	otelCleanup func()
}

// Close releases everything Setup acquired.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
