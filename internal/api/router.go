package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ambre/reconciler/internal/ingestion"
	"github.com/ambre/reconciler/internal/reconciliation"
	"github.com/ambre/reconciler/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	recordRepo *repository.RecordRepo,
	ruleRepo *repository.RuleRepo,
	catalogRepo *repository.CatalogRepo,
	ingestionSvc *ingestion.Service,
	reconSvc *reconciliation.Service,
) http.Handler {
	h := &Handlers{
		recordRepo:   recordRepo,
		ruleRepo:     ruleRepo,
		catalogRepo:  catalogRepo,
		ingestionSvc: ingestionSvc,
		reconSvc:     reconSvc,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Ingestion.
		r.Post("/statements/ingest", h.IngestStatement)
		r.Post("/catalog/invoices/ingest", h.IngestInvoices)
		r.Post("/catalog/guarantees/ingest", h.IngestGuarantees)

		// Records.
		r.Get("/records", h.ListRecords)
		r.Get("/records/{id}", h.GetRecord)
		r.Get("/records/{id}/suggestions", h.GetSuggestions)
		r.Get("/records/{id}/peer-matches", h.GetPeerMatches)
		r.Post("/records/{id}/link", h.LinkRecord)
		r.Post("/records/{id}/unlink", h.UnlinkRecord)
		r.Post("/records/{id}/evaluate", h.EvaluateRecord)

		// Truth rules.
		r.Get("/rules", h.ListRules)
		r.Post("/rules", h.ReplaceRules)

		// Batch runs.
		r.Post("/reconciliation/run", h.RunReconciliation)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
