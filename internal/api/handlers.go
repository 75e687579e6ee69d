package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ambre/reconciler/internal/domain"
	"github.com/ambre/reconciler/internal/ingestion"
	"github.com/ambre/reconciler/internal/matching"
	"github.com/ambre/reconciler/internal/reconciliation"
	"github.com/ambre/reconciler/internal/repository"
	"github.com/ambre/reconciler/internal/rules"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	recordRepo   *repository.RecordRepo
	ruleRepo     *repository.RuleRepo
	catalogRepo  *repository.CatalogRepo
	ingestionSvc *ingestion.Service
	reconSvc     *reconciliation.Service
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func parseBoolFilter(s string) *bool {
	switch s {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func readMultipartFile(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

func parseScope(s string) (domain.RuleScope, bool) {
	switch domain.RuleScope(s) {
	case "", domain.ScopeBoth:
		return domain.ScopeBoth, true
	case domain.ScopeImport:
		return domain.ScopeImport, true
	case domain.ScopeEdit:
		return domain.ScopeEdit, true
	}
	return "", false
}

// --- IngestStatement ---

func (h *Handlers) IngestStatement(w http.ResponseWriter, r *http.Request) {
	country := r.FormValue("country")
	if country == "" {
		writeError(w, http.StatusBadRequest, "country is required")
		return
	}

	data, filename, err := readMultipartFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}

	result, err := h.ingestionSvc.IngestStatement(r.Context(), filename, data, country)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- IngestInvoices / IngestGuarantees ---

func (h *Handlers) IngestInvoices(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readMultipartFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}

	result, err := h.ingestionSvc.IngestInvoices(filename, data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) IngestGuarantees(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readMultipartFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}

	result, err := h.ingestionSvc.IngestGuarantees(filename, data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- ListRecords ---

func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.RecordFilter{
		Country:     q.Get("country"),
		AccountSide: q.Get("side"),
		Linked:      parseBoolFilter(q.Get("linked")),
		Matched:     parseBoolFilter(q.Get("matched")),
		Page:        parseIntDefault(q.Get("page"), 1),
		Limit:       parseIntDefault(q.Get("limit"), 50),
	}

	records, total, err := h.recordRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

// --- GetRecord ---

func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) loadRecord(w http.ResponseWriter, r *http.Request) (*domain.ReconciliationRecord, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return nil, false
	}
	rec, err := h.recordRepo.GetByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "record not found")
		return nil, false
	}
	return rec, true
}

// --- GetSuggestions ---

func (h *Handlers) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadRecord(w, r)
	if !ok {
		return
	}

	take := parseIntDefault(r.URL.Query().Get("take"), 10)
	catalog, err := h.catalogRepo.LoadCatalog()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	candidates := matching.SuggestInvoices(rec, catalog, take)
	writeJSON(w, http.StatusOK, map[string]any{
		"record_id":  rec.ID,
		"candidates": candidates,
	})
}

// --- GetPeerMatches ---

func (h *Handlers) GetPeerMatches(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadRecord(w, r)
	if !ok {
		return
	}

	pool, err := h.recordRepo.GetByCountry(rec.Country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	candidates := matching.FindPeerMatches(rec, pool)
	writeJSON(w, http.StatusOK, map[string]any{
		"record_id":  rec.ID,
		"candidates": candidates,
	})
}

// --- LinkRecord ---

type linkRequest struct {
	Type domain.CandidateType `json:"type"`
	ID   string               `json:"id"`
}

func (h *Handlers) LinkRecord(w http.ResponseWriter, r *http.Request) {
	recID := chi.URLParam(r, "id")

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	target, err := h.recordRepo.GetByID(recID)
	if err != nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	pool, err := h.recordRepo.GetByCountry(target.Country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rec := findInPool(pool, recID)
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	switch req.Type {
	case domain.CandidateInvoice, domain.CandidateGuarantee:
		catalog, err := h.catalogRepo.LoadCatalog()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if req.Type == domain.CandidateInvoice {
			if _, ok := catalog.InvoiceByID(req.ID); !ok {
				writeError(w, http.StatusNotFound, "invoice not found")
				return
			}
		} else {
			if _, ok := catalog.GuaranteeByID(req.ID); !ok {
				writeError(w, http.StatusNotFound, "guarantee not found")
				return
			}
		}
		matching.ApplyLink(rec, domain.MatchCandidate{Type: req.Type, ID: req.ID}, catalog)
		rec.ManualMatch = true

	case domain.CandidatePeerLine:
		peer := findInPool(pool, req.ID)
		if peer == nil {
			writeError(w, http.StatusNotFound, "peer record not found")
			return
		}
		matching.LinkPeers(rec, peer)
		rec.ManualMatch = true
		peer.ManualMatch = true

	default:
		writeError(w, http.StatusBadRequest, "type must be INVOICE, GUARANTEE or PEER_LINE")
		return
	}

	matching.RecomputeMatchedFlags(pool, h.reconSvc.AccountMapFor(target.Country))

	if err := h.recordRepo.BulkUpdate(pool); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// --- UnlinkRecord ---

func (h *Handlers) UnlinkRecord(w http.ResponseWriter, r *http.Request) {
	recID := chi.URLParam(r, "id")

	target, err := h.recordRepo.GetByID(recID)
	if err != nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	pool, err := h.recordRepo.GetByCountry(target.Country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rec := findInPool(pool, recID)
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	matching.Unlink(rec)
	rec.ManualMatch = false

	matching.RecomputeMatchedFlags(pool, h.reconSvc.AccountMapFor(target.Country))

	if err := h.recordRepo.BulkUpdate(pool); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func findInPool(pool []*domain.ReconciliationRecord, id string) *domain.ReconciliationRecord {
	for _, rec := range pool {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// --- ListRules / ReplaceRules ---

func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	ruleSet, err := h.ruleRepo.ListAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rules": ruleSet,
		"total": len(ruleSet),
	})
}

func (h *Handlers) ReplaceRules(w http.ResponseWriter, r *http.Request) {
	var ruleSet []domain.TruthRule
	if err := json.NewDecoder(r.Body).Decode(&ruleSet); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	if err := rules.ValidateRuleSet(ruleSet); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.ruleRepo.ReplaceAll(ruleSet); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("[api] Rule set replaced: %d rules", len(ruleSet))
	writeJSON(w, http.StatusOK, map[string]any{"stored": len(ruleSet)})
}

// --- EvaluateRecord ---

func (h *Handlers) EvaluateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadRecord(w, r)
	if !ok {
		return
	}

	scope, ok := parseScope(r.URL.Query().Get("scope"))
	if !ok {
		writeError(w, http.StatusBadRequest, "scope must be BOTH, IMPORT or EDIT")
		return
	}
	withTrace := r.URL.Query().Get("trace") == "1"

	result, err := h.reconSvc.EvaluateRecord(rec, scope, withTrace)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- RunReconciliation ---

type runRequest struct {
	Country string `json:"country"`
	Scope   string `json:"scope"`
}

func (h *Handlers) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.Country == "" {
		writeError(w, http.StatusBadRequest, "country is required")
		return
	}
	scope, ok := parseScope(req.Scope)
	if !ok {
		writeError(w, http.StatusBadRequest, "scope must be BOTH, IMPORT or EDIT")
		return
	}

	match, err := h.reconSvc.RunAutoMatch(r.Context(), req.Country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ruleRun, err := h.reconSvc.RunRules(r.Context(), req.Country, scope)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"auto_match": match,
		"rule_run":   ruleRun,
	})
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.recordRepo.GetSummaryStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ruleCount, err := h.ruleRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	invoiceCount, err := h.catalogRepo.CountInvoices()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records":  stats,
		"rules":    ruleCount,
		"invoices": invoiceCount,
	})
}
