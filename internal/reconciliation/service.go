package reconciliation

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ambre/reconciler/internal/domain"
	"github.com/ambre/reconciler/internal/matching"
	"github.com/ambre/reconciler/internal/repository"
	"github.com/ambre/reconciler/internal/rules"
)

// autoLinkScore is the minimum suggestion score required before a candidate
// is linked without operator confirmation. It can only be reached through
// the identifier-containment criterion plus at least one corroborating one.
const autoLinkScore = 5

// MatchRunResult summarises an auto-match pass over one country dataset.
type MatchRunResult struct {
	RunID       string `json:"run_id"`
	Country     string `json:"country"`
	Records     int    `json:"records"`
	AutoLinked  int    `json:"auto_linked"`
	Suggestions int    `json:"suggestions"`
}

// RuleRunResult summarises a rule-evaluation pass over one country dataset.
type RuleRunResult struct {
	RunID       string           `json:"run_id"`
	Country     string           `json:"country"`
	Scope       domain.RuleScope `json:"scope"`
	Records     int              `json:"records"`
	Applied     int              `json:"applied"`
	Suggestions int              `json:"suggestions"`
	NoDecision  int              `json:"no_decision"`
	Errors      int              `json:"errors"`
}

// Service runs the decision subsystem over full country datasets.
type Service struct {
	recordRepo  *repository.RecordRepo
	ruleRepo    *repository.RuleRepo
	catalogRepo *repository.CatalogRepo
	accounts    map[string]domain.AccountMap
}

// NewService creates a new batch service. accountMaps carries the
// per-country pivot/receivable account mapping.
func NewService(
	recordRepo *repository.RecordRepo,
	ruleRepo *repository.RuleRepo,
	catalogRepo *repository.CatalogRepo,
	accountMaps []domain.AccountMap,
) *Service {
	accounts := make(map[string]domain.AccountMap, len(accountMaps))
	for _, m := range accountMaps {
		accounts[m.Country] = m
	}
	return &Service{
		recordRepo:  recordRepo,
		ruleRepo:    ruleRepo,
		catalogRepo: catalogRepo,
		accounts:    accounts,
	}
}

// RunAutoMatch suggests invoices for every unlinked record and links the top
// candidate when its score clears the auto-link threshold with the invoice
// id present in the record's texts. The matched-flag recomputation runs as a
// single sequential pass at the end, after all links are applied.
func (s *Service) RunAutoMatch(ctx context.Context, country string) (*MatchRunResult, error) {
	records, err := s.recordRepo.GetByCountry(country)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	catalog, err := s.catalogRepo.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	result := &MatchRunResult{
		RunID:   uuid.NewString(),
		Country: country,
		Records: len(records),
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s cancelled: %w", result.RunID, err)
		}
		if rec.HasDwingsLink() {
			continue
		}
		candidates := matching.SuggestInvoices(rec, catalog, 1)
		if len(candidates) == 0 {
			continue
		}
		top := candidates[0]
		if top.Score >= autoLinkScore && hasCriterion(top, domain.CriterionIDInLabel) {
			matching.ApplyLink(rec, top, catalog)
			result.AutoLinked++
		} else {
			result.Suggestions++
		}
	}

	matching.RecomputeMatchedFlags(records, s.accounts[country])

	if err := s.recordRepo.BulkUpdate(records); err != nil {
		return nil, fmt.Errorf("persist records: %w", err)
	}

	log.Printf("[reconciliation] Auto-match %s (%s): %d records, %d linked, %d left as suggestions",
		result.RunID, country, result.Records, result.AutoLinked, result.Suggestions)

	return result, nil
}

// RunRules evaluates the stored rule set against every record of the
// country dataset for the given lifecycle scope and applies auto-apply
// decisions. Per-record isolation: one record's failure is counted and
// logged, never aborts the batch. Cancellation is honoured between records.
func (s *Service) RunRules(ctx context.Context, country string, scope domain.RuleScope) (*RuleRunResult, error) {
	ruleSet, err := s.ruleRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	if err := rules.ValidateRuleSet(ruleSet); err != nil {
		return nil, fmt.Errorf("rule set rejected: %w", err)
	}

	records, err := s.recordRepo.GetByCountry(country)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	catalog, err := s.catalogRepo.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	result := &RuleRunResult{
		RunID:   uuid.NewString(),
		Country: country,
		Scope:   scope,
		Records: len(records),
	}

	resolve := counterpartResolver(records)
	groupCounts := reconNumCounts(records)
	now := time.Now()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s cancelled: %w", result.RunID, err)
		}
		switch s.evaluateOne(rec, ruleSet, scope, catalog, groupCounts, resolve, now) {
		case outcomeApplied:
			result.Applied++
		case outcomeSuggested:
			result.Suggestions++
		case outcomeNoDecision:
			result.NoDecision++
		case outcomeError:
			result.Errors++
		}
	}

	// Serialized tail pass: the matched-flag grouping reads the whole set.
	matching.RecomputeMatchedFlags(records, s.accounts[country])

	if err := s.recordRepo.BulkUpdate(records); err != nil {
		return nil, fmt.Errorf("persist records: %w", err)
	}

	log.Printf("[reconciliation] Rule run %s (%s/%s): %d records, %d applied, %d suggestions, %d no-decision, %d errors",
		result.RunID, country, scope, result.Records, result.Applied,
		result.Suggestions, result.NoDecision, result.Errors)

	return result, nil
}

// EvaluationResult is the read-only outcome of evaluating one record,
// optionally with the per-rule trace.
type EvaluationResult struct {
	RecordID string            `json:"record_id"`
	Scope    domain.RuleScope  `json:"scope"`
	Matched  bool              `json:"matched"`
	Decision *domain.Decision  `json:"decision,omitempty"`
	Trace    []rules.RuleTrace `json:"trace,omitempty"`
}

// EvaluateRecord runs the stored rule set against a single record without
// applying anything. With withTrace set, the result carries the field-level
// verdict of every eligible rule in evaluation order.
func (s *Service) EvaluateRecord(rec *domain.ReconciliationRecord, scope domain.RuleScope, withTrace bool) (*EvaluationResult, error) {
	ruleSet, err := s.ruleRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	records, err := s.recordRepo.GetByCountry(rec.Country)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	catalog, err := s.catalogRepo.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	facts := s.BuildRecordFacts(rec, catalog, reconNumCounts(records), time.Now())

	result := &EvaluationResult{RecordID: rec.ID, Scope: scope}
	if dec, ok := rules.Evaluate(facts, ruleSet, scope); ok {
		result.Matched = true
		result.Decision = &dec
	}
	if withTrace {
		result.Trace = rules.EvaluateTrace(facts, ruleSet, scope)
	}
	return result, nil
}

type evalOutcome int

const (
	outcomeApplied evalOutcome = iota
	outcomeSuggested
	outcomeNoDecision
	outcomeError
)

func (s *Service) evaluateOne(
	rec *domain.ReconciliationRecord,
	ruleSet []domain.TruthRule,
	scope domain.RuleScope,
	catalog *domain.Catalog,
	groupCounts map[string]int,
	resolve rules.CounterpartResolver,
	now time.Time,
) (outcome evalOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[reconciliation] WARNING: record %s evaluation panicked: %v", rec.ID, r)
			outcome = outcomeError
		}
	}()

	facts := s.BuildRecordFacts(rec, catalog, groupCounts, now)

	dec, ok := rules.Evaluate(facts, ruleSet, scope)
	if !ok {
		return outcomeNoDecision
	}

	applied := rules.Apply(dec, rec, resolve, now)
	if applied.Applied {
		return outcomeApplied
	}
	return outcomeSuggested
}

// BuildRecordFacts derives the complete fact set for one record: the
// record-only facts plus the matching-derived and invoice-derived ones.
func (s *Service) BuildRecordFacts(
	rec *domain.ReconciliationRecord,
	catalog *domain.Catalog,
	groupCounts map[string]int,
	now time.Time,
) rules.Facts {
	facts := rules.BuildFacts(rec, now)

	grouped := rec.ReconciliationNum != "" && groupCounts[rec.ReconciliationNum] > 1
	facts.IsGrouped = &grouped

	if inv, ok := catalog.InvoiceByID(rec.DwingsInvoiceID); ok {
		facts.EnrichFromInvoice(inv)
		amountMatch := matching.AmountsMatch(rec.SignedAmount, inv.BillingAmount)
		facts.IsAmountMatch = &amountMatch
	}

	return facts
}

// counterpartResolver resolves the opposite-side record linked through the
// shared DWINGS invoice, lowest record id first for determinism.
func counterpartResolver(records []*domain.ReconciliationRecord) rules.CounterpartResolver {
	byInvoice := make(map[string][]*domain.ReconciliationRecord)
	for _, rec := range records {
		if rec.DwingsInvoiceID != "" {
			byInvoice[rec.DwingsInvoiceID] = append(byInvoice[rec.DwingsInvoiceID], rec)
		}
	}
	for _, group := range byInvoice {
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}

	return func(rec *domain.ReconciliationRecord) *domain.ReconciliationRecord {
		if rec == nil || rec.DwingsInvoiceID == "" {
			return nil
		}
		for _, other := range byInvoice[rec.DwingsInvoiceID] {
			if other.ID != rec.ID && other.AccountSide != rec.AccountSide {
				return other
			}
		}
		return nil
	}
}

func reconNumCounts(records []*domain.ReconciliationRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.ReconciliationNum != "" {
			counts[rec.ReconciliationNum]++
		}
	}
	return counts
}

func hasCriterion(cand domain.MatchCandidate, name string) bool {
	for _, c := range cand.MatchedOn {
		if c == name {
			return true
		}
	}
	return false
}

// AccountMapFor returns the configured account mapping for a country.
func (s *Service) AccountMapFor(country string) domain.AccountMap {
	return s.accounts[country]
}
