// Package matching scores DWINGS invoices and peer statement lines against a
// reconciliation record and applies accepted links.
package matching

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ambre/reconciler/internal/domain"
	"github.com/ambre/reconciler/internal/token"
)

// Invoice criterion weights. Identifier containment dominates; amount and
// date proximity only separate otherwise-equal candidates.
const (
	weightIDInLabel   = 4
	weightBGPMT       = 3
	weightGuaranteeID = 2
	weightAmount      = 2
	weightValueDate   = 1
)

// amountTolerance is the relative tolerance used by every amount criterion.
const amountTolerance = 0.01

// valueDateSlack is how far past an invoice's end date a value date still
// counts as proximate.
const valueDateSlack = 30 * 24 * time.Hour

// SuggestInvoices scores every catalog invoice against the record and
// returns the top take candidates, descending by score with ties broken by
// invoice id ascending. Zero-scoring invoices are excluded. Read-only.
func SuggestInvoices(rec *domain.ReconciliationRecord, catalog *domain.Catalog, take int) []domain.MatchCandidate {
	if rec == nil || catalog == nil || take <= 0 {
		return nil
	}

	texts := searchTexts(rec)
	bgpmt := rec.DwingsBGPMT
	if bgpmt == "" {
		bgpmt = token.FirstToken(token.ExtractBGPMT, texts...)
	}
	guaranteeID := rec.DwingsGuaranteeID
	if guaranteeID == "" {
		guaranteeID = token.FirstToken(token.ExtractGuaranteeID, texts...)
	}

	var candidates []domain.MatchCandidate
	for i := range catalog.Invoices {
		inv := &catalog.Invoices[i]
		score := 0
		var matchedOn []string

		if containsID(texts, inv.ID) {
			score += weightIDInLabel
			matchedOn = append(matchedOn, domain.CriterionIDInLabel)
		}
		if bgpmt != "" && bgpmt == inv.BGPMT {
			score += weightBGPMT
			matchedOn = append(matchedOn, domain.CriterionBGPMT)
		}
		if guaranteeID != "" && guaranteeID == inv.BusinessCaseID {
			score += weightGuaranteeID
			matchedOn = append(matchedOn, domain.CriterionGuaranteeID)
		}
		if amountsEqual(rec.SignedAmount, inv.BillingAmount) || amountsOpposite(rec.SignedAmount, inv.BillingAmount) {
			score += weightAmount
			matchedOn = append(matchedOn, domain.CriterionAmount)
		}
		if valueDateProximate(rec, inv) {
			score += weightValueDate
			matchedOn = append(matchedOn, domain.CriterionValueDate)
		}

		if score > 0 {
			candidates = append(candidates, domain.MatchCandidate{
				Type:      domain.CandidateInvoice,
				ID:        inv.ID,
				Score:     score,
				MatchedOn: matchedOn,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	if len(candidates) > take {
		candidates = candidates[:take]
	}
	return candidates
}

// searchTexts returns the record's free-text fields in scan order.
func searchTexts(rec *domain.ReconciliationRecord) []string {
	return []string{
		rec.RawLabel,
		rec.ReconciliationNum,
		rec.ReconciliationOriginNum,
		rec.PaymentReference,
		rec.CrossSystemRef,
	}
}

func containsID(texts []string, id string) bool {
	if id == "" {
		return false
	}
	up := strings.ToUpper(id)
	for _, t := range texts {
		if t != "" && strings.Contains(strings.ToUpper(t), up) {
			return true
		}
	}
	return false
}

// AmountsMatch reports whether two amounts are equal or exactly opposite
// within the engine tolerance. The rule engine derives its IsAmountMatch
// fact from this.
func AmountsMatch(a, b float64) bool {
	return amountsEqual(a, b) || amountsOpposite(a, b)
}

// amountsEqual reports |a-b| within the relative tolerance.
func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) <= amountTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// amountsOpposite reports |a+b| within the relative tolerance. Pivot and
// receivable sides book the same movement with inverted sign.
func amountsOpposite(a, b float64) bool {
	return math.Abs(a+b) <= amountTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func valueDateProximate(rec *domain.ReconciliationRecord, inv *domain.Invoice) bool {
	if rec.ValueDate == nil || inv.StartDate == nil || inv.EndDate == nil {
		return false
	}
	vd := *rec.ValueDate
	if vd.Before(*inv.StartDate) {
		return false
	}
	return !vd.After(inv.EndDate.Add(valueDateSlack))
}
