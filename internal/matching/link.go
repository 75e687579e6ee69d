package matching

import (
	"github.com/ambre/reconciler/internal/domain"
)

// ApplyLink writes the accepted candidate's identifiers onto the record.
// Invoice links also carry the invoice's payment reference and guarantee id
// when the catalog can derive them; guarantee links write the guarantee id
// only. The cross-account matched flag is NOT recomputed here — callers run
// RecomputeMatchedFlags over the full record set afterwards.
func ApplyLink(rec *domain.ReconciliationRecord, cand domain.MatchCandidate, catalog *domain.Catalog) {
	if rec == nil {
		return
	}
	switch cand.Type {
	case domain.CandidateInvoice:
		rec.DwingsInvoiceID = cand.ID
		if catalog != nil {
			if inv, ok := catalog.InvoiceByID(cand.ID); ok {
				if inv.BGPMT != "" {
					rec.DwingsBGPMT = inv.BGPMT
				}
				if inv.BusinessCaseID != "" {
					rec.DwingsGuaranteeID = inv.BusinessCaseID
				}
			}
		}
	case domain.CandidateGuarantee:
		rec.DwingsGuaranteeID = cand.ID
	}
}

// LinkPeers cross-fills DWINGS references between two statement lines
// accepted as a cross-account pair: each empty reference field takes the
// other line's value.
func LinkPeers(a, b *domain.ReconciliationRecord) {
	if a == nil || b == nil {
		return
	}
	fillEmpty(&a.DwingsInvoiceID, &b.DwingsInvoiceID)
	fillEmpty(&a.DwingsGuaranteeID, &b.DwingsGuaranteeID)
	fillEmpty(&a.DwingsBGPMT, &b.DwingsBGPMT)
	fillEmpty(&a.DwingsRef, &b.DwingsRef)
}

func fillEmpty(a, b *string) {
	if *a == "" {
		*a = *b
	} else if *b == "" {
		*b = *a
	}
}

// Unlink clears the invoice id, BGPMT and guarantee id. The payment
// reference is deliberately preserved. The matched flag is left to the next
// RecomputeMatchedFlags pass.
func Unlink(rec *domain.ReconciliationRecord) {
	if rec == nil {
		return
	}
	rec.DwingsInvoiceID = ""
	rec.DwingsBGPMT = ""
	rec.DwingsGuaranteeID = ""
}

// RecomputeMatchedFlags runs a full pass over records: every record whose
// DwingsInvoiceID group contains at least one pivot-side and one
// receivable-side line (sides resolved through the country account map) gets
// IsMatchedAcrossAccounts = true, every other record false. Idempotent.
// This is the only step of the matching engine that reads shared state
// derived from the whole set; callers must serialize it.
func RecomputeMatchedFlags(records []*domain.ReconciliationRecord, accounts domain.AccountMap) {
	type groupSides struct {
		pivot      bool
		receivable bool
	}
	groups := make(map[string]*groupSides)

	for _, rec := range records {
		if rec == nil || rec.DwingsInvoiceID == "" {
			continue
		}
		side, ok := accounts.Side(rec.AccountID)
		if !ok {
			side = rec.AccountSide
		}
		g := groups[rec.DwingsInvoiceID]
		if g == nil {
			g = &groupSides{}
			groups[rec.DwingsInvoiceID] = g
		}
		switch side {
		case domain.SidePivot:
			g.pivot = true
		case domain.SideReceivable:
			g.receivable = true
		}
	}

	for _, rec := range records {
		if rec == nil {
			continue
		}
		matched := false
		if rec.DwingsInvoiceID != "" {
			if g := groups[rec.DwingsInvoiceID]; g != nil {
				matched = g.pivot && g.receivable
			}
		}
		rec.IsMatchedAcrossAccounts = matched
	}
}
