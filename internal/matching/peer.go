package matching

import (
	"sort"
	"time"

	"github.com/ambre/reconciler/internal/domain"
)

// Peer criterion weights.
const (
	weightEventNum       = 3
	weightDwingsOverlap  = 3
	weightAmountOpposite = 2
	weightDateWindow     = 1
)

// peerDateWindow is the maximum operation-date distance, truncated to whole
// dates, inclusive.
const peerDateWindow = 7

// maxPeerCandidates caps the returned candidate list.
const maxPeerCandidates = 100

// FindPeerMatches scores every record in pool against rec for a cross-account
// pairing. The source itself and records on the same account side are
// excluded. When the source carries a reconciliation number, the number
// relation is a hard pre-filter: only peers sharing it (directly or via
// origin number) are scored at all. Read-only.
func FindPeerMatches(rec *domain.ReconciliationRecord, pool []*domain.ReconciliationRecord) []domain.MatchCandidate {
	if rec == nil {
		return nil
	}

	var candidates []domain.MatchCandidate
	for _, other := range pool {
		if other == nil || other.ID == rec.ID || other.AccountSide == rec.AccountSide {
			continue
		}
		if rec.ReconciliationNum != "" && !reconNumsLinked(rec, other) {
			continue
		}

		score := 0
		var matchedOn []string

		if rec.EventNum != "" && rec.EventNum == other.EventNum {
			score += weightEventNum
			matchedOn = append(matchedOn, domain.CriterionEventNum)
		}
		if dwingsRefsOverlap(rec, other) {
			score += weightDwingsOverlap
			matchedOn = append(matchedOn, domain.CriterionDwingsOverlap)
		}
		if amountsOpposite(rec.SignedAmount, other.SignedAmount) {
			score += weightAmountOpposite
			matchedOn = append(matchedOn, domain.CriterionAmountOpposite)
		}
		if datesWithinWindow(rec.OperationDate, other.OperationDate) {
			score += weightDateWindow
			matchedOn = append(matchedOn, domain.CriterionDateWindow)
		}

		if score > 0 {
			candidates = append(candidates, domain.MatchCandidate{
				Type:      domain.CandidatePeerLine,
				ID:        other.ID,
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

	if len(candidates) > maxPeerCandidates {
		candidates = candidates[:maxPeerCandidates]
	}
	return candidates
}

// reconNumsLinked reports whether the two records share a reconciliation
// number, either directly or through one side's origin number.
func reconNumsLinked(a, b *domain.ReconciliationRecord) bool {
	if a.ReconciliationNum != "" && a.ReconciliationNum == b.ReconciliationNum {
		return true
	}
	if a.ReconciliationNum != "" && a.ReconciliationNum == b.ReconciliationOriginNum {
		return true
	}
	return b.ReconciliationNum != "" && b.ReconciliationNum == a.ReconciliationOriginNum
}

func dwingsRefsOverlap(a, b *domain.ReconciliationRecord) bool {
	refs := a.DwingsRefs()
	if len(refs) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		set[r] = struct{}{}
	}
	for _, r := range b.DwingsRefs() {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func datesWithinWindow(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	da := a.Truncate(24 * time.Hour)
	db := b.Truncate(24 * time.Hour)
	diff := da.Sub(db)
	if diff < 0 {
		diff = -diff
	}
	return diff <= peerDateWindow*24*time.Hour
}
