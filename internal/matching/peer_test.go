package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambre/reconciler/internal/domain"
)

func TestFindPeerMatchesOppositeAmountAndDateWindow(t *testing.T) {
	a := &domain.ReconciliationRecord{
		ID:            "P1",
		AccountSide:   domain.SidePivot,
		SignedAmount:  100,
		OperationDate: datePtr(2024, 1, 1),
	}
	b := &domain.ReconciliationRecord{
		ID:            "R1",
		AccountSide:   domain.SideReceivable,
		SignedAmount:  -100,
		OperationDate: datePtr(2024, 1, 5),
	}
	pool := []*domain.ReconciliationRecord{a, b}

	fromA := FindPeerMatches(a, pool)
	require.Len(t, fromA, 1)
	assert.Equal(t, "R1", fromA[0].ID)
	assert.GreaterOrEqual(t, fromA[0].Score, 3)
	assert.Contains(t, fromA[0].MatchedOn, domain.CriterionAmountOpposite)
	assert.Contains(t, fromA[0].MatchedOn, domain.CriterionDateWindow)

	// The pair appears in each other's candidate list with the same score.
	fromB := FindPeerMatches(b, pool)
	require.Len(t, fromB, 1)
	assert.Equal(t, "P1", fromB[0].ID)
	assert.Equal(t, fromA[0].Score, fromB[0].Score)
}

func TestFindPeerMatchesExcludesSelfAndSameSide(t *testing.T) {
	a := &domain.ReconciliationRecord{ID: "P1", AccountSide: domain.SidePivot, SignedAmount: 50}
	sameSide := &domain.ReconciliationRecord{ID: "P2", AccountSide: domain.SidePivot, SignedAmount: -50}

	got := FindPeerMatches(a, []*domain.ReconciliationRecord{a, sameSide})
	assert.Empty(t, got)
}

func TestFindPeerMatchesReconNumPreFilter(t *testing.T) {
	src := &domain.ReconciliationRecord{
		ID:                "P1",
		AccountSide:       domain.SidePivot,
		ReconciliationNum: "RN-77",
		SignedAmount:      200,
	}
	linked := &domain.ReconciliationRecord{
		ID:                      "R1",
		AccountSide:             domain.SideReceivable,
		ReconciliationOriginNum: "RN-77",
		SignedAmount:            -200,
	}
	unlinked := &domain.ReconciliationRecord{
		ID:           "R2",
		AccountSide:  domain.SideReceivable,
		SignedAmount: -200,
	}

	got := FindPeerMatches(src, []*domain.ReconciliationRecord{linked, unlinked})
	require.Len(t, got, 1, "recon number acts as a hard restriction")
	assert.Equal(t, "R1", got[0].ID)
}

func TestFindPeerMatchesEventNumAndDwingsOverlap(t *testing.T) {
	src := &domain.ReconciliationRecord{
		ID:              "P1",
		AccountSide:     domain.SidePivot,
		EventNum:        "EV-9",
		DwingsInvoiceID: "BGI2024010042",
	}
	peer := &domain.ReconciliationRecord{
		ID:          "R1",
		AccountSide: domain.SideReceivable,
		EventNum:    "EV-9",
		DwingsRef:   "BGI2024010042",
	}

	got := FindPeerMatches(src, []*domain.ReconciliationRecord{peer})
	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].Score)
	assert.ElementsMatch(t, []string{domain.CriterionEventNum, domain.CriterionDwingsOverlap}, got[0].MatchedOn)
}

func TestFindPeerMatchesTolerantOfMissingFields(t *testing.T) {
	src := &domain.ReconciliationRecord{ID: "P1", AccountSide: domain.SidePivot}
	peer := &domain.ReconciliationRecord{ID: "R1", AccountSide: domain.SideReceivable, SignedAmount: 10}

	// No criterion fires: nothing throws, nothing returned.
	assert.Empty(t, FindPeerMatches(src, []*domain.ReconciliationRecord{peer, nil}))
}

func TestFindPeerMatchesCap(t *testing.T) {
	src := &domain.ReconciliationRecord{
		ID:            "P1",
		AccountSide:   domain.SidePivot,
		SignedAmount:  100,
		OperationDate: datePtr(2024, 1, 1),
	}
	var pool []*domain.ReconciliationRecord
	for i := 0; i < 120; i++ {
		pool = append(pool, &domain.ReconciliationRecord{
			ID:            fmt.Sprintf("R%03d", i),
			AccountSide:   domain.SideReceivable,
			SignedAmount:  -100,
			OperationDate: datePtr(2024, 1, 2),
		})
	}

	got := FindPeerMatches(src, pool)
	assert.Len(t, got, 100)
	// Equal scores: ordered by record id ascending.
	assert.Equal(t, "R000", got[0].ID)
}
