package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambre/reconciler/internal/domain"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSuggestInvoicesIDInLabelOutranksUnrelated(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Invoice{
		{ID: "BGI2024010042", BillingAmount: 500, BillingCurrency: "EUR"},
		{ID: "BGI2024010099", BillingAmount: 123456.78, BillingCurrency: "EUR"},
	}, nil)

	rec := &domain.ReconciliationRecord{
		ID:           "L1",
		RawLabel:     "VIRT SEPA BGI2024010042 COMMISSION",
		SignedAmount: 42.10,
	}

	got := SuggestInvoices(rec, catalog, 10)
	require.Len(t, got, 1, "unrelated zero-score invoice must be excluded")
	assert.Equal(t, "BGI2024010042", got[0].ID)
	assert.Contains(t, got[0].MatchedOn, domain.CriterionIDInLabel)
}

func TestSuggestInvoicesScoringAndOrder(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Invoice{
		{
			ID:             "BGI2024010001",
			BusinessCaseID: "G00012345678",
			BillingAmount:  1000,
			BGPMT:          "BGPMT2401A7X9",
			StartDate:      datePtr(2024, 1, 1),
			EndDate:        datePtr(2024, 3, 31),
		},
		{
			ID:            "BGI2024010002",
			BillingAmount: 1000,
		},
	}, nil)

	rec := &domain.ReconciliationRecord{
		ID:                "L2",
		RawLabel:          "FEES BGPMT2401A7X9 UNDER G00012345678",
		SignedAmount:      -1000, // opposite sign still counts as amount match
		ValueDate:         datePtr(2024, 2, 15),
		DwingsGuaranteeID: "G00012345678",
	}

	got := SuggestInvoices(rec, catalog, 10)
	require.Len(t, got, 2)

	// First invoice: bgpmt(3) + guarantee(2) + amount(2) + value date(1).
	assert.Equal(t, "BGI2024010001", got[0].ID)
	assert.Equal(t, 8, got[0].Score)
	assert.ElementsMatch(t, []string{
		domain.CriterionBGPMT,
		domain.CriterionGuaranteeID,
		domain.CriterionAmount,
		domain.CriterionValueDate,
	}, got[0].MatchedOn)

	// Second invoice only matches on amount.
	assert.Equal(t, "BGI2024010002", got[1].ID)
	assert.Equal(t, 2, got[1].Score)
}

func TestSuggestInvoicesDeterministicTieBreak(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Invoice{
		{ID: "BGI2024010020", BillingAmount: 250},
		{ID: "BGI2024010010", BillingAmount: 250},
	}, nil)

	rec := &domain.ReconciliationRecord{ID: "L3", SignedAmount: 250}

	got := SuggestInvoices(rec, catalog, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "BGI2024010010", got[0].ID)
	assert.Equal(t, "BGI2024010020", got[1].ID)
}

func TestSuggestInvoicesTake(t *testing.T) {
	invoices := []domain.Invoice{
		{ID: "BGI2024010001", BillingAmount: 99},
		{ID: "BGI2024010002", BillingAmount: 99},
		{ID: "BGI2024010003", BillingAmount: 99},
	}
	rec := &domain.ReconciliationRecord{ID: "L4", SignedAmount: 99}

	got := SuggestInvoices(rec, domain.NewCatalog(invoices, nil), 2)
	assert.Len(t, got, 2)

	assert.Nil(t, SuggestInvoices(rec, domain.NewCatalog(invoices, nil), 0))
	assert.Nil(t, SuggestInvoices(nil, domain.NewCatalog(invoices, nil), 5))
}

func TestAmountHelpers(t *testing.T) {
	assert.True(t, amountsEqual(100, 100))
	assert.True(t, amountsEqual(100, 100.5)) // within 1% relative tolerance
	assert.False(t, amountsEqual(100, 102))
	assert.True(t, amountsOpposite(100, -100))
	assert.True(t, amountsOpposite(-0.004, 0.002)) // tolerance floor of 1
	assert.False(t, amountsOpposite(100, -90))
}
