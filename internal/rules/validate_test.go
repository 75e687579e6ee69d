package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambre/reconciler/internal/domain"
)

func validRule(id string) domain.TruthRule {
	return domain.TruthRule{
		RuleID:      id,
		Enabled:     true,
		Priority:    1,
		Scope:       domain.ScopeBoth,
		AccountSide: domain.Wildcard,
		ApplyTarget: domain.TargetSelf,
	}
}

func TestValidateRuleSetAcceptsValidRules(t *testing.T) {
	rules := []domain.TruthRule{validRule("A"), validRule("B")}
	assert.NoError(t, ValidateRuleSet(rules))
}

func TestValidateRuleSetRejectsDuplicateID(t *testing.T) {
	rules := []domain.TruthRule{validRule("A"), validRule("A")}
	err := ValidateRuleSet(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate rule id "A"`)
}

func TestValidateRuleSetRejectsBadEnums(t *testing.T) {
	r := validRule("A")
	r.AccountSide = "X"
	require.Error(t, ValidateRuleSet([]domain.TruthRule{r}))

	r = validRule("B")
	r.Scope = "SOMETIMES"
	require.Error(t, ValidateRuleSet([]domain.TruthRule{r}))

	r = validRule("C")
	r.ApplyTarget = ""
	require.Error(t, ValidateRuleSet([]domain.TruthRule{r}))

	r = validRule("D")
	r.RuleID = ""
	require.Error(t, ValidateRuleSet([]domain.TruthRule{r}))
}

func TestValidateRuleSetRejectsInvertedRange(t *testing.T) {
	r := validRule("A")
	r.DaysSinceTriggerMin = intPtr(10)
	r.DaysSinceTriggerMax = intPtr(5)
	err := ValidateRuleSet([]domain.TruthRule{r})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "days_since_trigger")
}

func TestBuildFactsDerivations(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	trigger := time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)
	op := time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC)

	rec := &domain.ReconciliationRecord{
		AccountSide:     domain.SidePivot,
		Sign:            domain.SignDebit,
		DwingsInvoiceID: "BGI1",
		TriggerDate:     &trigger,
		OperationDate:   &op,
		ActionID:        intPtr(6),
	}

	f := BuildFacts(rec, now)
	assert.Equal(t, "P", f.AccountSide)
	assert.True(t, *f.HasDwingsLink)
	assert.False(t, *f.TriggerDateIsNull)
	assert.True(t, *f.IsFirstRequest)
	assert.Equal(t, 10, *f.DaysSinceTrigger)
	assert.Equal(t, 30, *f.OperationDaysAgo)
	assert.Nil(t, f.DaysSinceReminder)
	assert.Nil(t, f.IsAmountMatch, "matching-derived facts stay unset")
	assert.Equal(t, 6, *f.CurrentActionID)
}

func TestEnrichFromInvoice(t *testing.T) {
	f := Facts{}
	f.EnrichFromInvoice(&domain.Invoice{MTStatus: "ACKED", CommunicationID: "email", Status: "PAID"})
	assert.True(t, *f.MTStatusAcked)
	assert.True(t, *f.CommIDEmail)
	assert.False(t, *f.BgiStatusInitiated)

	var empty Facts
	empty.EnrichFromInvoice(nil)
	assert.Nil(t, empty.MTStatusAcked)
}

func TestLabelTables(t *testing.T) {
	id, ok := ActionIDByLabel("investigate")
	require.True(t, ok)
	assert.Equal(t, 2, id)
	assert.Equal(t, "INVESTIGATE", ActionLabel(id))

	_, ok = ActionIDByLabel("NOT_A_LABEL")
	assert.False(t, ok)

	id, ok = KpiIDByLabel("paid not reconciled")
	require.True(t, ok)
	assert.Equal(t, 1, id)

	id, ok = IncidentTypeIDByLabel("AMOUNT_DISCREPANCY")
	require.True(t, ok)
	assert.Equal(t, 2, id)
}
