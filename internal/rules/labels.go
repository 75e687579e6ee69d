package rules

import "strings"

// Static label tables for the workflow enumerations. Built once at package
// init; the rule editor and the API resolve free-text labels through these
// instead of any runtime reflection.

var actionLabels = []string{
	"NA",
	"MATCH",
	"INVESTIGATE",
	"REQUEST",
	"ADJUST",
	"EXECUTE",
	"TRIGGER",
	"TO_CLAIM",
	"REMIND",
	"DISPUTE",
}

var kpiLabels = []string{
	"NA",
	"PAID_NOT_RECONCILED",
	"NOT_CLAIMED",
	"CLAIMED_NOT_PAID",
	"UNDER_INVESTIGATION",
	"IT_ISSUE",
	"CORRESPONDENT_CHARGES",
}

var incidentTypeLabels = []string{
	"NA",
	"MISSING_INVOICE",
	"AMOUNT_DISCREPANCY",
	"WRONG_ACCOUNT",
	"DUPLICATE_PAYMENT",
	"LATE_SETTLEMENT",
}

var (
	actionIDByLabel       map[string]int
	kpiIDByLabel          map[string]int
	incidentTypeIDByLabel map[string]int
)

func init() {
	actionIDByLabel = buildLabelIndex(actionLabels)
	kpiIDByLabel = buildLabelIndex(kpiLabels)
	incidentTypeIDByLabel = buildLabelIndex(incidentTypeLabels)
}

func buildLabelIndex(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for id, label := range labels {
		idx[normalizeLabel(label)] = id
	}
	return idx
}

func normalizeLabel(label string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
}

// ActionIDByLabel resolves an action label to its id.
func ActionIDByLabel(label string) (int, bool) {
	id, ok := actionIDByLabel[normalizeLabel(label)]
	return id, ok
}

// KpiIDByLabel resolves a KPI label to its id.
func KpiIDByLabel(label string) (int, bool) {
	id, ok := kpiIDByLabel[normalizeLabel(label)]
	return id, ok
}

// IncidentTypeIDByLabel resolves an incident type label to its id.
func IncidentTypeIDByLabel(label string) (int, bool) {
	id, ok := incidentTypeIDByLabel[normalizeLabel(label)]
	return id, ok
}

// ActionLabel returns the label for an action id, or "NA" when out of range.
func ActionLabel(id int) string {
	if id < 0 || id >= len(actionLabels) {
		return actionLabels[0]
	}
	return actionLabels[id]
}
