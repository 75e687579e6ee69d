package rules

import (
	"fmt"
	"sort"

	"github.com/ambre/reconciler/internal/domain"
)

// Evaluate tests the rule set against facts and returns the decision of the
// first matching rule in (Priority, RuleID) order, or ok=false when no rule
// matches. Only enabled rules eligible for scope are considered. Evaluation
// never fails: a malformed or missing fact simply fails its predicate.
func Evaluate(facts Facts, rules []domain.TruthRule, scope domain.RuleScope) (domain.Decision, bool) {
	for _, rule := range eligible(rules, scope) {
		if ruleMatches(&rule, facts) {
			return decisionFrom(&rule), true
		}
	}
	return domain.Decision{}, false
}

// FieldCheck records one predicate comparison for the debug trace.
type FieldCheck struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Pass     bool   `json:"pass"`
}

// RuleTrace is the per-rule debug outcome. Trace mode never selects a
// winner; it exists for operator troubleshooting only.
type RuleTrace struct {
	RuleID   string       `json:"rule_id"`
	Priority int          `json:"priority"`
	Matched  bool         `json:"matched"`
	Checks   []FieldCheck `json:"checks"`
}

// EvaluateTrace runs every eligible rule against facts and reports each
// constrained predicate's expected vs actual value.
func EvaluateTrace(facts Facts, rules []domain.TruthRule, scope domain.RuleScope) []RuleTrace {
	var traces []RuleTrace
	for _, rule := range eligible(rules, scope) {
		checks := fieldChecks(&rule, facts)
		matched := true
		for _, c := range checks {
			if !c.Pass {
				matched = false
				break
			}
		}
		traces = append(traces, RuleTrace{
			RuleID:   rule.RuleID,
			Priority: rule.Priority,
			Matched:  matched,
			Checks:   checks,
		})
	}
	return traces
}

// eligible filters to enabled rules of the given scope and sorts them into
// the single deterministic evaluation order: Priority ascending, RuleID
// ascending on ties.
func eligible(rules []domain.TruthRule, scope domain.RuleScope) []domain.TruthRule {
	out := make([]domain.TruthRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled && r.AppliesTo(scope) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

func ruleMatches(r *domain.TruthRule, f Facts) bool {
	for _, c := range fieldChecks(r, f) {
		if !c.Pass {
			return false
		}
	}
	return true
}

// fieldChecks evaluates every non-wildcard predicate of the rule. The same
// list drives both the first-match evaluation and the debug trace, so the
// two paths cannot diverge.
func fieldChecks(r *domain.TruthRule, f Facts) []FieldCheck {
	var checks []FieldCheck

	enum := func(field, pred, fact string) {
		if pred == "" || pred == domain.Wildcard {
			return
		}
		checks = append(checks, FieldCheck{field, pred, fact, pred == fact})
	}
	tri := func(field string, pred, fact *bool) {
		if pred == nil {
			return
		}
		checks = append(checks, FieldCheck{field, fmt.Sprintf("%t", *pred), fmtBool(fact), fact != nil && *fact == *pred})
	}
	rng := func(field string, min, max, fact *int) {
		if min == nil && max == nil {
			return
		}
		pass := fact != nil &&
			(min == nil || *fact >= *min) &&
			(max == nil || *fact <= *max)
		checks = append(checks, FieldCheck{field, fmtRange(min, max), fmtInt(fact), pass})
	}

	enum("account_side", r.AccountSide, f.AccountSide)
	enum("sign", r.Sign, f.Sign)
	enum("guarantee_type", r.GuaranteeType, f.GuaranteeType)
	enum("transaction_type", r.TransactionType, f.TransactionType)
	enum("booking", r.Booking, f.Booking)

	tri("has_dwings_link", r.HasDwingsLink, f.HasDwingsLink)
	tri("is_grouped", r.IsGrouped, f.IsGrouped)
	tri("is_amount_match", r.IsAmountMatch, f.IsAmountMatch)
	tri("mt_status_acked", r.MTStatusAcked, f.MTStatusAcked)
	tri("comm_id_email", r.CommIDEmail, f.CommIDEmail)
	tri("bgi_status_initiated", r.BgiStatusInitiated, f.BgiStatusInitiated)
	tri("trigger_date_is_null", r.TriggerDateIsNull, f.TriggerDateIsNull)
	tri("is_transitory", r.IsTransitory, f.IsTransitory)
	tri("is_matched", r.IsMatched, f.IsMatched)
	tri("has_manual_match", r.HasManualMatch, f.HasManualMatch)
	tri("is_first_request", r.IsFirstRequest, f.IsFirstRequest)

	rng("days_since_trigger", r.DaysSinceTriggerMin, r.DaysSinceTriggerMax, f.DaysSinceTrigger)
	rng("operation_days_ago", r.OperationDaysAgoMin, r.OperationDaysAgoMax, f.OperationDaysAgo)
	rng("days_since_reminder", r.DaysSinceReminderMin, r.DaysSinceReminderMax, f.DaysSinceReminder)

	if r.CurrentActionID != nil {
		pass := f.CurrentActionID != nil && *f.CurrentActionID == *r.CurrentActionID
		checks = append(checks, FieldCheck{"current_action_id", fmt.Sprintf("%d", *r.CurrentActionID), fmtInt(f.CurrentActionID), pass})
	}

	return checks
}

func decisionFrom(r *domain.TruthRule) domain.Decision {
	return domain.Decision{
		RuleID:           r.RuleID,
		ActionID:         r.OutputActionID,
		KpiID:            r.OutputKpiID,
		IncidentTypeID:   r.OutputIncidentTypeID,
		RiskyItem:        r.OutputRiskyItem,
		ReasonNonRiskyID: r.OutputReasonNonRiskyID,
		ToRemind:         r.OutputToRemind,
		ToRemindDays:     r.OutputToRemindDays,
		FirstClaimToday:  r.OutputFirstClaimToday,
		ApplyTarget:      r.ApplyTarget,
		AutoApply:        r.AutoApply,
		Message:          r.Message,
	}
}

func fmtBool(v *bool) string {
	if v == nil {
		return "missing"
	}
	return fmt.Sprintf("%t", *v)
}

func fmtInt(v *int) string {
	if v == nil {
		return "missing"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtRange(min, max *int) string {
	return fmt.Sprintf("[%s..%s]", fmtRangeBound(min), fmtRangeBound(max))
}

func fmtRangeBound(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
