package rules

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ambre/reconciler/internal/domain"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidateRuleSet checks a rule set before it is handed to the evaluator:
// field-level constraints, unique rule ids and coherent range bounds. The
// evaluator assumes a validated set, so every defect is rejected here with a
// precise error.
func ValidateRuleSet(rules []domain.TruthRule) error {
	seen := make(map[string]struct{}, len(rules))
	for i := range rules {
		r := &rules[i]
		if err := structValidator.Struct(r); err != nil {
			return fmt.Errorf("rule %q: %w", r.RuleID, err)
		}
		if _, dup := seen[r.RuleID]; dup {
			return fmt.Errorf("duplicate rule id %q", r.RuleID)
		}
		seen[r.RuleID] = struct{}{}

		if err := checkRange("days_since_trigger", r.DaysSinceTriggerMin, r.DaysSinceTriggerMax); err != nil {
			return fmt.Errorf("rule %q: %w", r.RuleID, err)
		}
		if err := checkRange("operation_days_ago", r.OperationDaysAgoMin, r.OperationDaysAgoMax); err != nil {
			return fmt.Errorf("rule %q: %w", r.RuleID, err)
		}
		if err := checkRange("days_since_reminder", r.DaysSinceReminderMin, r.DaysSinceReminderMax); err != nil {
			return fmt.Errorf("rule %q: %w", r.RuleID, err)
		}
	}
	return nil
}

func checkRange(field string, min, max *int) error {
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("%s: min %d greater than max %d", field, *min, *max)
	}
	return nil
}
