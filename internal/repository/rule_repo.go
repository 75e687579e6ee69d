package repository

import (
	"database/sql"
	"fmt"

	"github.com/ambre/reconciler/internal/domain"
)

// RuleRepo persists the truth-rule set. Rules are authored externally and
// handed to the evaluator as a validated, ordered list.
type RuleRepo struct {
	db *sql.DB
}

func NewRuleRepo(db *sql.DB) *RuleRepo {
	return &RuleRepo{db: db}
}

const ruleColumns = `rule_id, enabled, priority, scope, account_side, sign,
	guarantee_type, transaction_type, booking,
	has_dwings_link, is_grouped, is_amount_match, mt_status_acked, comm_id_email,
	bgi_status_initiated, trigger_date_is_null, is_transitory, is_matched,
	has_manual_match, is_first_request,
	days_since_trigger_min, days_since_trigger_max,
	operation_days_ago_min, operation_days_ago_max,
	days_since_reminder_min, days_since_reminder_max,
	current_action_id,
	output_action_id, output_kpi_id, output_incident_type_id, output_risky_item,
	output_reason_non_risky_id, output_to_remind, output_to_remind_days,
	output_first_claim_today, apply_target, auto_apply, message`

const rulePlaceholders = `?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?`

// ReplaceAll swaps the stored rule set for the given one in a single
// transaction. Callers validate the set first.
func (r *RuleRepo) ReplaceAll(rules []domain.TruthRule) error {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.Exec("DELETE FROM truth_rules"); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}

	stmt, err := sqlTx.Prepare(
		`INSERT INTO truth_rules (` + ruleColumns + `) VALUES (` + rulePlaceholders + `)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range rules {
		rule := &rules[i]
		_, err := stmt.Exec(
			rule.RuleID, boolToInt(rule.Enabled), rule.Priority, string(rule.Scope),
			rule.AccountSide, rule.Sign,
			rule.GuaranteeType, rule.TransactionType, rule.Booking,
			nullableBool(rule.HasDwingsLink), nullableBool(rule.IsGrouped),
			nullableBool(rule.IsAmountMatch), nullableBool(rule.MTStatusAcked),
			nullableBool(rule.CommIDEmail), nullableBool(rule.BgiStatusInitiated),
			nullableBool(rule.TriggerDateIsNull), nullableBool(rule.IsTransitory),
			nullableBool(rule.IsMatched), nullableBool(rule.HasManualMatch),
			nullableBool(rule.IsFirstRequest),
			nullableInt(rule.DaysSinceTriggerMin), nullableInt(rule.DaysSinceTriggerMax),
			nullableInt(rule.OperationDaysAgoMin), nullableInt(rule.OperationDaysAgoMax),
			nullableInt(rule.DaysSinceReminderMin), nullableInt(rule.DaysSinceReminderMax),
			nullableInt(rule.CurrentActionID),
			nullableInt(rule.OutputActionID), nullableInt(rule.OutputKpiID),
			nullableInt(rule.OutputIncidentTypeID), nullableBool(rule.OutputRiskyItem),
			nullableInt(rule.OutputReasonNonRiskyID), nullableBool(rule.OutputToRemind),
			nullableInt(rule.OutputToRemindDays),
			boolToInt(rule.OutputFirstClaimToday), string(rule.ApplyTarget),
			boolToInt(rule.AutoApply), rule.Message,
		)
		if err != nil {
			return fmt.Errorf("insert rule %q: %w", rule.RuleID, err)
		}
	}

	return sqlTx.Commit()
}

// ListAll returns the stored rule set in evaluation order.
func (r *RuleRepo) ListAll() ([]domain.TruthRule, error) {
	rows, err := r.db.Query(
		"SELECT " + ruleColumns + " FROM truth_rules ORDER BY priority, rule_id",
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var rules []domain.TruthRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM truth_rules").Scan(&count)
	return count, err
}

func scanRule(rows *sql.Rows) (*domain.TruthRule, error) {
	var rule domain.TruthRule
	var enabled, autoApply, firstClaim int
	var scope, target string
	var message sql.NullString
	var hasLink, grouped, amountMatch, mtAcked, commEmail, bgiInit,
		trigNull, transitory, matched, manual, firstReq, outRisky, outRemind sql.NullInt64
	var trigMin, trigMax, opMin, opMax, remMin, remMax,
		curAction, outAction, outKpi, outIncident, outReason, outRemindDays sql.NullInt64

	err := rows.Scan(
		&rule.RuleID, &enabled, &rule.Priority, &scope, &rule.AccountSide, &rule.Sign,
		&rule.GuaranteeType, &rule.TransactionType, &rule.Booking,
		&hasLink, &grouped, &amountMatch, &mtAcked, &commEmail,
		&bgiInit, &trigNull, &transitory, &matched,
		&manual, &firstReq,
		&trigMin, &trigMax, &opMin, &opMax, &remMin, &remMax,
		&curAction,
		&outAction, &outKpi, &outIncident, &outRisky,
		&outReason, &outRemind, &outRemindDays,
		&firstClaim, &target, &autoApply, &message,
	)
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled != 0
	rule.Scope = domain.RuleScope(scope)
	rule.ApplyTarget = domain.ApplyTarget(target)
	rule.AutoApply = autoApply != 0
	rule.OutputFirstClaimToday = firstClaim != 0
	rule.Message = message.String

	rule.HasDwingsLink = boolFromNull(hasLink)
	rule.IsGrouped = boolFromNull(grouped)
	rule.IsAmountMatch = boolFromNull(amountMatch)
	rule.MTStatusAcked = boolFromNull(mtAcked)
	rule.CommIDEmail = boolFromNull(commEmail)
	rule.BgiStatusInitiated = boolFromNull(bgiInit)
	rule.TriggerDateIsNull = boolFromNull(trigNull)
	rule.IsTransitory = boolFromNull(transitory)
	rule.IsMatched = boolFromNull(matched)
	rule.HasManualMatch = boolFromNull(manual)
	rule.IsFirstRequest = boolFromNull(firstReq)

	rule.DaysSinceTriggerMin = intFromNull(trigMin)
	rule.DaysSinceTriggerMax = intFromNull(trigMax)
	rule.OperationDaysAgoMin = intFromNull(opMin)
	rule.OperationDaysAgoMax = intFromNull(opMax)
	rule.DaysSinceReminderMin = intFromNull(remMin)
	rule.DaysSinceReminderMax = intFromNull(remMax)
	rule.CurrentActionID = intFromNull(curAction)

	rule.OutputActionID = intFromNull(outAction)
	rule.OutputKpiID = intFromNull(outKpi)
	rule.OutputIncidentTypeID = intFromNull(outIncident)
	rule.OutputRiskyItem = boolFromNull(outRisky)
	rule.OutputReasonNonRiskyID = intFromNull(outReason)
	rule.OutputToRemind = boolFromNull(outRemind)
	rule.OutputToRemindDays = intFromNull(outRemindDays)

	return &rule, nil
}
