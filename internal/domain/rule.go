package domain

// RuleScope restricts which lifecycle a truth rule is eligible for.
type RuleScope string

const (
	ScopeBoth   RuleScope = "BOTH"
	ScopeImport RuleScope = "IMPORT"
	ScopeEdit   RuleScope = "EDIT"
)

// ApplyTarget says which record(s) a winning rule's outputs are written to.
type ApplyTarget string

const (
	TargetSelf        ApplyTarget = "SELF"
	TargetCounterpart ApplyTarget = "COUNTERPART"
	TargetBoth        ApplyTarget = "BOTH"
)

// Wildcard marks an enumerated predicate as "ignore".
const Wildcard = "*"

// TruthRule is one declarative decision rule. Enumerated predicates use "*"
// as a wildcard; tri-state and range predicates use nil pointers for
// "ignore". Outputs are optional overwrites: a nil output never touches the
// corresponding field on apply.
type TruthRule struct {
	RuleID   string    `json:"rule_id" validate:"required"`
	Enabled  bool      `json:"enabled"`
	Priority int       `json:"priority" validate:"gte=0"`
	Scope    RuleScope `json:"scope" validate:"required,oneof=BOTH IMPORT EDIT"`

	// Enumerated predicates.
	AccountSide     string `json:"account_side" validate:"omitempty,oneof=* P R"`
	Sign            string `json:"sign" validate:"omitempty,oneof=* C D"`
	GuaranteeType   string `json:"guarantee_type"`
	TransactionType string `json:"transaction_type"`
	Booking         string `json:"booking"`

	// Tri-state predicates (nil = ignore).
	HasDwingsLink      *bool `json:"has_dwings_link,omitempty"`
	IsGrouped          *bool `json:"is_grouped,omitempty"`
	IsAmountMatch      *bool `json:"is_amount_match,omitempty"`
	MTStatusAcked      *bool `json:"mt_status_acked,omitempty"`
	CommIDEmail        *bool `json:"comm_id_email,omitempty"`
	BgiStatusInitiated *bool `json:"bgi_status_initiated,omitempty"`
	TriggerDateIsNull  *bool `json:"trigger_date_is_null,omitempty"`
	IsTransitory       *bool `json:"is_transitory,omitempty"`
	IsMatched          *bool `json:"is_matched,omitempty"`
	HasManualMatch     *bool `json:"has_manual_match,omitempty"`
	IsFirstRequest     *bool `json:"is_first_request,omitempty"`

	// Inclusive day-count ranges (nil = unbounded on that side).
	DaysSinceTriggerMin  *int `json:"days_since_trigger_min,omitempty"`
	DaysSinceTriggerMax  *int `json:"days_since_trigger_max,omitempty"`
	OperationDaysAgoMin  *int `json:"operation_days_ago_min,omitempty"`
	OperationDaysAgoMax  *int `json:"operation_days_ago_max,omitempty"`
	DaysSinceReminderMin *int `json:"days_since_reminder_min,omitempty"`
	DaysSinceReminderMax *int `json:"days_since_reminder_max,omitempty"`

	// Precondition on current workflow state.
	CurrentActionID *int `json:"current_action_id,omitempty"`

	// Outputs.
	OutputActionID         *int  `json:"output_action_id,omitempty"`
	OutputKpiID            *int  `json:"output_kpi_id,omitempty"`
	OutputIncidentTypeID   *int  `json:"output_incident_type_id,omitempty"`
	OutputRiskyItem        *bool `json:"output_risky_item,omitempty"`
	OutputReasonNonRiskyID *int  `json:"output_reason_non_risky_id,omitempty"`
	OutputToRemind         *bool `json:"output_to_remind,omitempty"`
	OutputToRemindDays     *int  `json:"output_to_remind_days,omitempty"`
	OutputFirstClaimToday  bool  `json:"output_first_claim_today"`

	ApplyTarget ApplyTarget `json:"apply_target" validate:"required,oneof=SELF COUNTERPART BOTH"`
	AutoApply   bool        `json:"auto_apply"`
	Message     string      `json:"message,omitempty"`
}

// AppliesTo reports whether the rule is eligible for the given lifecycle
// scope. A rule scoped BOTH applies everywhere.
func (r *TruthRule) AppliesTo(scope RuleScope) bool {
	return r.Scope == ScopeBoth || r.Scope == scope
}
