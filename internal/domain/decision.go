package domain

// Decision is the winning rule's output bundle. Nil fields were not set by
// the rule and must leave prior record values intact on apply.
type Decision struct {
	RuleID string `json:"rule_id"`

	ActionID         *int  `json:"action_id,omitempty"`
	KpiID            *int  `json:"kpi_id,omitempty"`
	IncidentTypeID   *int  `json:"incident_type_id,omitempty"`
	RiskyItem        *bool `json:"risky_item,omitempty"`
	ReasonNonRiskyID *int  `json:"reason_non_risky_id,omitempty"`
	ToRemind         *bool `json:"to_remind,omitempty"`
	ToRemindDays     *int  `json:"to_remind_days,omitempty"`
	FirstClaimToday  bool  `json:"first_claim_today"`

	ApplyTarget ApplyTarget `json:"apply_target"`
	AutoApply   bool        `json:"auto_apply"`
	Message     string      `json:"message,omitempty"`
}
