package domain

import "time"

// AccountSide identifies which leg of a country's booking a statement line
// belongs to.
type AccountSide string

const (
	SidePivot      AccountSide = "P"
	SideReceivable AccountSide = "R"
)

// Sign of a statement line amount.
const (
	SignCredit = "C"
	SignDebit  = "D"
)

// AccountMap resolves a country's raw account identifiers to a side.
type AccountMap struct {
	Country             string `json:"country"`
	PivotAccountID      string `json:"pivot_account_id"`
	ReceivableAccountID string `json:"receivable_account_id"`
}

// Side returns the account side for a raw account id, or false when the id
// belongs to neither configured account.
func (m AccountMap) Side(accountID string) (AccountSide, bool) {
	switch accountID {
	case m.PivotAccountID:
		return SidePivot, true
	case m.ReceivableAccountID:
		return SideReceivable, true
	default:
		return "", false
	}
}

// ReconciliationRecord is the derived record kept per AMBRE statement line.
// The matching engine writes the DWINGS cross-reference fields and the
// matched flag; the rule engine writes the workflow fields.
type ReconciliationRecord struct {
	ID          string      `json:"id"`
	Country     string      `json:"country"`
	AccountID   string      `json:"account_id"`
	AccountSide AccountSide `json:"account_side"`

	SignedAmount  float64    `json:"signed_amount"`
	Currency      string     `json:"currency"`
	Sign          string     `json:"sign"`
	OperationDate *time.Time `json:"operation_date,omitempty"`
	ValueDate     *time.Time `json:"value_date,omitempty"`

	RawLabel                string `json:"raw_label"`
	ReconciliationNum       string `json:"reconciliation_num,omitempty"`
	ReconciliationOriginNum string `json:"reconciliation_origin_num,omitempty"`
	EventNum                string `json:"event_num,omitempty"`
	PaymentReference        string `json:"payment_reference,omitempty"`
	CrossSystemRef          string `json:"cross_system_ref,omitempty"`

	TransactionType string `json:"transaction_type,omitempty"`
	Booking         string `json:"booking,omitempty"`
	GuaranteeType   string `json:"guarantee_type,omitempty"`

	// DWINGS cross-references, written by the link applier.
	DwingsInvoiceID   string `json:"dwings_invoice_id,omitempty"`
	DwingsGuaranteeID string `json:"dwings_guarantee_id,omitempty"`
	DwingsBGPMT       string `json:"dwings_bgpmt,omitempty"`
	DwingsRef         string `json:"dwings_ref,omitempty"`

	IsMatchedAcrossAccounts bool `json:"is_matched_across_accounts"`
	ManualMatch             bool `json:"manual_match"`
	IsTransitory            bool `json:"is_transitory"`

	// Workflow fields, written by the decision applier.
	ActionID         *int       `json:"action_id,omitempty"`
	KpiID            *int       `json:"kpi_id,omitempty"`
	IncidentTypeID   *int       `json:"incident_type_id,omitempty"`
	RiskyItem        *bool      `json:"risky_item,omitempty"`
	ReasonNonRiskyID *int       `json:"reason_non_risky_id,omitempty"`
	ToRemind         bool       `json:"to_remind"`
	ToRemindDate     *time.Time `json:"to_remind_date,omitempty"`
	ActionStatus     string     `json:"action_status,omitempty"`
	ActionDate       *time.Time `json:"action_date,omitempty"`
	TriggerDate      *time.Time `json:"trigger_date,omitempty"`
	FirstClaimDate   *time.Time `json:"first_claim_date,omitempty"`
	LastReminderDate *time.Time `json:"last_reminder_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasDwingsLink reports whether the line carries any DWINGS invoice link.
func (r *ReconciliationRecord) HasDwingsLink() bool {
	return r.DwingsInvoiceID != ""
}

// DwingsRefs returns the non-empty DWINGS references of the record, used for
// the peer-match overlap criterion.
func (r *ReconciliationRecord) DwingsRefs() []string {
	var refs []string
	for _, v := range []string{r.DwingsGuaranteeID, r.DwingsInvoiceID, r.DwingsBGPMT, r.DwingsRef} {
		if v != "" {
			refs = append(refs, v)
		}
	}
	return refs
}
