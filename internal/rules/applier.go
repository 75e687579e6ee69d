package rules

import (
	"time"

	"github.com/ambre/reconciler/internal/domain"
)

// CounterpartResolver finds the linked record on the opposite account side,
// via the shared DWINGS invoice/guarantee or the cross-account matched
// group. Returns nil when no counterpart exists.
type CounterpartResolver func(rec *domain.ReconciliationRecord) *domain.ReconciliationRecord

// FieldPatch is the concrete change a decision produces on one record. Nil
// fields are untouched.
type FieldPatch struct {
	RecordID string `json:"record_id"`

	ActionID         *int       `json:"action_id,omitempty"`
	KpiID            *int       `json:"kpi_id,omitempty"`
	IncidentTypeID   *int       `json:"incident_type_id,omitempty"`
	RiskyItem        *bool      `json:"risky_item,omitempty"`
	ReasonNonRiskyID *int       `json:"reason_non_risky_id,omitempty"`
	ToRemind         *bool      `json:"to_remind,omitempty"`
	ToRemindDate     *time.Time `json:"to_remind_date,omitempty"`
	FirstClaimDate   *time.Time `json:"first_claim_date,omitempty"`
	ActionDate       *time.Time `json:"action_date,omitempty"`
}

// AppliedSet is the applier's result: the patches the decision produces and
// whether they were written to the records (AutoApply) or only proposed for
// confirmation.
type AppliedSet struct {
	Decision domain.Decision `json:"decision"`
	Patches  []FieldPatch    `json:"patches"`
	Applied  bool            `json:"applied"`
}

// Apply turns a winning decision into field patches on the target record(s)
// and, when the decision is auto-apply, writes them in place. Default-today
// fields resolve against now, the evaluation date. Persistence stays with
// the caller either way.
func Apply(dec domain.Decision, rec *domain.ReconciliationRecord, resolve CounterpartResolver, now time.Time) AppliedSet {
	set := AppliedSet{Decision: dec, Applied: dec.AutoApply}
	if rec == nil {
		return set
	}

	var targets []*domain.ReconciliationRecord
	if dec.ApplyTarget == domain.TargetSelf || dec.ApplyTarget == domain.TargetBoth {
		targets = append(targets, rec)
	}
	if dec.ApplyTarget == domain.TargetCounterpart || dec.ApplyTarget == domain.TargetBoth {
		if resolve != nil {
			if cp := resolve(rec); cp != nil {
				targets = append(targets, cp)
			}
		}
	}

	for _, target := range targets {
		patch := buildPatch(dec, target, now)
		set.Patches = append(set.Patches, patch)
		if dec.AutoApply {
			applyPatch(target, patch)
		}
	}
	return set
}

func buildPatch(dec domain.Decision, rec *domain.ReconciliationRecord, now time.Time) FieldPatch {
	patch := FieldPatch{
		RecordID:         rec.ID,
		ActionID:         dec.ActionID,
		KpiID:            dec.KpiID,
		IncidentTypeID:   dec.IncidentTypeID,
		RiskyItem:        dec.RiskyItem,
		ReasonNonRiskyID: dec.ReasonNonRiskyID,
		ToRemind:         dec.ToRemind,
	}
	if dec.ToRemindDays != nil {
		d := now.AddDate(0, 0, *dec.ToRemindDays)
		patch.ToRemindDate = &d
	}
	if dec.FirstClaimToday && rec.FirstClaimDate == nil {
		t := now
		patch.FirstClaimDate = &t
	}
	if dec.ActionID != nil {
		t := now
		patch.ActionDate = &t
	}
	return patch
}

func applyPatch(rec *domain.ReconciliationRecord, patch FieldPatch) {
	if patch.ActionID != nil {
		rec.ActionID = patch.ActionID
	}
	if patch.KpiID != nil {
		rec.KpiID = patch.KpiID
	}
	if patch.IncidentTypeID != nil {
		rec.IncidentTypeID = patch.IncidentTypeID
	}
	if patch.RiskyItem != nil {
		rec.RiskyItem = patch.RiskyItem
	}
	if patch.ReasonNonRiskyID != nil {
		rec.ReasonNonRiskyID = patch.ReasonNonRiskyID
	}
	if patch.ToRemind != nil {
		rec.ToRemind = *patch.ToRemind
	}
	if patch.ToRemindDate != nil {
		rec.ToRemindDate = patch.ToRemindDate
	}
	if patch.FirstClaimDate != nil {
		rec.FirstClaimDate = patch.FirstClaimDate
	}
	if patch.ActionDate != nil {
		rec.ActionDate = patch.ActionDate
	}
}
