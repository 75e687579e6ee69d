// Package rules evaluates the ordered truth-rule set against per-record
// facts and applies winning decisions to reconciliation records.
package rules

import (
	"strings"
	"time"

	"github.com/ambre/reconciler/internal/domain"
)

// Facts is the caller-computed view of one record that predicates are tested
// against. Pointer fields distinguish "known false" from "not supplied"; a
// required predicate never passes on a missing fact.
type Facts struct {
	AccountSide     string
	Sign            string
	GuaranteeType   string
	TransactionType string
	Booking         string

	HasDwingsLink      *bool
	IsGrouped          *bool
	IsAmountMatch      *bool
	MTStatusAcked      *bool
	CommIDEmail        *bool
	BgiStatusInitiated *bool
	TriggerDateIsNull  *bool
	IsTransitory       *bool
	IsMatched          *bool
	HasManualMatch     *bool
	IsFirstRequest     *bool

	DaysSinceTrigger  *int
	OperationDaysAgo  *int
	DaysSinceReminder *int

	CurrentActionID *int
}

// BuildFacts derives every fact that follows from the record alone. Facts
// that depend on matching results or on the linked invoice (IsGrouped,
// IsAmountMatch, MTStatusAcked, CommIDEmail, BgiStatusInitiated) stay nil
// until the caller fills them in.
func BuildFacts(rec *domain.ReconciliationRecord, now time.Time) Facts {
	f := Facts{
		AccountSide:     string(rec.AccountSide),
		Sign:            rec.Sign,
		GuaranteeType:   rec.GuaranteeType,
		TransactionType: rec.TransactionType,
		Booking:         rec.Booking,

		HasDwingsLink:     boolPtr(rec.HasDwingsLink()),
		TriggerDateIsNull: boolPtr(rec.TriggerDate == nil),
		IsTransitory:      boolPtr(rec.IsTransitory),
		IsMatched:         boolPtr(rec.IsMatchedAcrossAccounts),
		HasManualMatch:    boolPtr(rec.ManualMatch),
		IsFirstRequest:    boolPtr(rec.FirstClaimDate == nil),

		CurrentActionID: rec.ActionID,
	}

	if rec.TriggerDate != nil {
		f.DaysSinceTrigger = intPtr(daysBetween(*rec.TriggerDate, now))
	}
	if rec.OperationDate != nil {
		f.OperationDaysAgo = intPtr(daysBetween(*rec.OperationDate, now))
	}
	if rec.LastReminderDate != nil {
		f.DaysSinceReminder = intPtr(daysBetween(*rec.LastReminderDate, now))
	}

	return f
}

// EnrichFromInvoice fills in the invoice-derived facts once the record's
// linked DWINGS invoice is known.
func (f *Facts) EnrichFromInvoice(inv *domain.Invoice) {
	if inv == nil {
		return
	}
	f.MTStatusAcked = boolPtr(strings.EqualFold(inv.MTStatus, "ACKED"))
	f.CommIDEmail = boolPtr(strings.EqualFold(inv.CommunicationID, "EMAIL"))
	f.BgiStatusInitiated = boolPtr(strings.EqualFold(inv.Status, "INITIATED"))
}

func daysBetween(from, to time.Time) int {
	fd := from.Truncate(24 * time.Hour)
	td := to.Truncate(24 * time.Hour)
	return int(td.Sub(fd).Hours() / 24)
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }
