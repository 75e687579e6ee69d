package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ambre/reconciler/internal/domain"
)

// invoiceWire mirrors the DWINGS invoice export schema.
type invoiceWire struct {
	InvoiceID       string  `json:"invoice_id"`
	BusinessCaseID  string  `json:"business_case_id"`
	BusinessCaseRef string  `json:"business_case_ref"`
	BillingAmount   float64 `json:"billing_amount"`
	BillingCurrency string  `json:"billing_currency"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	PaymentMethod   string  `json:"payment_method"`
	BGPMT           string  `json:"bgpmt"`
	MTStatus        string  `json:"mt_status"`
	CommunicationID string  `json:"communication_id"`
	Status          string  `json:"status"`
	SenderRef       string  `json:"sender_ref"`
	ReceiverRef     string  `json:"receiver_ref"`
}

// ParseInvoiceJSON parses a DWINGS invoice export, a JSON array of invoice
// objects. Entries without an invoice id are rejected.
func ParseInvoiceJSON(data []byte) ([]domain.Invoice, error) {
	var wire []invoiceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}

	invoices := make([]domain.Invoice, 0, len(wire))
	for i, w := range wire {
		id := strings.TrimSpace(w.InvoiceID)
		if id == "" {
			return nil, fmt.Errorf("invoice %d: missing invoice_id", i)
		}
		start, err := parseDate(strings.TrimSpace(w.StartDate))
		if err != nil {
			return nil, fmt.Errorf("invoice %s start date: %w", id, err)
		}
		end, err := parseDate(strings.TrimSpace(w.EndDate))
		if err != nil {
			return nil, fmt.Errorf("invoice %s end date: %w", id, err)
		}
		invoices = append(invoices, domain.Invoice{
			ID:              id,
			BusinessCaseID:  strings.TrimSpace(w.BusinessCaseID),
			BusinessCaseRef: strings.TrimSpace(w.BusinessCaseRef),
			BillingAmount:   w.BillingAmount,
			BillingCurrency: strings.TrimSpace(w.BillingCurrency),
			StartDate:       start,
			EndDate:         end,
			PaymentMethod:   strings.TrimSpace(w.PaymentMethod),
			BGPMT:           strings.TrimSpace(w.BGPMT),
			MTStatus:        strings.TrimSpace(w.MTStatus),
			CommunicationID: strings.TrimSpace(w.CommunicationID),
			Status:          strings.TrimSpace(w.Status),
			SenderRef:       strings.TrimSpace(w.SenderRef),
			ReceiverRef:     strings.TrimSpace(w.ReceiverRef),
		})
	}
	return invoices, nil
}
