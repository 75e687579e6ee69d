package domain

import "time"

// Invoice is a DWINGS billing invoice (BGI identifier family).
type Invoice struct {
	ID              string     `json:"id"`
	BusinessCaseID  string     `json:"business_case_id,omitempty"`
	BusinessCaseRef string     `json:"business_case_ref,omitempty"`
	BillingAmount   float64    `json:"billing_amount"`
	BillingCurrency string     `json:"billing_currency"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	BGPMT           string     `json:"bgpmt,omitempty"`
	MTStatus        string     `json:"mt_status,omitempty"`
	CommunicationID string     `json:"communication_id,omitempty"`
	Status          string     `json:"status,omitempty"`
	SenderRef       string     `json:"sender_ref,omitempty"`
	ReceiverRef     string     `json:"receiver_ref,omitempty"`
}

// Guarantee is a DWINGS guarantee referential entry.
type Guarantee struct {
	ID                string  `json:"id"`
	Status            string  `json:"status,omitempty"`
	Nature            string  `json:"nature,omitempty"`
	Name              string  `json:"name,omitempty"`
	OfficialRef       string  `json:"official_ref,omitempty"`
	Currency          string  `json:"currency,omitempty"`
	OutstandingAmount float64 `json:"outstanding_amount"`
}

// Catalog is the read-only in-memory DWINGS referential handed to the
// matching engine.
type Catalog struct {
	Invoices   []Invoice
	Guarantees []Guarantee

	byInvoiceID   map[string]*Invoice
	byGuaranteeID map[string]*Guarantee
}

// NewCatalog builds the id lookups once over the supplied collections.
func NewCatalog(invoices []Invoice, guarantees []Guarantee) *Catalog {
	c := &Catalog{
		Invoices:      invoices,
		Guarantees:    guarantees,
		byInvoiceID:   make(map[string]*Invoice, len(invoices)),
		byGuaranteeID: make(map[string]*Guarantee, len(guarantees)),
	}
	for i := range c.Invoices {
		c.byInvoiceID[c.Invoices[i].ID] = &c.Invoices[i]
	}
	for i := range c.Guarantees {
		c.byGuaranteeID[c.Guarantees[i].ID] = &c.Guarantees[i]
	}
	return c
}

func (c *Catalog) InvoiceByID(id string) (*Invoice, bool) {
	inv, ok := c.byInvoiceID[id]
	return inv, ok
}

func (c *Catalog) GuaranteeByID(id string) (*Guarantee, bool) {
	g, ok := c.byGuaranteeID[id]
	return g, ok
}
