// Command generate produces the deterministic sample dataset: two country
// statements, the DWINGS referential and a starter truth-rule set.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ambre/reconciler/internal/domain"
)

type invoiceOut struct {
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
}

type country struct {
	code     string
	currency string
	pivot    string
	recv     string
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	countries := []country{
		{"FR", "EUR", "FR-PIVOT-001", "FR-RECV-001"},
		{"ES", "EUR", "ES-PIVOT-001", "ES-RECV-001"},
	}

	invoices := generateInvoices(rng)
	writeJSONFile(filepath.Join(baseDir, "dwings_invoices.json"), invoices)
	fmt.Printf("Generated %d invoices -> dwings_invoices.json\n", len(invoices))

	guaranteeCount := generateGuaranteesCSV(invoices, filepath.Join(baseDir, "dwings_guarantees.csv"))
	fmt.Printf("Generated %d guarantees -> dwings_guarantees.csv\n", guaranteeCount)

	for i, c := range countries {
		// Each country consumes its own half of the invoice pool.
		half := len(invoices) / len(countries)
		slice := invoices[i*half : (i+1)*half]
		name := fmt.Sprintf("statement_%s.csv", toLower(c.code))
		count := generateStatementCSV(rng, c, slice, filepath.Join(baseDir, name))
		fmt.Printf("Generated %d statement lines -> %s\n", count, name)
	}

	ruleSet := starterRules()
	writeJSONFile(filepath.Join(baseDir, "truth_rules.json"), ruleSet)
	fmt.Printf("Generated %d truth rules -> truth_rules.json\n", len(ruleSet))

	fmt.Println("Test data generation complete.")
}

func generateInvoices(rng *rand.Rand) []invoiceOut {
	methods := []string{"DIRECT_DEBIT", "MANUAL", "WIRE"}
	mtStatuses := []string{"ACKED", "NACKED", "PENDING"}
	commIDs := []string{"EMAIL", "PAPER", "PORTAL"}
	statuses := []string{"INITIATED", "BILLED", "PAID"}

	invoices := make([]invoiceOut, 0, 40)
	for i := 1; i <= 40; i++ {
		amount := 100 + rng.Float64()*9900
		amount = math.Round(amount*100) / 100
		start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.Intn(20))
		end := start.AddDate(0, 1, 0)

		invoices = append(invoices, invoiceOut{
			InvoiceID:       fmt.Sprintf("BGI2400%04dAB", i),
			BusinessCaseID:  fmt.Sprintf("G%010d", 1000000000+i),
			BusinessCaseRef: fmt.Sprintf("CASE-%03d", i),
			BillingAmount:   amount,
			BillingCurrency: "EUR",
			StartDate:       start.Format("2006-01-02"),
			EndDate:         end.Format("2006-01-02"),
			PaymentMethod:   methods[rng.Intn(len(methods))],
			BGPMT:           fmt.Sprintf("BGPMT%06d", 100000+i),
			MTStatus:        mtStatuses[rng.Intn(len(mtStatuses))],
			CommunicationID: commIDs[rng.Intn(len(commIDs))],
			Status:          statuses[rng.Intn(len(statuses))],
		})
	}
	return invoices
}

func generateGuaranteesCSV(invoices []invoiceOut, path string) int {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"guarantee_id", "status", "nature", "name",
		"official_ref", "currency", "outstanding_amount",
	})

	natures := []string{"BID_BOND", "PERFORMANCE", "ADVANCE_PAYMENT", "WARRANTY"}
	for i, inv := range invoices {
		w.Write([]string{
			inv.BusinessCaseID,
			"ISSUED",
			natures[i%len(natures)],
			fmt.Sprintf("BENEFICIARY %03d", i+1),
			fmt.Sprintf("OFF-%04d", i+1),
			"EUR",
			fmt.Sprintf("%.2f", inv.BillingAmount*10),
		})
	}
	return len(invoices)
}

func generateStatementCSV(rng *rand.Rand, c country, invoices []invoiceOut, path string) int {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"line_id", "account_id", "operation_date", "value_date", "signed_amount",
		"currency", "label", "reconciliation_num", "origin_num", "event_num",
		"payment_reference", "cross_system_ref", "transaction_type", "booking",
		"guarantee_type",
	})

	count := 0
	lineNum := 0
	write := func(accountID string, amount float64, label, reconNum, eventNum, payRef string, opDate time.Time) {
		lineNum++
		valDate := opDate.AddDate(0, 0, 1)
		w.Write([]string{
			fmt.Sprintf("%s-L%04d", c.code, lineNum),
			accountID,
			opDate.Format("2006-01-02"),
			valDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", amount),
			c.currency,
			label,
			reconNum,
			"",
			eventNum,
			payRef,
			"",
			"PAYMENT",
			"COLLECTION",
			"REISSUANCE",
		})
		count++
	}

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, inv := range invoices {
		opDate := base.AddDate(0, 0, rng.Intn(15))
		eventNum := fmt.Sprintf("EV-%s-%03d", c.code, i+1)
		reconNum := ""
		if i%3 == 0 {
			reconNum = fmt.Sprintf("RN-%s-%03d", c.code, i+1)
		}

		roll := rng.Float64()
		switch {
		case roll < 0.5:
			// Matched pair: pivot line naming the invoice, receivable leg
			// with the opposite amount.
			label := fmt.Sprintf("SETTLEMENT %s %s", inv.InvoiceID, inv.BGPMT)
			write(c.pivot, inv.BillingAmount, label, reconNum, eventNum, inv.BGPMT, opDate)
			write(c.recv, -inv.BillingAmount, "GUARANTEE SETTLEMENT "+inv.BusinessCaseRef,
				reconNum, eventNum, "", opDate.AddDate(0, 0, rng.Intn(5)))
		case roll < 0.75:
			// Pivot-only line, invoice id buried in the payment reference.
			write(c.pivot, inv.BillingAmount, "INCOMING TRANSFER "+inv.BusinessCaseRef,
				reconNum, eventNum, inv.InvoiceID, opDate)
		default:
			// Orphan line with no usable identifier.
			amount := math.Round((50+rng.Float64()*500)*100) / 100
			write(c.pivot, amount, fmt.Sprintf("UNIDENTIFIED CREDIT %03d", i+1),
				"", "", "", opDate)
		}
	}

	return count
}

// starterRules is a minimal workable rule set: auto-actions for linked and
// matched lines, a reminder path for stale unlinked ones and a catch-all.
func starterRules() []domain.TruthRule {
	boolPtr := func(v bool) *bool { return &v }
	intPtr := func(v int) *int { return &v }

	return []domain.TruthRule{
		{
			RuleID:         "R-010-matched-done",
			Enabled:        true,
			Priority:       10,
			Scope:          domain.ScopeBoth,
			AccountSide:    domain.Wildcard,
			Sign:           domain.Wildcard,
			IsMatched:      boolPtr(true),
			OutputActionID: intPtr(1),
			OutputKpiID:    intPtr(1),
			ApplyTarget:    domain.TargetBoth,
			AutoApply:      true,
			Message:        "Both legs present, nothing to do",
		},
		{
			RuleID:         "R-020-linked-amount-ok",
			Enabled:        true,
			Priority:       20,
			Scope:          domain.ScopeBoth,
			AccountSide:    domain.Wildcard,
			Sign:           domain.Wildcard,
			HasDwingsLink:  boolPtr(true),
			IsAmountMatch:  boolPtr(true),
			OutputActionID: intPtr(5),
			ApplyTarget:    domain.TargetSelf,
			AutoApply:      true,
			Message:        "Linked with matching amount, execute",
		},
		{
			RuleID:               "R-030-linked-amount-off",
			Enabled:              true,
			Priority:             30,
			Scope:                domain.ScopeBoth,
			AccountSide:          domain.Wildcard,
			Sign:                 domain.Wildcard,
			HasDwingsLink:        boolPtr(true),
			IsAmountMatch:        boolPtr(false),
			OutputActionID:       intPtr(4),
			OutputIncidentTypeID: intPtr(2),
			OutputRiskyItem:      boolPtr(true),
			ApplyTarget:          domain.TargetSelf,
			AutoApply:            false,
			Message:              "Linked but amount differs, adjustment needed",
		},
		{
			RuleID:                "R-040-stale-unlinked",
			Enabled:               true,
			Priority:              40,
			Scope:                 domain.ScopeEdit,
			AccountSide:           domain.Wildcard,
			Sign:                  domain.Wildcard,
			HasDwingsLink:         boolPtr(false),
			OperationDaysAgoMin:   intPtr(15),
			OutputActionID:        intPtr(8),
			OutputToRemind:        boolPtr(true),
			OutputToRemindDays:    intPtr(7),
			OutputFirstClaimToday: true,
			ApplyTarget:           domain.TargetSelf,
			AutoApply:             true,
			Message:               "Unlinked for two weeks, claim",
		},
		{
			RuleID:         "R-900-catch-all",
			Enabled:        true,
			Priority:       900,
			Scope:          domain.ScopeBoth,
			AccountSide:    domain.Wildcard,
			Sign:           domain.Wildcard,
			OutputActionID: intPtr(2),
			ApplyTarget:    domain.TargetSelf,
			AutoApply:      false,
			Message:        "No specific rule matched, investigate",
		},
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
