package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ambre/reconciler/internal/domain"
)

// ParseStatementCSV parses an AMBRE bank statement export for one country.
//
// Expected header:
//
//	line_id,account_id,operation_date,value_date,signed_amount,currency,label,
//	reconciliation_num,origin_num,event_num,payment_reference,cross_system_ref,
//	transaction_type,booking,guarantee_type
func ParseStatementCSV(data []byte, country string, accounts domain.AccountMap) ([]domain.ReconciliationRecord, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 15 {
		return nil, fmt.Errorf("expected 15 columns, got %d", len(header))
	}

	var records []domain.ReconciliationRecord
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if len(row) < 15 {
			continue
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d amount: %w", lineNum, err)
		}

		opDate, err := parseDate(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d operation date: %w", lineNum, err)
		}
		valDate, err := parseDate(strings.TrimSpace(row[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d value date: %w", lineNum, err)
		}

		accountID := strings.TrimSpace(row[1])
		side, ok := accounts.Side(accountID)
		if !ok {
			return nil, fmt.Errorf("line %d: account %q not in %s account map", lineNum, accountID, country)
		}

		sign := domain.SignCredit
		if amount < 0 {
			sign = domain.SignDebit
		}

		rec := domain.ReconciliationRecord{
			ID:                      strings.TrimSpace(row[0]),
			Country:                 country,
			AccountID:               accountID,
			AccountSide:             side,
			SignedAmount:            amount,
			Currency:                strings.TrimSpace(row[5]),
			Sign:                    sign,
			OperationDate:           opDate,
			ValueDate:               valDate,
			RawLabel:                strings.TrimSpace(row[6]),
			ReconciliationNum:       strings.TrimSpace(row[7]),
			ReconciliationOriginNum: strings.TrimSpace(row[8]),
			EventNum:                strings.TrimSpace(row[9]),
			PaymentReference:        strings.TrimSpace(row[10]),
			CrossSystemRef:          strings.TrimSpace(row[11]),
			TransactionType:         strings.TrimSpace(row[12]),
			Booking:                 strings.TrimSpace(row[13]),
			GuaranteeType:           strings.TrimSpace(row[14]),
			CreatedAt:               time.Now(),
		}
		records = append(records, rec)
	}

	return records, nil
}

// parseDate accepts a date-only or RFC3339 value; empty means absent.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}
