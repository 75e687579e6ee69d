package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ambre/reconciler/internal/domain"
)

// ParseGuaranteeCSV parses a DWINGS guarantee export.
//
// Expected header:
//
//	guarantee_id,status,nature,name,official_ref,currency,outstanding_amount
func ParseGuaranteeCSV(data []byte) ([]domain.Guarantee, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 7 {
		return nil, fmt.Errorf("expected 7 columns, got %d", len(header))
	}

	var guarantees []domain.Guarantee
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
		if len(row) < 7 {
			continue
		}

		id := strings.TrimSpace(row[0])
		if id == "" {
			return nil, fmt.Errorf("line %d: missing guarantee_id", lineNum)
		}

		outstanding := 0.0
		if raw := strings.TrimSpace(row[6]); raw != "" {
			outstanding, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d outstanding amount: %w", lineNum, err)
			}
		}

		guarantees = append(guarantees, domain.Guarantee{
			ID:                id,
			Status:            strings.TrimSpace(row[1]),
			Nature:            strings.TrimSpace(row[2]),
			Name:              strings.TrimSpace(row[3]),
			OfficialRef:       strings.TrimSpace(row[4]),
			Currency:          strings.TrimSpace(row[5]),
			OutstandingAmount: outstanding,
		})
	}

	return guarantees, nil
}
