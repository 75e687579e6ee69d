package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambre/reconciler/internal/domain"
	"github.com/ambre/reconciler/internal/reconciliation"
	"github.com/ambre/reconciler/internal/repository"
)

func newTestService(t *testing.T) (*Service, *repository.RecordRepo) {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	recordRepo := repository.NewRecordRepo(db)
	ruleRepo := repository.NewRuleRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	ingestRepo := repository.NewIngestRepo(db)

	recon := reconciliation.NewService(recordRepo, ruleRepo, catalogRepo, []domain.AccountMap{frAccounts()})
	return NewService(recordRepo, catalogRepo, ingestRepo, recon), recordRepo
}

func TestIngestStatementStoresAndDeduplicates(t *testing.T) {
	svc, recordRepo := newTestService(t)

	csvData := []byte(statementHeader +
		"L-001,PIVOT-FR,2024-03-01,2024-03-02,1500.50,EUR,PAYMENT RN-1,RN-1,,EV-1,,,PAYMENT,COLLECTION,\n" +
		"L-002,RECV-FR,2024-03-01,2024-03-02,-1500.50,EUR,SETTLEMENT RN-1,RN-1,,EV-1,,,PAYMENT,ISSUANCE,\n")

	result, err := svc.IngestStatement(context.Background(), "fr_march.csv", csvData, "FR")
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Parsed)
	assert.Equal(t, 2, result.Inserted)

	count, err := recordRepo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Same bytes again: skipped, nothing duplicated.
	again, err := svc.IngestStatement(context.Background(), "fr_march_copy.csv", csvData, "FR")
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, 0, again.Inserted)

	count, err = recordRepo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngestStatementUnknownCountry(t *testing.T) {
	svc, _ := newTestService(t)

	csvData := []byte(statementHeader +
		"L-001,PIVOT-FR,2024-03-01,2024-03-02,100,EUR,LABEL,,,,,,T,B,\n")

	_, err := svc.IngestStatement(context.Background(), "de.csv", csvData, "DE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no account map")
}

func TestIngestStatementAutoLinksOnIdentifier(t *testing.T) {
	svc, recordRepo := newTestService(t)

	invoiceJSON := []byte(`[{
		"invoice_id": "BGI24000012AB",
		"billing_amount": 1500.50,
		"billing_currency": "EUR",
		"start_date": "2024-02-01",
		"end_date": "2024-03-15"
	}]`)
	_, err := svc.IngestInvoices("invoices.json", invoiceJSON)
	require.NoError(t, err)

	csvData := []byte(statementHeader +
		"L-001,PIVOT-FR,2024-03-01,2024-03-02,1500.50,EUR,PAYMENT BGI24000012AB,,,,,,PAYMENT,COLLECTION,\n")

	result, err := svc.IngestStatement(context.Background(), "fr.csv", csvData, "FR")
	require.NoError(t, err)
	assert.Equal(t, 1, result.AutoLinked)

	rec, err := recordRepo.GetByID("L-001")
	require.NoError(t, err)
	assert.Equal(t, "BGI24000012AB", rec.DwingsInvoiceID)
}

func TestIngestGuaranteesRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	data := []byte("guarantee_id,status,nature,name,official_ref,currency,outstanding_amount\n" +
		"G1234567890,ISSUED,BID_BOND,ACME,OFF-1,EUR,1000\n")

	result, err := svc.IngestGuarantees("guarantees.csv", data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)

	again, err := svc.IngestGuarantees("guarantees.csv", data)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}
