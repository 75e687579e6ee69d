package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ambre/reconciler/internal/api"
	"github.com/ambre/reconciler/internal/domain"
	"github.com/ambre/reconciler/internal/ingestion"
	"github.com/ambre/reconciler/internal/reconciliation"
	"github.com/ambre/reconciler/internal/repository"
	"github.com/ambre/reconciler/internal/rules"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "ambre.db"
	}

	log.Printf("Initializing database at %s", dbPath)
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	recordRepo := repository.NewRecordRepo(db)
	ruleRepo := repository.NewRuleRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	ingestRepo := repository.NewIngestRepo(db)

	// Create services.
	reconSvc := reconciliation.NewService(recordRepo, ruleRepo, catalogRepo, loadAccountMaps())
	ingestionSvc := ingestion.NewService(recordRepo, catalogRepo, ingestRepo, reconSvc)

	// Seed referential, rules and statements if DB is empty.
	count, err := recordRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count records: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding from testdata...")
		if err := seedTestdata(ingestionSvc, ruleRepo); err != nil {
			log.Printf("WARNING: Failed to seed testdata: %v", err)
		}
	} else {
		log.Printf("Database already has %d records, skipping seed", count)
	}

	// Create router.
	router := api.NewRouter(recordRepo, ruleRepo, catalogRepo, ingestionSvc, reconSvc)

	log.Printf("AMBRE Reconciliation Decision Service")
	log.Printf("Listening on http://localhost:%s", port)
	log.Printf("API base: http://localhost:%s/api/v1", port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/statements/ingest")
	log.Printf("  POST   /api/v1/catalog/invoices/ingest")
	log.Printf("  POST   /api/v1/catalog/guarantees/ingest")
	log.Printf("  GET    /api/v1/records")
	log.Printf("  GET    /api/v1/records/{id}")
	log.Printf("  GET    /api/v1/records/{id}/suggestions")
	log.Printf("  GET    /api/v1/records/{id}/peer-matches")
	log.Printf("  POST   /api/v1/records/{id}/link")
	log.Printf("  POST   /api/v1/records/{id}/unlink")
	log.Printf("  POST   /api/v1/records/{id}/evaluate")
	log.Printf("  GET    /api/v1/rules")
	log.Printf("  POST   /api/v1/rules")
	log.Printf("  POST   /api/v1/reconciliation/run")
	log.Printf("  GET    /api/v1/dashboard")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadAccountMaps reads the per-country account mapping from ACCOUNT_MAPS
// (a JSON array) or falls back to the built-in defaults.
func loadAccountMaps() []domain.AccountMap {
	if raw := os.Getenv("ACCOUNT_MAPS"); raw != "" {
		var maps []domain.AccountMap
		if err := json.Unmarshal([]byte(raw), &maps); err != nil {
			log.Fatalf("Failed to parse ACCOUNT_MAPS: %v", err)
		}
		return maps
	}
	return []domain.AccountMap{
		{Country: "FR", PivotAccountID: "FR-PIVOT-001", ReceivableAccountID: "FR-RECV-001"},
		{Country: "ES", PivotAccountID: "ES-PIVOT-001", ReceivableAccountID: "ES-RECV-001"},
	}
}

func seedTestdata(ingestionSvc *ingestion.Service, ruleRepo *repository.RuleRepo) error {
	baseDir, err := findTestdataDir()
	if err != nil {
		return err
	}

	// Referential first so statement ingestion can auto-link.
	if data, err := os.ReadFile(filepath.Join(baseDir, "dwings_invoices.json")); err == nil {
		if _, err := ingestionSvc.IngestInvoices("dwings_invoices.json", data); err != nil {
			return fmt.Errorf("seed invoices: %w", err)
		}
	}
	if data, err := os.ReadFile(filepath.Join(baseDir, "dwings_guarantees.csv")); err == nil {
		if _, err := ingestionSvc.IngestGuarantees("dwings_guarantees.csv", data); err != nil {
			return fmt.Errorf("seed guarantees: %w", err)
		}
	}

	if data, err := os.ReadFile(filepath.Join(baseDir, "truth_rules.json")); err == nil {
		var ruleSet []domain.TruthRule
		if err := json.Unmarshal(data, &ruleSet); err != nil {
			return fmt.Errorf("unmarshal rules: %w", err)
		}
		if err := rules.ValidateRuleSet(ruleSet); err != nil {
			return fmt.Errorf("validate seeded rules: %w", err)
		}
		if err := ruleRepo.ReplaceAll(ruleSet); err != nil {
			return fmt.Errorf("seed rules: %w", err)
		}
		log.Printf("Seeded %d truth rules", len(ruleSet))
	}

	statements := map[string]string{
		"statement_fr.csv": "FR",
		"statement_es.csv": "ES",
	}
	for name, country := range statements {
		data, err := os.ReadFile(filepath.Join(baseDir, name))
		if err != nil {
			continue
		}
		result, err := ingestionSvc.IngestStatement(context.Background(), name, data, country)
		if err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
		log.Printf("Seeded %s: %d records, %d auto-linked", name, result.Inserted, result.AutoLinked)
	}

	return nil
}

func findTestdataDir() (string, error) {
	candidates := []string{
		"testdata",
		filepath.Join(".", "testdata"),
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata"),
			filepath.Join(dir, "..", "..", "testdata"),
		)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("testdata directory not found")
}
