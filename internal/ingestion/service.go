// Package ingestion parses AMBRE statement exports and the DWINGS
// referential and loads them into storage.
package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/ambre/reconciler/internal/reconciliation"
	"github.com/ambre/reconciler/internal/repository"
)

// StatementResult reports one statement ingestion.
type StatementResult struct {
	Filename   string `json:"filename"`
	Country    string `json:"country"`
	Parsed     int    `json:"parsed"`
	Inserted   int    `json:"inserted"`
	Skipped    bool   `json:"skipped"`
	AutoLinked int    `json:"auto_linked"`
}

// CatalogResult reports one referential ingestion.
type CatalogResult struct {
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
	Parsed   int    `json:"parsed"`
	Inserted int    `json:"inserted"`
	Skipped  bool   `json:"skipped"`
}

// Service wires the parsers to storage and triggers an auto-match pass
// after each statement load.
type Service struct {
	recordRepo  *repository.RecordRepo
	catalogRepo *repository.CatalogRepo
	ingestRepo  *repository.IngestRepo
	recon       *reconciliation.Service
}

func NewService(
	recordRepo *repository.RecordRepo,
	catalogRepo *repository.CatalogRepo,
	ingestRepo *repository.IngestRepo,
	recon *reconciliation.Service,
) *Service {
	return &Service{
		recordRepo:  recordRepo,
		catalogRepo: catalogRepo,
		ingestRepo:  ingestRepo,
		recon:       recon,
	}
}

// IngestStatement parses an AMBRE statement file, stores the lines and
// runs auto-match over the country dataset. Re-uploading a file with the
// same content is a no-op.
func (s *Service) IngestStatement(ctx context.Context, filename string, data []byte, country string) (*StatementResult, error) {
	result := &StatementResult{Filename: filename, Country: country}

	hash := contentHash(data)
	seen, err := s.ingestRepo.AlreadyIngested(hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if seen {
		result.Skipped = true
		log.Printf("[ingestion] Skipping %s: already ingested", filename)
		return result, nil
	}

	accounts := s.recon.AccountMapFor(country)
	if accounts.Country == "" {
		return nil, fmt.Errorf("no account map configured for country %q", country)
	}

	records, err := ParseStatementCSV(data, country, accounts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	result.Parsed = len(records)

	inserted, err := s.recordRepo.BulkInsert(records)
	if err != nil {
		return nil, fmt.Errorf("store records: %w", err)
	}
	result.Inserted = inserted

	if err := s.ingestRepo.MarkIngested(hash, filename, "statement", inserted); err != nil {
		return nil, err
	}

	match, err := s.recon.RunAutoMatch(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("auto-match after ingest: %w", err)
	}
	result.AutoLinked = match.AutoLinked

	log.Printf("[ingestion] Statement %s (%s): %d parsed, %d inserted, %d auto-linked",
		filename, country, result.Parsed, result.Inserted, result.AutoLinked)

	return result, nil
}

// IngestInvoices parses a DWINGS invoice export and stores it.
func (s *Service) IngestInvoices(filename string, data []byte) (*CatalogResult, error) {
	result := &CatalogResult{Filename: filename, Kind: "invoices"}

	hash := contentHash(data)
	seen, err := s.ingestRepo.AlreadyIngested(hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if seen {
		result.Skipped = true
		log.Printf("[ingestion] Skipping %s: already ingested", filename)
		return result, nil
	}

	invoices, err := ParseInvoiceJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	result.Parsed = len(invoices)

	inserted, err := s.catalogRepo.BulkInsertInvoices(invoices)
	if err != nil {
		return nil, fmt.Errorf("store invoices: %w", err)
	}
	result.Inserted = inserted

	if err := s.ingestRepo.MarkIngested(hash, filename, "invoices", inserted); err != nil {
		return nil, err
	}

	log.Printf("[ingestion] Invoices %s: %d parsed, %d inserted", filename, result.Parsed, result.Inserted)
	return result, nil
}

// IngestGuarantees parses a DWINGS guarantee export and stores it.
func (s *Service) IngestGuarantees(filename string, data []byte) (*CatalogResult, error) {
	result := &CatalogResult{Filename: filename, Kind: "guarantees"}

	hash := contentHash(data)
	seen, err := s.ingestRepo.AlreadyIngested(hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if seen {
		result.Skipped = true
		log.Printf("[ingestion] Skipping %s: already ingested", filename)
		return result, nil
	}

	guarantees, err := ParseGuaranteeCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	result.Parsed = len(guarantees)

	inserted, err := s.catalogRepo.BulkInsertGuarantees(guarantees)
	if err != nil {
		return nil, fmt.Errorf("store guarantees: %w", err)
	}
	result.Inserted = inserted

	if err := s.ingestRepo.MarkIngested(hash, filename, "guarantees", inserted); err != nil {
		return nil, err
	}

	log.Printf("[ingestion] Guarantees %s: %d parsed, %d inserted", filename, result.Parsed, result.Inserted)
	return result, nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
