package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			country TEXT NOT NULL,
			account_id TEXT NOT NULL,
			account_side TEXT NOT NULL,
			signed_amount REAL NOT NULL,
			currency TEXT NOT NULL,
			sign TEXT NOT NULL,
			operation_date DATETIME,
			value_date DATETIME,
			raw_label TEXT NOT NULL,
			reconciliation_num TEXT,
			reconciliation_origin_num TEXT,
			event_num TEXT,
			payment_reference TEXT,
			cross_system_ref TEXT,
			transaction_type TEXT,
			booking TEXT,
			guarantee_type TEXT,
			dwings_invoice_id TEXT,
			dwings_guarantee_id TEXT,
			dwings_bgpmt TEXT,
			dwings_ref TEXT,
			is_matched INTEGER NOT NULL DEFAULT 0,
			manual_match INTEGER NOT NULL DEFAULT 0,
			is_transitory INTEGER NOT NULL DEFAULT 0,
			action_id INTEGER,
			kpi_id INTEGER,
			incident_type_id INTEGER,
			risky_item INTEGER,
			reason_non_risky_id INTEGER,
			to_remind INTEGER NOT NULL DEFAULT 0,
			to_remind_date DATETIME,
			action_status TEXT,
			action_date DATETIME,
			trigger_date DATETIME,
			first_claim_date DATETIME,
			last_reminder_date DATETIME,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_country ON records(country)`,
		`CREATE INDEX IF NOT EXISTS idx_records_invoice ON records(dwings_invoice_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_side ON records(account_side)`,

		`CREATE TABLE IF NOT EXISTS truth_rules (
			rule_id TEXT PRIMARY KEY,
			enabled INTEGER NOT NULL,
			priority INTEGER NOT NULL,
			scope TEXT NOT NULL,
			account_side TEXT NOT NULL DEFAULT '*',
			sign TEXT NOT NULL DEFAULT '*',
			guarantee_type TEXT NOT NULL DEFAULT '',
			transaction_type TEXT NOT NULL DEFAULT '',
			booking TEXT NOT NULL DEFAULT '',
			has_dwings_link INTEGER,
			is_grouped INTEGER,
			is_amount_match INTEGER,
			mt_status_acked INTEGER,
			comm_id_email INTEGER,
			bgi_status_initiated INTEGER,
			trigger_date_is_null INTEGER,
			is_transitory INTEGER,
			is_matched INTEGER,
			has_manual_match INTEGER,
			is_first_request INTEGER,
			days_since_trigger_min INTEGER,
			days_since_trigger_max INTEGER,
			operation_days_ago_min INTEGER,
			operation_days_ago_max INTEGER,
			days_since_reminder_min INTEGER,
			days_since_reminder_max INTEGER,
			current_action_id INTEGER,
			output_action_id INTEGER,
			output_kpi_id INTEGER,
			output_incident_type_id INTEGER,
			output_risky_item INTEGER,
			output_reason_non_risky_id INTEGER,
			output_to_remind INTEGER,
			output_to_remind_days INTEGER,
			output_first_claim_today INTEGER NOT NULL DEFAULT 0,
			apply_target TEXT NOT NULL,
			auto_apply INTEGER NOT NULL,
			message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_truth_rules_priority ON truth_rules(priority, rule_id)`,

		`CREATE TABLE IF NOT EXISTS dwings_invoices (
			id TEXT PRIMARY KEY,
			business_case_id TEXT,
			business_case_ref TEXT,
			billing_amount REAL NOT NULL,
			billing_currency TEXT NOT NULL,
			start_date DATETIME,
			end_date DATETIME,
			payment_method TEXT,
			bgpmt TEXT,
			mt_status TEXT,
			communication_id TEXT,
			status TEXT,
			sender_ref TEXT,
			receiver_ref TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dwings_invoices_case ON dwings_invoices(business_case_id)`,

		`CREATE TABLE IF NOT EXISTS dwings_guarantees (
			id TEXT PRIMARY KEY,
			status TEXT,
			nature TEXT,
			name TEXT,
			official_ref TEXT,
			currency TEXT,
			outstanding_amount REAL NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS ingested_files (
			hash TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			kind TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			ingested_at DATETIME NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
