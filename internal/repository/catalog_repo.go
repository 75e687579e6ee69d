package repository

import (
	"database/sql"
	"fmt"

	"github.com/ambre/reconciler/internal/domain"
)

// CatalogRepo persists the DWINGS invoice and guarantee referential.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) BulkInsertInvoices(invoices []domain.Invoice) (int, error) {
	inserted := 0
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(`
		INSERT OR IGNORE INTO dwings_invoices
		(id, business_case_id, business_case_ref, billing_amount, billing_currency,
		 start_date, end_date, payment_method, bgpmt, mt_status, communication_id,
		 status, sender_ref, receiver_ref)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range invoices {
		inv := &invoices[i]
		res, err := stmt.Exec(
			inv.ID, inv.BusinessCaseID, inv.BusinessCaseRef, inv.BillingAmount,
			inv.BillingCurrency, formatNullableTime(inv.StartDate),
			formatNullableTime(inv.EndDate), inv.PaymentMethod, inv.BGPMT,
			inv.MTStatus, inv.CommunicationID, inv.Status, inv.SenderRef, inv.ReceiverRef,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert invoice %q: %w", inv.ID, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *CatalogRepo) BulkInsertGuarantees(guarantees []domain.Guarantee) (int, error) {
	inserted := 0
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(`
		INSERT OR IGNORE INTO dwings_guarantees
		(id, status, nature, name, official_ref, currency, outstanding_amount)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range guarantees {
		g := &guarantees[i]
		res, err := stmt.Exec(
			g.ID, g.Status, g.Nature, g.Name, g.OfficialRef, g.Currency, g.OutstandingAmount,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert guarantee %q: %w", g.ID, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// LoadCatalog reads the full referential into the in-memory catalog the
// matching engine consumes.
func (r *CatalogRepo) LoadCatalog() (*domain.Catalog, error) {
	invoices, err := r.loadInvoices()
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	guarantees, err := r.loadGuarantees()
	if err != nil {
		return nil, fmt.Errorf("load guarantees: %w", err)
	}
	return domain.NewCatalog(invoices, guarantees), nil
}

func (r *CatalogRepo) loadInvoices() ([]domain.Invoice, error) {
	rows, err := r.db.Query(`
		SELECT id, business_case_id, business_case_ref, billing_amount, billing_currency,
		       start_date, end_date, payment_method, bgpmt, mt_status, communication_id,
		       status, sender_ref, receiver_ref
		FROM dwings_invoices ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		var caseID, caseRef, method, bgpmt, mtStatus, commID, status, sender, receiver sql.NullString
		var start, end sql.NullString
		err := rows.Scan(
			&inv.ID, &caseID, &caseRef, &inv.BillingAmount, &inv.BillingCurrency,
			&start, &end, &method, &bgpmt, &mtStatus, &commID,
			&status, &sender, &receiver,
		)
		if err != nil {
			return nil, err
		}
		inv.BusinessCaseID = caseID.String
		inv.BusinessCaseRef = caseRef.String
		inv.PaymentMethod = method.String
		inv.BGPMT = bgpmt.String
		inv.MTStatus = mtStatus.String
		inv.CommunicationID = commID.String
		inv.Status = status.String
		inv.SenderRef = sender.String
		inv.ReceiverRef = receiver.String
		inv.StartDate = parseNullableTime(start)
		inv.EndDate = parseNullableTime(end)
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *CatalogRepo) loadGuarantees() ([]domain.Guarantee, error) {
	rows, err := r.db.Query(`
		SELECT id, status, nature, name, official_ref, currency, outstanding_amount
		FROM dwings_guarantees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guarantees []domain.Guarantee
	for rows.Next() {
		var g domain.Guarantee
		var status, nature, name, ref, currency sql.NullString
		if err := rows.Scan(&g.ID, &status, &nature, &name, &ref, &currency, &g.OutstandingAmount); err != nil {
			return nil, err
		}
		g.Status = status.String
		g.Nature = nature.String
		g.Name = name.String
		g.OfficialRef = ref.String
		g.Currency = currency.String
		guarantees = append(guarantees, g)
	}
	return guarantees, rows.Err()
}

func (r *CatalogRepo) CountInvoices() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM dwings_invoices").Scan(&count)
	return count, err
}
