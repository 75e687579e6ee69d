package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ambre/reconciler/internal/domain"
)

// RecordRepo persists reconciliation records.
type RecordRepo struct {
	db *sql.DB
}

func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

const recordColumns = `id, country, account_id, account_side, signed_amount, currency, sign,
	operation_date, value_date, raw_label, reconciliation_num, reconciliation_origin_num,
	event_num, payment_reference, cross_system_ref, transaction_type, booking, guarantee_type,
	dwings_invoice_id, dwings_guarantee_id, dwings_bgpmt, dwings_ref,
	is_matched, manual_match, is_transitory,
	action_id, kpi_id, incident_type_id, risky_item, reason_non_risky_id,
	to_remind, to_remind_date, action_status, action_date, trigger_date,
	first_claim_date, last_reminder_date, created_at`

const recordPlaceholders = `?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?`

func recordArgs(r *domain.ReconciliationRecord) []any {
	return []any{
		r.ID, r.Country, r.AccountID, string(r.AccountSide), r.SignedAmount, r.Currency, r.Sign,
		formatNullableTime(r.OperationDate), formatNullableTime(r.ValueDate), r.RawLabel,
		r.ReconciliationNum, r.ReconciliationOriginNum, r.EventNum, r.PaymentReference,
		r.CrossSystemRef, r.TransactionType, r.Booking, r.GuaranteeType,
		r.DwingsInvoiceID, r.DwingsGuaranteeID, r.DwingsBGPMT, r.DwingsRef,
		boolToInt(r.IsMatchedAcrossAccounts), boolToInt(r.ManualMatch), boolToInt(r.IsTransitory),
		nullableInt(r.ActionID), nullableInt(r.KpiID), nullableInt(r.IncidentTypeID),
		nullableBool(r.RiskyItem), nullableInt(r.ReasonNonRiskyID),
		boolToInt(r.ToRemind), formatNullableTime(r.ToRemindDate), r.ActionStatus,
		formatNullableTime(r.ActionDate), formatNullableTime(r.TriggerDate),
		formatNullableTime(r.FirstClaimDate), formatNullableTime(r.LastReminderDate),
		r.CreatedAt.Format(time.RFC3339),
	}
}

func (r *RecordRepo) Insert(rec *domain.ReconciliationRecord) error {
	_, err := r.db.Exec(
		`INSERT OR IGNORE INTO records (`+recordColumns+`) VALUES (`+recordPlaceholders+`)`,
		recordArgs(rec)...,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *RecordRepo) BulkInsert(recs []domain.ReconciliationRecord) (int, error) {
	inserted := 0
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT OR IGNORE INTO records (` + recordColumns + `) VALUES (` + recordPlaceholders + `)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range recs {
		res, err := stmt.Exec(recordArgs(&recs[i])...)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *RecordRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func (r *RecordRepo) GetByID(id string) (*domain.ReconciliationRecord, error) {
	rows, err := r.db.Query("SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanRecord(rows)
}

// GetByCountry loads the full in-scope record set for one country dataset,
// id ascending. The matching engine and the batch service operate on this
// complete pool.
func (r *RecordRepo) GetByCountry(country string) ([]*domain.ReconciliationRecord, error) {
	rows, err := r.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE country = ? ORDER BY id", country,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var recs []*domain.ReconciliationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type RecordFilter struct {
	Country     string
	AccountSide string
	Linked      *bool // filter on presence of a DWINGS invoice link
	Matched     *bool
	Page        int
	Limit       int
}

func (r *RecordRepo) List(f RecordFilter) ([]*domain.ReconciliationRecord, int, error) {
	where, args := buildRecordWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	query := "SELECT " + recordColumns + " FROM records" + where + " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var recs []*domain.ReconciliationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, total, rows.Err()
}

// Update rewrites every mutable field of the record: cross-references,
// matched flag and workflow fields.
func (r *RecordRepo) Update(rec *domain.ReconciliationRecord) error {
	_, err := r.db.Exec(`
		UPDATE records SET
			dwings_invoice_id = ?, dwings_guarantee_id = ?, dwings_bgpmt = ?, dwings_ref = ?,
			is_matched = ?, manual_match = ?,
			action_id = ?, kpi_id = ?, incident_type_id = ?, risky_item = ?, reason_non_risky_id = ?,
			to_remind = ?, to_remind_date = ?, action_status = ?, action_date = ?,
			trigger_date = ?, first_claim_date = ?, last_reminder_date = ?
		WHERE id = ?`,
		rec.DwingsInvoiceID, rec.DwingsGuaranteeID, rec.DwingsBGPMT, rec.DwingsRef,
		boolToInt(rec.IsMatchedAcrossAccounts), boolToInt(rec.ManualMatch),
		nullableInt(rec.ActionID), nullableInt(rec.KpiID), nullableInt(rec.IncidentTypeID),
		nullableBool(rec.RiskyItem), nullableInt(rec.ReasonNonRiskyID),
		boolToInt(rec.ToRemind), formatNullableTime(rec.ToRemindDate), rec.ActionStatus,
		formatNullableTime(rec.ActionDate), formatNullableTime(rec.TriggerDate),
		formatNullableTime(rec.FirstClaimDate), formatNullableTime(rec.LastReminderDate),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update record %s: %w", rec.ID, err)
	}
	return nil
}

// BulkUpdate persists a batch run's mutations in one transaction.
func (r *RecordRepo) BulkUpdate(recs []*domain.ReconciliationRecord) error {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(`
		UPDATE records SET
			dwings_invoice_id = ?, dwings_guarantee_id = ?, dwings_bgpmt = ?, dwings_ref = ?,
			is_matched = ?, manual_match = ?,
			action_id = ?, kpi_id = ?, incident_type_id = ?, risky_item = ?, reason_non_risky_id = ?,
			to_remind = ?, to_remind_date = ?, action_status = ?, action_date = ?,
			trigger_date = ?, first_claim_date = ?, last_reminder_date = ?
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err := stmt.Exec(
			rec.DwingsInvoiceID, rec.DwingsGuaranteeID, rec.DwingsBGPMT, rec.DwingsRef,
			boolToInt(rec.IsMatchedAcrossAccounts), boolToInt(rec.ManualMatch),
			nullableInt(rec.ActionID), nullableInt(rec.KpiID), nullableInt(rec.IncidentTypeID),
			nullableBool(rec.RiskyItem), nullableInt(rec.ReasonNonRiskyID),
			boolToInt(rec.ToRemind), formatNullableTime(rec.ToRemindDate), rec.ActionStatus,
			formatNullableTime(rec.ActionDate), formatNullableTime(rec.TriggerDate),
			formatNullableTime(rec.FirstClaimDate), formatNullableTime(rec.LastReminderDate),
			rec.ID,
		)
		if err != nil {
			return fmt.Errorf("update record %s: %w", rec.ID, err)
		}
	}

	return sqlTx.Commit()
}

// SummaryStats holds aggregate record statistics for the dashboard.
type SummaryStats struct {
	Total    int     `json:"total"`
	Linked   int     `json:"linked"`
	Matched  int     `json:"matched"`
	ToRemind int     `json:"to_remind"`
	Risky    int     `json:"risky"`
	TotalAbs float64 `json:"total_abs_amount"`
}

func (r *RecordRepo) GetSummaryStats() (*SummaryStats, error) {
	s := &SummaryStats{}
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN dwings_invoice_id != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(is_matched), 0),
			COALESCE(SUM(to_remind), 0),
			COALESCE(SUM(CASE WHEN risky_item = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(ABS(signed_amount)), 0)
		FROM records
	`).Scan(&s.Total, &s.Linked, &s.Matched, &s.ToRemind, &s.Risky, &s.TotalAbs)
	return s, err
}

// --- helpers ---

func buildRecordWhere(f RecordFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Country != "" {
		clauses = append(clauses, "country = ?")
		args = append(args, f.Country)
	}
	if f.AccountSide != "" {
		clauses = append(clauses, "account_side = ?")
		args = append(args, f.AccountSide)
	}
	if f.Linked != nil {
		if *f.Linked {
			clauses = append(clauses, "dwings_invoice_id != ''")
		} else {
			clauses = append(clauses, "dwings_invoice_id = ''")
		}
	}
	if f.Matched != nil {
		clauses = append(clauses, "is_matched = ?")
		args = append(args, boolToInt(*f.Matched))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanRecord(rows *sql.Rows) (*domain.ReconciliationRecord, error) {
	var rec domain.ReconciliationRecord
	var side, createdAt string
	var opDate, valDate, remindDate, actionDate, triggerDate, firstClaim, lastReminder sql.NullString
	var isMatched, manualMatch, isTransitory, toRemind int
	var actionID, kpiID, incidentID, reasonID, risky sql.NullInt64
	var reconNum, originNum, eventNum, payRef, crossRef, txType, booking, gteeType sql.NullString
	var invID, gteeID, bgpmt, dwRef, actionStatus sql.NullString

	err := rows.Scan(
		&rec.ID, &rec.Country, &rec.AccountID, &side, &rec.SignedAmount, &rec.Currency, &rec.Sign,
		&opDate, &valDate, &rec.RawLabel, &reconNum, &originNum,
		&eventNum, &payRef, &crossRef, &txType, &booking, &gteeType,
		&invID, &gteeID, &bgpmt, &dwRef,
		&isMatched, &manualMatch, &isTransitory,
		&actionID, &kpiID, &incidentID, &risky, &reasonID,
		&toRemind, &remindDate, &actionStatus, &actionDate, &triggerDate,
		&firstClaim, &lastReminder, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.AccountSide = domain.AccountSide(side)
	rec.ReconciliationNum = reconNum.String
	rec.ReconciliationOriginNum = originNum.String
	rec.EventNum = eventNum.String
	rec.PaymentReference = payRef.String
	rec.CrossSystemRef = crossRef.String
	rec.TransactionType = txType.String
	rec.Booking = booking.String
	rec.GuaranteeType = gteeType.String
	rec.DwingsInvoiceID = invID.String
	rec.DwingsGuaranteeID = gteeID.String
	rec.DwingsBGPMT = bgpmt.String
	rec.DwingsRef = dwRef.String
	rec.ActionStatus = actionStatus.String

	rec.IsMatchedAcrossAccounts = isMatched != 0
	rec.ManualMatch = manualMatch != 0
	rec.IsTransitory = isTransitory != 0
	rec.ToRemind = toRemind != 0

	rec.ActionID = intFromNull(actionID)
	rec.KpiID = intFromNull(kpiID)
	rec.IncidentTypeID = intFromNull(incidentID)
	rec.ReasonNonRiskyID = intFromNull(reasonID)
	rec.RiskyItem = boolFromNull(risky)

	rec.OperationDate = parseNullableTime(opDate)
	rec.ValueDate = parseNullableTime(valDate)
	rec.ToRemindDate = parseNullableTime(remindDate)
	rec.ActionDate = parseNullableTime(actionDate)
	rec.TriggerDate = parseNullableTime(triggerDate)
	rec.FirstClaimDate = parseNullableTime(firstClaim)
	rec.LastReminderDate = parseNullableTime(lastReminder)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &rec, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBool(v *bool) any {
	if v == nil {
		return nil
	}
	return boolToInt(*v)
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func boolFromNull(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}
