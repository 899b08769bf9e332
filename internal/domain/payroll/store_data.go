package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"workpay/internal/platform/querier"
)

const runColumns = `id, company_id, period_start, period_end, type, status, COALESCE(created_by::text, ''), created_at, updated_at, locked_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.CompanyID, &run.PeriodStart, &run.PeriodEnd, &run.Type, &run.Status, &run.CreatedBy, &run.CreatedAt, &run.UpdatedAt, &run.LockedAt)
	return run, err
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) FindAttendance(ctx context.Context, companyID string, start, end time.Time) ([]AttendanceDay, error) {
	return findAttendance(ctx, s.DB, companyID, start, end)
}

func findAttendance(ctx context.Context, db querier.Querier, companyID string, start, end time.Time) ([]AttendanceDay, error) {
	rows, err := db.Query(ctx, `
    SELECT d.employee_id, d.work_date, d.regular_minutes, d.overtime_minutes, d.night_diff_minutes, d.holiday_minutes, d.rest_day_minutes
    FROM attendance_days d
    JOIN employees e ON e.id = d.employee_id
    WHERE e.company_id = $1 AND d.work_date BETWEEN $2 AND $3
    ORDER BY d.work_date, e.employee_code
  `, companyID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceDay
	for rows.Next() {
		var day AttendanceDay
		if err := rows.Scan(&day.EmployeeID, &day.WorkDate, &day.RegularMinutes, &day.OvertimeMinutes, &day.NightDiffMinutes, &day.HolidayMinutes, &day.RestDayMinutes); err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, rows.Err()
}

func (s *Store) FindRatesOverlapping(ctx context.Context, start, end time.Time) ([]RateRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, hourly_rate, overtime_multiplier, night_diff_multiplier, holiday_multiplier, rest_day_multiplier, effective_from, effective_to
    FROM employee_rate_history
    WHERE effective_from <= $2 AND (effective_to IS NULL OR effective_to >= $1)
    ORDER BY employee_id, effective_from, created_at
  `, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RateRow
	for rows.Next() {
		var row RateRow
		if err := rows.Scan(&row.EmployeeID, &row.HourlyRate, &row.OvertimeMultiplier, &row.NightDiffMultiplier, &row.HolidayMultiplier, &row.RestDayMultiplier, &row.EffectiveFrom, &row.EffectiveTo); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) CreateRun(ctx context.Context, run Run) (Run, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_runs (company_id, period_start, period_end, type, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+runColumns, run.CompanyID, run.PeriodStart, run.PeriodEnd, run.Type, run.Status, nullable(run.CreatedBy))
	return scanRun(row)
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	run, err := scanRun(s.DB.QueryRow(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, runNotFound(runID)
	}
	return run, err
}

func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE 1=1`
	var args []any
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY period_start DESC, created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) FindLockedRunsOverlapping(ctx context.Context, companyID string, start, end time.Time) ([]Run, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+runColumns+`
    FROM payroll_runs
    WHERE company_id = $1 AND status = 'locked' AND period_start <= $3 AND period_end >= $2
    ORDER BY period_start
  `, companyID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) HasSnapshot(ctx context.Context, runID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payroll_snapshots WHERE payroll_run_id = $1)`, runID).Scan(&exists)
	return exists, err
}

// Freeze locks the run row, prices its attendance and writes the snapshot
// guard and payable rows in one transaction.
func (s *Store) Freeze(ctx context.Context, runID, actorID string, price FreezeFunc) (int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	run, err := scanRun(tx.QueryRow(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE id = $1 FOR UPDATE`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, runNotFound(runID)
	}
	if err != nil {
		return 0, err
	}
	if run.Status != StatusDraft {
		return 0, &InvalidStatusTransitionError{RunID: runID, Status: run.Status, Action: ActionSnapshot}
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payroll_snapshots WHERE payroll_run_id = $1)`, runID).Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		return 0, &SnapshotAlreadyExistsError{RunID: runID}
	}

	days, err := findAttendance(ctx, tx, run.CompanyID, run.PeriodStart, run.PeriodEnd)
	if err != nil {
		return 0, err
	}
	payables, err := price(run, days)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO payroll_snapshots (payroll_run_id, row_count, created_by)
    VALUES ($1,$2,$3)
  `, runID, len(payables), nullable(actorID)); err != nil {
		if isUniqueViolation(err) {
			return 0, &SnapshotAlreadyExistsError{RunID: runID}
		}
		return 0, err
	}

	batch := &pgx.Batch{}
	for _, p := range payables {
		batch.Queue(`
      INSERT INTO attendance_payables (payroll_run_id, employee_id, work_date, regular_minutes, overtime_minutes, night_diff_minutes, holiday_minutes, rest_day_minutes,
        regular_pay, overtime_pay, night_diff_pay, holiday_pay, rest_day_pay, payroll_amount)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    `, runID, p.EmployeeID, p.WorkDate, p.RegularMinutes, p.OvertimeMinutes, p.NightDiffMinutes, p.HolidayMinutes, p.RestDayMinutes,
			p.RegularPay, p.OvertimePay, p.NightDiffPay, p.HolidayPay, p.RestDayPay, p.PayrollAmount)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(payables), nil
}

func (s *Store) ListPayables(ctx context.Context, runID string) ([]Payable, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.payroll_run_id, p.employee_id, p.work_date, p.regular_minutes, p.overtime_minutes, p.night_diff_minutes, p.holiday_minutes, p.rest_day_minutes,
      p.regular_pay, p.overtime_pay, p.night_diff_pay, p.holiday_pay, p.rest_day_pay, p.payroll_amount
    FROM attendance_payables p
    LEFT JOIN employees e ON e.id = p.employee_id
    WHERE p.payroll_run_id = $1
    ORDER BY p.work_date, e.employee_code NULLS LAST, p.employee_id
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payable
	for rows.Next() {
		var p Payable
		if err := rows.Scan(&p.RunID, &p.EmployeeID, &p.WorkDate, &p.RegularMinutes, &p.OvertimeMinutes, &p.NightDiffMinutes, &p.HolidayMinutes, &p.RestDayMinutes,
			&p.RegularPay, &p.OvertimePay, &p.NightDiffPay, &p.HolidayPay, &p.RestDayPay, &p.PayrollAmount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) HasPayables(ctx context.Context, runID, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_payables WHERE payroll_run_id = $1 AND employee_id = $2)`, runID, employeeID).Scan(&exists)
	return exists, err
}

// TransitionRun moves the run from approval.FromStatus to approval.ToStatus
// and records the approval. A run that already left FromStatus is rejected.
func (s *Store) TransitionRun(ctx context.Context, approval Approval) (Run, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	run, err := scanRun(tx.QueryRow(ctx, `
    UPDATE payroll_runs
    SET status = $3,
        updated_at = now(),
        locked_at = CASE WHEN $3 = 'locked' THEN now() ELSE locked_at END
    WHERE id = $1 AND status = $2
    RETURNING `+runColumns, approval.RunID, approval.FromStatus, approval.ToStatus))
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := scanRun(tx.QueryRow(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE id = $1`, approval.RunID))
		if errors.Is(getErr, pgx.ErrNoRows) {
			return Run{}, runNotFound(approval.RunID)
		}
		if getErr != nil {
			return Run{}, getErr
		}
		return Run{}, &InvalidStatusTransitionError{RunID: approval.RunID, Status: current.Status, Action: approval.Action}
	}
	if err != nil {
		return Run{}, err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO approval_history (payroll_run_id, actor_id, role, action, from_status, to_status)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, approval.RunID, nullable(approval.ActorID), approval.Role, approval.Action, approval.FromStatus, approval.ToStatus); err != nil {
		return Run{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) InsertAcknowledgment(ctx context.Context, ack Acknowledgment) (Acknowledgment, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_acknowledgments (payroll_run_id, actor_id, role, run_status, remarks)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, created_at
  `, ack.RunID, nullable(ack.ActorID), ack.Role, ack.RunStatus, nullable(ack.Remarks)).Scan(&ack.ID, &ack.CreatedAt)
	return ack, err
}

func (s *Store) ListAcknowledgments(ctx context.Context, runID string) ([]Acknowledgment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, payroll_run_id, COALESCE(actor_id::text, ''), role, run_status, COALESCE(remarks, ''), created_at
    FROM payroll_acknowledgments
    WHERE payroll_run_id = $1
    ORDER BY created_at
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Acknowledgment
	for rows.Next() {
		var ack Acknowledgment
		if err := rows.Scan(&ack.ID, &ack.RunID, &ack.ActorID, &ack.Role, &ack.RunStatus, &ack.Remarks, &ack.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ack)
	}
	return out, rows.Err()
}

func (s *Store) ListApprovals(ctx context.Context, runID string) ([]Approval, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, payroll_run_id, COALESCE(actor_id::text, ''), role, action, from_status, to_status, created_at
    FROM approval_history
    WHERE payroll_run_id = $1
    ORDER BY created_at
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Approval
	for rows.Next() {
		var approval Approval
		if err := rows.Scan(&approval.ID, &approval.RunID, &approval.ActorID, &approval.Role, &approval.Action, &approval.FromStatus, &approval.ToStatus, &approval.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, approval)
	}
	return out, rows.Err()
}

func (s *Store) InsertAdjustment(ctx context.Context, adj Adjustment) (Adjustment, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_adjustments (payroll_run_id, employee_id, amount, reason, created_by)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, created_at
  `, adj.RunID, adj.EmployeeID, adj.Amount, adj.Reason, nullable(adj.CreatedBy)).Scan(&adj.ID, &adj.CreatedAt)
	return adj, err
}

func (s *Store) ListAdjustments(ctx context.Context, runID string) ([]Adjustment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, payroll_run_id, employee_id, amount, reason, COALESCE(created_by::text, ''), created_at
    FROM payroll_adjustments
    WHERE payroll_run_id = $1
    ORDER BY created_at
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		var adj Adjustment
		if err := rows.Scan(&adj.ID, &adj.RunID, &adj.EmployeeID, &adj.Amount, &adj.Reason, &adj.CreatedBy, &adj.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	return out, rows.Err()
}

func (s *Store) SumAdjustments(ctx context.Context, runID string) (map[string]decimal.Decimal, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, SUM(amount)
    FROM payroll_adjustments
    WHERE payroll_run_id = $1
    GROUP BY employee_id
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var employeeID string
		var total decimal.Decimal
		if err := rows.Scan(&employeeID, &total); err != nil {
			return nil, err
		}
		out[employeeID] = total
	}
	return out, rows.Err()
}

const documentColumns = `id, type, payroll_run_id, employee_id, storage_key, content_hash, COALESCE(created_by::text, ''), created_at, updated_at`

func scanDocument(row scanner) (Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.Type, &doc.RunID, &doc.EmployeeID, &doc.StorageKey, &doc.ContentHash, &doc.CreatedBy, &doc.CreatedAt, &doc.UpdatedAt)
	return doc, err
}

func (s *Store) UpsertDocument(ctx context.Context, doc Document) (Document, error) {
	return scanDocument(s.DB.QueryRow(ctx, `
    INSERT INTO documents (type, payroll_run_id, employee_id, storage_key, content_hash, created_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (type, payroll_run_id, employee_id)
    DO UPDATE SET storage_key = EXCLUDED.storage_key, content_hash = EXCLUDED.content_hash, updated_at = now()
    RETURNING `+documentColumns, doc.Type, doc.RunID, doc.EmployeeID, doc.StorageKey, doc.ContentHash, nullable(doc.CreatedBy)))
}

func (s *Store) ListDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.RunID != "" {
		args = append(args, filter.RunID)
		query += fmt.Sprintf(" AND payroll_run_id = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (Document, error) {
	doc, err := scanDocument(s.DB.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, documentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, &NotFoundError{Entity: "document", ID: documentID}
	}
	return doc, err
}
