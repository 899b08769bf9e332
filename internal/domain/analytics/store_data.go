package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

func (s *Store) PayableTotals(ctx context.Context, runID string) (PayableTotals, error) {
	var totals PayableTotals
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(overtime_minutes), 0), COALESCE(SUM(payroll_amount), 0), COUNT(DISTINCT employee_id)
    FROM attendance_payables
    WHERE payroll_run_id = $1
  `, runID).Scan(&totals.OvertimeMinutes, &totals.PayrollAmount, &totals.Employees)
	return totals, err
}

func (s *Store) CountLeaveDays(ctx context.Context, companyID string, start, end time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM attendance_days d
    JOIN employees e ON e.id = d.employee_id
    WHERE e.company_id = $1 AND d.work_date BETWEEN $2 AND $3 AND d.source = 'leave'
  `, companyID, start, end).Scan(&count)
	return count, err
}

func (s *Store) Upsert(ctx context.Context, snap Snapshot) (Snapshot, error) {
	dimensions, err := json.Marshal(snap.Dimensions)
	if err != nil {
		return Snapshot{}, err
	}
	metrics, err := json.Marshal(snap.Metrics)
	if err != nil {
		return Snapshot{}, err
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO analytics_snapshots (company_id, payroll_run_id, snapshot_type, dimensions, metrics)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (payroll_run_id, snapshot_type)
    DO UPDATE SET dimensions = EXCLUDED.dimensions, metrics = EXCLUDED.metrics, updated_at = now()
    RETURNING id, created_at, updated_at
  `, snap.CompanyID, snap.RunID, snap.Type, dimensions, metrics).Scan(&snap.ID, &snap.CreatedAt, &snap.UpdatedAt)
	return snap, err
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Snapshot, error) {
	query := `SELECT id, company_id, payroll_run_id, snapshot_type, dimensions, metrics, created_at, updated_at FROM analytics_snapshots WHERE 1=1`
	var args []any
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND snapshot_type = $%d", len(args))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.RunID != "" {
		args = append(args, filter.RunID)
		query += fmt.Sprintf(" AND payroll_run_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.CompanyID, &snap.RunID, &snap.Type, &snap.Dimensions, &snap.Metrics, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
