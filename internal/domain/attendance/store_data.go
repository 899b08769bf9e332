package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) RecordPunch(ctx context.Context, employeeID string, at time.Time) (Punch, error) {
	p := Punch{EmployeeID: employeeID, PunchTime: at}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_logs (employee_id, punch_time)
    VALUES ($1,$2)
    RETURNING id, created_at
  `, employeeID, at).Scan(&p.ID, &p.CreatedAt)
	return p, err
}

func (s *Store) ListPunches(ctx context.Context, employeeID string, from, to time.Time) ([]Punch, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, punch_time, created_at
    FROM attendance_logs
    WHERE employee_id = $1 AND punch_time >= $2 AND punch_time < $3
    ORDER BY punch_time
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Punch
	for rows.Next() {
		var p Punch
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.PunchTime, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) EmployeesWithPunches(ctx context.Context, workDate time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT employee_id
    FROM attendance_logs
    WHERE punch_time >= $1 AND punch_time < $2
    ORDER BY employee_id
  `, workDate, workDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpsertDays writes all days in one transaction, keyed on (employee, date).
func (s *Store) UpsertDays(ctx context.Context, days []Day) error {
	if len(days) == 0 {
		return nil
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, d := range days {
		batch.Queue(`
      INSERT INTO attendance_days (employee_id, work_date, regular_minutes, overtime_minutes, night_diff_minutes, holiday_minutes, rest_day_minutes, source)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      ON CONFLICT (employee_id, work_date) DO UPDATE
      SET regular_minutes = EXCLUDED.regular_minutes,
          overtime_minutes = EXCLUDED.overtime_minutes,
          night_diff_minutes = EXCLUDED.night_diff_minutes,
          holiday_minutes = EXCLUDED.holiday_minutes,
          rest_day_minutes = EXCLUDED.rest_day_minutes,
          source = EXCLUDED.source,
          updated_at = now()
    `, d.EmployeeID, d.WorkDate, d.RegularMinutes, d.OvertimeMinutes, d.NightDiffMinutes, d.HolidayMinutes, d.RestDayMinutes, d.Source)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListDays(ctx context.Context, filter DayFilter) ([]Day, error) {
	query := `
    SELECT d.employee_id, d.work_date, d.regular_minutes, d.overtime_minutes, d.night_diff_minutes, d.holiday_minutes, d.rest_day_minutes, d.source, d.updated_at
    FROM attendance_days d
    JOIN employees e ON e.id = d.employee_id
    WHERE 1=1`
	var args []any
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND e.company_id = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND d.employee_id = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND d.work_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND d.work_date <= $%d", len(args))
	}
	query += " ORDER BY d.work_date, e.employee_code"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Day
	for rows.Next() {
		var d Day
		if err := rows.Scan(&d.EmployeeID, &d.WorkDate, &d.RegularMinutes, &d.OvertimeMinutes, &d.NightDiffMinutes, &d.HolidayMinutes, &d.RestDayMinutes, &d.Source, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
