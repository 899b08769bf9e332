package workforce

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func (s *Store) FindCompany(ctx context.Context, id string) (Company, error) {
	var c Company
	err := s.DB.QueryRow(ctx, `SELECT id, name, created_at FROM companies WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, &NotFoundError{Entity: "company", ID: id}
	}
	return c, err
}

func (s *Store) FindAgency(ctx context.Context, id string) (Agency, error) {
	var a Agency
	err := s.DB.QueryRow(ctx, `SELECT id, name, created_at FROM agencies WHERE id = $1`, id).Scan(&a.ID, &a.Name, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agency{}, &NotFoundError{Entity: "agency", ID: id}
	}
	return a, err
}

const employeeColumns = `id, employee_code, full_name, company_id, COALESCE(agency_id::text, ''), status, created_at`

func (s *Store) FindEmployee(ctx context.Context, id string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id).
		Scan(&e.ID, &e.Code, &e.FullName, &e.CompanyID, &e.AgencyID, &e.Status, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, &NotFoundError{Entity: "employee", ID: id}
	}
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	var args []any
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.AgencyID != "" {
		args = append(args, filter.AgencyID)
		query += fmt.Sprintf(" AND agency_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY employee_code"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Code, &e.FullName, &e.CompanyID, &e.AgencyID, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) UpsertCompany(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    WITH existing AS (SELECT id FROM companies WHERE name = $1 LIMIT 1),
    inserted AS (
      INSERT INTO companies (name) SELECT $1 WHERE NOT EXISTS (SELECT 1 FROM existing)
      RETURNING id
    )
    SELECT id FROM inserted UNION ALL SELECT id FROM existing
  `, name).Scan(&id)
	return id, err
}

func (s *Store) UpsertAgency(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    WITH existing AS (SELECT id FROM agencies WHERE name = $1 LIMIT 1),
    inserted AS (
      INSERT INTO agencies (name) SELECT $1 WHERE NOT EXISTS (SELECT 1 FROM existing)
      RETURNING id
    )
    SELECT id FROM inserted UNION ALL SELECT id FROM existing
  `, name).Scan(&id)
	return id, err
}

func (s *Store) UpsertEmployee(ctx context.Context, e Employee) (string, error) {
	var id string
	var agency any
	if e.AgencyID != "" {
		agency = e.AgencyID
	}
	status := e.Status
	if status == "" {
		status = EmployeeStatusActive
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (employee_code, full_name, company_id, agency_id, status)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (employee_code) DO UPDATE
    SET full_name = EXCLUDED.full_name, company_id = EXCLUDED.company_id, agency_id = EXCLUDED.agency_id, status = EXCLUDED.status
    RETURNING id
  `, e.Code, e.FullName, e.CompanyID, agency, status).Scan(&id)
	return id, err
}

// AddRate appends a rate history row. Empty multipliers stay NULL.
func (s *Store) AddRate(ctx context.Context, in RateInput) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employee_rate_history (employee_id, hourly_rate, overtime_multiplier, night_diff_multiplier, holiday_multiplier, rest_day_multiplier, effective_from, effective_to)
    VALUES ($1, $2::numeric, NULLIF($3, '')::numeric, NULLIF($4, '')::numeric, NULLIF($5, '')::numeric, NULLIF($6, '')::numeric, $7, $8)
  `, in.EmployeeID, in.HourlyRate, in.OvertimeMultiplier, in.NightDiffMultiplier, in.HolidayMultiplier, in.RestDayMultiplier, in.EffectiveFrom, in.EffectiveTo)
	return err
}
