package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const requestColumns = `r.id, r.employee_id, e.company_id, r.start_date, r.end_date, r.leave_type, r.is_paid, COALESCE(r.reason, ''), r.status, COALESCE(r.remarks, ''), COALESCE(r.decided_by::text, ''), r.decided_at, r.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.EmployeeID, &req.CompanyID, &req.StartDate, &req.EndDate, &req.LeaveType, &req.IsPaid, &req.Reason, &req.Status, &req.Remarks, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	req.Days, _ = CalculateDays(req.StartDate, req.EndDate)
	return req, nil
}

func collect(rows pgx.Rows) ([]Request, error) {
	defer rows.Close()
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Store) CreateRequest(ctx context.Context, req Request) (Request, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, start_date, end_date, leave_type, is_paid, reason, status)
    VALUES ($1,$2,$3,$4,$5,NULLIF($6, ''),$7)
    RETURNING id
  `, req.EmployeeID, req.StartDate, req.EndDate, req.LeaveType, req.IsPaid, req.Reason, StatusPending).Scan(&id); err != nil {
		return Request{}, err
	}
	return s.GetRequest(ctx, id)
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.id = $1
  `, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, &NotFoundError{RequestID: requestID}
	}
	return req, err
}

func (s *Store) ListRequests(ctx context.Context, filter Filter) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests r JOIN employees e ON e.id = r.employee_id WHERE 1=1`
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND r.employee_id = $%d", len(args))
	}
	if filter.AgencyID != "" {
		args = append(args, filter.AgencyID)
		query += fmt.Sprintf(" AND e.agency_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Decide moves a pending request to its final status and records the
// decision in one transaction.
func (s *Store) Decide(ctx context.Context, decision Decision) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $2, remarks = NULLIF($3, ''), decided_by = $4, decided_at = now()
    WHERE id = $1 AND status = 'pending'
  `, decision.RequestID, decision.Status, decision.Remarks, decision.ActorID)
	if err != nil {
		return Request{}, err
	}
	if tag.RowsAffected() == 0 {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM leave_requests WHERE id = $1`, decision.RequestID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, &NotFoundError{RequestID: decision.RequestID}
		}
		if err != nil {
			return Request{}, err
		}
		return Request{}, &NotPendingError{RequestID: decision.RequestID, Status: status}
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO leave_approvals (leave_request_id, actor_id, role, status, remarks)
    VALUES ($1,$2,$3,$4,NULLIF($5, ''))
  `, decision.RequestID, decision.ActorID, decision.Role, decision.Status, decision.Remarks); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return s.GetRequest(ctx, decision.RequestID)
}

// ApprovedOn lists approved requests covering date.
func (s *Store) ApprovedOn(ctx context.Context, date time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.status = 'approved' AND r.start_date <= $1 AND r.end_date >= $1
    ORDER BY r.employee_id, r.decided_at
  `, date)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
