package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"workpay/internal/platform/querier"
)

const (
	ActionRunCreate       = "payroll.run.create"
	ActionRunSnapshot     = "payroll.run.snapshot"
	ActionRunTransition   = "payroll.run.transition"
	ActionRunAcknowledge  = "payroll.run.acknowledge"
	ActionAdjustmentAdd   = "payroll.adjustment.create"
	ActionPayslipGenerate = "payslip.generate"
	ActionPayslipSkipped  = "payslip.skipped"
	ActionLeaveCreate     = "leave.request.create"
	ActionLeaveDecide     = "leave.request.decide"
	ActionAttendanceRun   = "attendance.normalize"
)

type Event struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"companyId,omitempty"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	CompanyID  string
	Action     string
	EntityType string
	EntityID   string
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Record stores one audit event. A nil Service records nothing.
func (s *Service) Record(ctx context.Context, companyID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	if s == nil || s.DB == nil {
		return nil
	}
	beforeJSON, err := marshalOptional(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(after)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (company_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, nullUUID(companyID), nullUUID(actorID), action, entityType, entityID, beforeJSON, afterJSON, requestID, ip)
	return err
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query := `
    SELECT id, COALESCE(company_id::text,''), COALESCE(actor_user_id::text,''), action, entity_type, entity_id,
           COALESCE(request_id,''), COALESCE(ip,''), created_at, before_json, after_json
    FROM audit_events
    WHERE 1=1`
	var args []any
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id::text = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		query += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.CompanyID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt, &evt.Before, &evt.After); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func marshalOptional(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

func nullUUID(value string) any {
	if value == "" {
		return nil
	}
	return value
}
