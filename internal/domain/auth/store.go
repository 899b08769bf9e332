package auth

import (
	"context"

	"workpay/internal/platform/querier"
)

const UserStatusActive = "active"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID           string
	Email        string
	Role         string
	CompanyID    string
	AgencyID     string
	EmployeeID   string
	PasswordHash string
}

func (u AuthUser) Claims() Claims {
	return Claims{
		UserID:     u.ID,
		Role:       u.Role,
		CompanyID:  u.CompanyID,
		AgencyID:   u.AgencyID,
		EmployeeID: u.EmployeeID,
	}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, role,
           COALESCE(company_id::text, ''), COALESCE(agency_id::text, ''), COALESCE(employee_id::text, ''),
           password_hash
    FROM users
    WHERE lower(email) = lower($1) AND status = $2
  `, email, UserStatusActive).Scan(&out.ID, &out.Email, &out.Role, &out.CompanyID, &out.AgencyID, &out.EmployeeID, &out.PasswordHash)
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpsertUser(ctx context.Context, user AuthUser) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (email, password_hash, role, company_id, agency_id, employee_id)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (email)
    DO UPDATE SET role = EXCLUDED.role, company_id = EXCLUDED.company_id,
                  agency_id = EXCLUDED.agency_id, employee_id = EXCLUDED.employee_id
  `, user.Email, user.PasswordHash, user.Role, nullIfEmpty(user.CompanyID), nullIfEmpty(user.AgencyID), nullIfEmpty(user.EmployeeID))
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
