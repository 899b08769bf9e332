package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const DefaultTokenTTL = 12 * time.Hour

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	store  UserStore
	secret string
	ttl    time.Duration
}

func NewService(store UserStore, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{store: store, secret: secret, ttl: ttl}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, user.Claims(), s.ttl)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "user_id", user.ID, "err", err)
	}
	return LoginResult{Token: token, ExpiresAt: time.Now().Add(s.ttl), UserID: user.ID, Role: user.Role}, nil
}
