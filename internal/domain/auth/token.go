package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type Claims struct {
	UserID     string `json:"uid"`
	Role       string `json:"role"`
	CompanyID  string `json:"cid,omitempty"`
	AgencyID   string `json:"aid,omitempty"`
	EmployeeID string `json:"eid,omitempty"`
	jwt.RegisteredClaims
}

type UserContext struct {
	UserID     string
	Role       string
	CompanyID  string
	AgencyID   string
	EmployeeID string
}

func (c Claims) User() UserContext {
	return UserContext{
		UserID:     c.UserID,
		Role:       c.Role,
		CompanyID:  c.CompanyID,
		AgencyID:   c.AgencyID,
		EmployeeID: c.EmployeeID,
	}
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !ValidRole(claims.Role) {
		return nil, errors.New("unknown role")
	}
	return claims, nil
}
