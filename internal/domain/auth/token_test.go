package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", Claims{
		UserID:     "user-1",
		Role:       RoleFinance,
		CompanyID:  "company-1",
		EmployeeID: "",
	}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != RoleFinance || claims.CompanyID != "company-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if user := claims.User(); user.Role != RoleFinance {
		t.Fatalf("expected finance user context, got %+v", user)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "user-1", Role: RoleOperator}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "user-1", Role: RoleOperator}, -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "user-1", Role: "hr"}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
}
