package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	m := NewManager("test-secret-key", time.Hour)

	raw, err := m.GenerateAccessToken(42, user.RoleEngineer)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}

	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("got user id %d (%v), want 42", id, err)
	}
	if claims.Subject != "42" {
		t.Fatalf("subject = %q, want 42", claims.Subject)
	}
	if claims.Role != user.RoleEngineer {
		t.Fatalf("role = %q, want engineer", claims.Role)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret-key", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	raw, err := m.GenerateAccessToken(1, user.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	m.now = time.Now

	if _, err := m.VerifyAccessToken(raw); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	raw, err := issuer.GenerateAccessToken(1, user.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := verifier.VerifyAccessToken(raw); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestVerifyRejectsTamperedRole(t *testing.T) {
	m := NewManager("test-secret-key", time.Hour)

	raw, err := m.GenerateAccessToken(7, user.RoleEngineer)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	parts := strings.Split(raw, ".")
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:      user.RoleAdmin,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("attacker"))
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}

	// splice the forged payload onto the genuine signature
	forgedParts := strings.Split(forged, ".")
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := m.VerifyAccessToken(spliced); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	m := NewManager("test-secret-key", time.Hour)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:      user.RoleAdmin,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := m.VerifyAccessToken(raw); err == nil {
		t.Fatalf("expected alg=none to be rejected")
	}
}

func TestVerifyRejectsNonNumericSubject(t *testing.T) {
	m := NewManager("test-secret-key", time.Hour)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:      user.RoleEngineer,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.VerifyAccessToken(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
