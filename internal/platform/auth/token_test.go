package auth

import (
	"testing"
	"time"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, "hms", time.Hour)
	fixed := time.Now()
	issuer.now = func() time.Time { return fixed }

	token, exp, err := issuer.Issue("user-1", "Nurse Joy", "nurse@hospital.com", RoleNurse)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if !exp.Equal(fixed.Add(time.Hour)) {
		t.Errorf("expected expiry %s, got %s", fixed.Add(time.Hour), exp)
	}

	claims, err := ParseToken(token, JWTConfig{SigningKey: testSigningKey, Issuer: "hms"})
	if err != nil {
		t.Fatalf("ParseToken() error: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "nurse@hospital.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != RoleNurse {
		t.Errorf("expected [nurse], got %v", claims.Roles)
	}
}

func TestTokenIssuer_WrongIssuer(t *testing.T) {
	token, _, err := NewTokenIssuer(testSigningKey, "hms", time.Hour).Issue("u", "n", "e", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := ParseToken(token, JWTConfig{SigningKey: testSigningKey, Issuer: "other"}); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestTokenIssuer_NoKey(t *testing.T) {
	if _, _, err := NewTokenIssuer(nil, "hms", 0).Issue("u", "n", "e", RoleAdmin); err == nil {
		t.Fatal("expected error without signing key")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "admin123" {
		t.Fatal("expected hashed password")
	}
	if !CheckPassword(hash, "admin123") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}
