package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clinic-booking-api/internal/model"
)

func TestRefreshTokenGeneration(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(raw) != 64 { // 32 bytes hex = 64 chars
		t.Errorf("expected 64 char raw token, got %d", len(raw))
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}
	if HashRefreshToken(raw) != hash {
		t.Error("hash mismatch")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	iss := NewIssuer("test-secret", 0)

	tok, err := iss.MakeToken("test-uid", model.RoleDoctor)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	claims, err := iss.ParseToken(tok)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "test-uid" {
		t.Errorf("uid mismatch: %s", claims.UserID)
	}
	if claims.Role != "doctor" {
		t.Errorf("role mismatch: %s", claims.Role)
	}

	// verify expiry is ~15 min from now
	diff := time.Until(claims.ExpiresAt.Time)
	if diff < 14*time.Minute || diff > 16*time.Minute {
		t.Errorf("expected ~15min expiry, got %v", diff)
	}
}

func TestAlgorithmConfusion(t *testing.T) {
	iss := NewIssuer("test-secret", time.Minute)

	tok, _ := iss.MakeToken("uid", model.RolePatient)
	if _, err := iss.ParseToken(tok); err != nil {
		t.Fatalf("valid token failed: %v", err)
	}

	if _, err := NewIssuer("wrong-secret", time.Minute).ParseToken(tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}

	if _, err := iss.ParseToken("not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "uid", Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := iss.ParseToken(none); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}

func TestUnknownRoleRejected(t *testing.T) {
	iss := NewIssuer("test-secret", time.Minute)
	tok, _ := iss.MakeToken("uid", model.Role("superuser"))
	if _, err := iss.ParseToken(tok); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestExpiredToken(t *testing.T) {
	iss := NewIssuer("test-secret", -time.Minute)
	// negative ttl falls back to the default, so build an expired one by hand
	c := Claims{
		UserID: "uid",
		Role:   "patient",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	if _, err := iss.ParseToken(tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("testpass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "testpass123") {
		t.Error("password should match")
	}
	if CheckPassword(hash, "wrongpassword") {
		t.Error("wrong password matched")
	}
}
