package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	tok, exp, err := m.GenerateAccessToken(Identity{UserID: "u-1", Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry must be in the future, got %v", exp)
	}

	claims, err := m.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != "u-1" || claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	raw, jti, _, err := m.GenerateRefreshToken("u-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.VerifyAccessToken(raw); err == nil {
		t.Fatalf("refresh token must not verify as access token")
	}

	claims, err := m.VerifyRefreshToken(raw)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if claims.JTI != jti {
		t.Fatalf("jti mismatch: got %s want %s", claims.JTI, jti)
	}
}

func TestExpiredAndForeignTokensRejected(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, _, err := m.GenerateAccessToken(Identity{UserID: "u-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	m.now = time.Now
	if _, err := m.VerifyAccessToken(tok); err == nil {
		t.Fatalf("expired token must be rejected")
	}

	other := NewManager("other-secret", time.Hour, time.Hour)
	fresh, _, _ := other.GenerateAccessToken(Identity{UserID: "u-1"})
	if _, err := m.VerifyAccessToken(fresh); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
}

func TestHashRefreshTokenDeterministic(t *testing.T) {
	m := NewManager("test-secret", time.Hour, time.Hour)

	if m.HashRefreshToken("abc") != m.HashRefreshToken("abc") {
		t.Fatalf("hash must be deterministic")
	}
	if m.HashRefreshToken("abc") == m.HashRefreshToken("abd") {
		t.Fatalf("different inputs must hash differently")
	}
}
