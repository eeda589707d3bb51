package auth

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "matching password", password: "secret123", hash: hash, want: true},
		{name: "wrong password", password: "secret124", hash: hash, want: false},
		{name: "empty password", password: "", hash: hash, want: false},
		{name: "malformed hash", password: "secret123", hash: "not-a-hash", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	for _, p := range []string{"a", "secret123", "päss wörd", "0123456789012345678901234567890123456789"} {
		h1, err := HashPassword(p)
		if err != nil {
			t.Fatalf("hash %q: %v", p, err)
		}
		h2, _ := HashPassword(p)
		if h1 == h2 {
			t.Fatalf("expected distinct hashes for %q", p)
		}
		if !VerifyPassword(p, h1) || !VerifyPassword(p, h2) {
			t.Fatalf("hash of %q does not verify", p)
		}
	}
}

func TestIssuer_RoundTripAndExpiry(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now := base
	iss, err := NewIssuer(testSecret)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	iss = iss.WithClock(func() time.Time { return now })

	tok, err := iss.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for _, d := range []time.Duration{0, time.Minute, 59 * time.Minute} {
		now = base.Add(d)
		id, ok := iss.Verify(tok)
		if !ok || id.UserID != 42 {
			t.Fatalf("at +%v: got %+v ok=%v", d, id, ok)
		}
	}

	for _, d := range []time.Duration{time.Hour, time.Hour + time.Second, 24 * time.Hour} {
		now = base.Add(d)
		if _, ok := iss.Verify(tok); ok {
			t.Fatalf("at +%v: expected expired token to be rejected", d)
		}
	}
}

func TestIssuer_WholeSecondExpiry(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 700_000_000, time.UTC)
	iss, _ := NewIssuer(testSecret)
	tok, err := iss.WithClock(func() time.Time { return issued }).Issue(3)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &c); err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := issued.Truncate(time.Second)
	if !c.IssuedAt.Time.Equal(want) {
		t.Fatalf("iat = %v, want %v", c.IssuedAt.Time, want)
	}
	if got := c.ExpiresAt.Time.Sub(c.IssuedAt.Time); got != TokenTTL {
		t.Fatalf("exp - iat = %v, want %v", got, TokenTTL)
	}
}

func TestIssuer_RejectsTampering(t *testing.T) {
	iss, _ := NewIssuer(testSecret)
	other, _ := NewIssuer("other-secret")

	tok, err := other.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, ok := iss.Verify(tok); ok {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
	if _, ok := iss.Verify("not.a.jwt"); ok {
		t.Fatalf("expected malformed token to be rejected")
	}
	if _, ok := iss.Verify(""); ok {
		t.Fatalf("expected empty token to be rejected")
	}

	// alg=none must never pass.
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7})
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, ok := iss.Verify(s); ok {
		t.Fatalf("expected unsigned token to be rejected")
	}

	// No exp claim.
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 7})
	s, _ = noExp.SignedString([]byte(testSecret))
	if _, ok := iss.Verify(s); ok {
		t.Fatalf("expected token without expiry to be rejected")
	}
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	if _, err := NewIssuer(""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected no identity on empty context")
	}
	ctx := WithIdentity(context.Background(), Identity{UserID: 9})
	id, ok := FromContext(ctx)
	if !ok || id.UserID != 9 {
		t.Fatalf("identity not stored: %+v ok=%v", id, ok)
	}
}
