package model

import (
	"errors"
	"testing"
	"time"
)

func TestSigningTokenValidate(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Hour)

	tests := []struct {
		name    string
		token   SigningToken
		wantErr error
	}{
		{"Fresh token", SigningToken{ExpiresAt: now.Add(72 * time.Hour)}, nil},
		{"Used token", SigningToken{ExpiresAt: now.Add(time.Hour), Used: true, UsedAt: &used}, ErrSigningTokenUsed},
		{"Expired token", SigningToken{ExpiresAt: now.Add(-time.Second)}, ErrSigningTokenExpired},
		{"Expired exactly now", SigningToken{ExpiresAt: now}, ErrSigningTokenExpired},
		{"Revoked token", SigningToken{ExpiresAt: now.Add(time.Hour), Revoked: true}, ErrSigningTokenRevoked},
		// Revoked wins over used, used wins over expired: the user is told the
		// most actionable reason first.
		{"Revoked and used", SigningToken{ExpiresAt: now.Add(time.Hour), Revoked: true, Used: true}, ErrSigningTokenRevoked},
		{"Used and expired", SigningToken{ExpiresAt: now.Add(-time.Hour), Used: true}, ErrSigningTokenUsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.token.Validate(now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// A token created 73 hours ago with the default 72 hour TTL must be expired
// no matter how small the overshoot.
func TestSigningTokenExpiryBoundary(t *testing.T) {
	issuedAt := time.Now().Add(-73 * time.Hour)
	token := SigningToken{ExpiresAt: issuedAt.Add(72 * time.Hour)}

	if err := token.Validate(time.Now()); !errors.Is(err, ErrSigningTokenExpired) {
		t.Errorf("Validate() = %v, want %v", err, ErrSigningTokenExpired)
	}

	if !token.IsExpired(token.ExpiresAt.Add(time.Nanosecond)) {
		t.Error("IsExpired(expiresAt+1ns) = false, want true")
	}
	if token.IsExpired(token.ExpiresAt.Add(-time.Nanosecond)) {
		t.Error("IsExpired(expiresAt-1ns) = true, want false")
	}
}
