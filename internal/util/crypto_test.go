package util

import (
	"testing"
)

func TestGenerateNChar(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"Generate 5 characters", 5, false},
		{"Generate 10 characters", 10, false},
		{"Generate 32 characters", 32, false},
		{"Generate 0 characters", 0, false},
		{"Generate negative characters", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateNChar(tt.n)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateNChar() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && len(got) != tt.n {
				t.Errorf("GenerateNChar() got = %v, want length %v", got, tt.n)
			}
		})
	}
}

// Two signing tokens generated back to back must never collide.
func TestGenerateNCharUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		got, err := GenerateNChar(32)
		if err != nil {
			t.Fatalf("GenerateNChar() error = %v", err)
		}
		if seen[got] {
			t.Fatalf("GenerateNChar() produced duplicate token: %s", got)
		}
		seen[got] = true
	}
}
