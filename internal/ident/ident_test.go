package ident

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewAccountID()
		if !strings.HasPrefix(id, "acc-") {
			t.Fatalf("unexpected prefix: %s", id)
		}
		if !IsAccountID(id) {
			t.Fatalf("generated id fails validation: %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestIsAccountID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"acc-x7Kp2mQr9Z", true},
		{"acc-short", false},
		{"usr-x7Kp2mQr9Z", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAccountID(tt.id); got != tt.want {
			t.Errorf("IsAccountID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestIsNationalID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"12345678901", true},
		{"1234567890", false},
		{"123456789012", false},
		{"1234567890a", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsNationalID(tt.id); got != tt.want {
			t.Errorf("IsNationalID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
