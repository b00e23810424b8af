package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("GenerateID() = %q is not a UUID: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("GenerateID() repeated %q", id)
		}
		seen[id] = true
		if !ValidID(id) {
			t.Errorf("generated id %q should be valid", id)
		}
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"doc-1", true},
		{"parcel:42", true},
		{"café", true},
		{"", false},
		{"a b", false},
		{"a/b", false},
		{"tab\there", false},
		{strings.Repeat("x", MaxIDLength), true},
		{strings.Repeat("x", MaxIDLength+1), false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
