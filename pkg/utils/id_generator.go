// Package utils provides shared utility functions used across the application.
//
// Go Learning Note (the "pkg/" directory convention):
// Code under pkg/ is intended to be importable by external projects (unlike
// internal/ which is compiler-enforced private). This is a community convention,
// not a Go language feature.
package utils

import (
	"strings"

	"github.com/google/uuid"
)

// MaxIDLength bounds document ids so they fit the store's primary key.
const MaxIDLength = 128

// GenerateID creates a new UUID v4 string for documents posted without an id.
//
// Go Learning Note (github.com/google/uuid):
// uuid.New() creates a random v4 UUID like
// "550e8400-e29b-41d4-a716-446655440000". They can be generated without
// coordination between processes, which suits ids minted by any replica.
func GenerateID() string {
	return uuid.New().String()
}

// ValidID reports whether id can name a document: non-empty, at most
// MaxIDLength bytes and free of whitespace, slashes and control characters.
func ValidID(id string) bool {
	if id == "" || len(id) > MaxIDLength {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return r <= ' ' || r == 0x7f || r == '/' || r == '\\'
	})
}
