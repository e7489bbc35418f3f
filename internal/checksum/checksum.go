// Package checksum computes content and row hashes for change detection.
//
// File checksums key the load ledger: a file is "already loaded" only when
// both its name and content hash match a prior run. Row hashes drive the
// warehouse migration's version detection: a staging row is a new version
// exactly when no active warehouse row carries the same hash.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Calculator is an interface for computing content and row checksums.
// This abstraction allows substituting the hashing strategy in tests.
type Calculator interface {
	// CalculateContent computes a checksum of raw file content.
	CalculateContent(content []byte) string

	// CalculateRow computes a checksum over the row's column values, in
	// column order. Equal rows hash equal regardless of the table they sit in.
	CalculateRow(values []string) string
}

// SHA256 implements checksum calculation using SHA-256.
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple
// goroutines. Using value semantics (pass by value) eliminates heap
// allocations.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
// Returns by value to avoid heap allocation (SHA256 is a zero-size type).
func New() SHA256 {
	return SHA256{}
}

// CalculateContent computes SHA-256 of raw content.
func (c SHA256) CalculateContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateRow computes SHA-256 over the concatenated column values.
// A unit separator delimits values so ("ab","c") and ("a","bc") hash
// differently.
func (c SHA256) CalculateRow(values []string) string {
	joined := strings.Join(values, "\x1f")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}
