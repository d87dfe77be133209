package service

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintHexLen is the length of every fingerprint this service
// produces. Callers sizing ledger memos can rely on it.
const FingerprintHexLen = sha256.Size * 2

// SHA256Fingerprinter implements ports.Fingerprinter using SHA-256.
type SHA256Fingerprinter struct{}

// NewSHA256Fingerprinter creates a new SHA-256 content fingerprinter.
func NewSHA256Fingerprinter() *SHA256Fingerprinter {
	return &SHA256Fingerprinter{}
}

// Fingerprint returns the lowercase hex SHA-256 digest of data. It is pure
// and deterministic; empty input hashes to the well-defined empty digest.
func (f *SHA256Fingerprinter) Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
