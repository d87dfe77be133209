package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_KnownVector(t *testing.T) {
	f := NewSHA256Fingerprinter()
	// sha256("hello-world")
	assert.Equal(t,
		"afa27b44d43b02a9fea41d13cedc2e4016cfcf87c5dbf990e593669aa8ce286d",
		f.Fingerprint([]byte("hello-world")))
}

func TestFingerprint_EmptyInput(t *testing.T) {
	f := NewSHA256Fingerprinter()
	// Hash of the empty buffer is well-defined; empty input is accepted here.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		f.Fingerprint(nil))
	assert.Equal(t, f.Fingerprint(nil), f.Fingerprint([]byte{}))
}

func TestFingerprint_Deterministic(t *testing.T) {
	f := NewSHA256Fingerprinter()
	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	first := f.Fingerprint(data)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, f.Fingerprint(data))
	}
	assert.Len(t, first, FingerprintHexLen)
}

func TestFingerprint_SingleBitFlipChangesDigest(t *testing.T) {
	f := NewSHA256Fingerprinter()
	data := []byte("identity-document-v1 contents")
	original := f.Fingerprint(data)

	for i := range data {
		mutated := append([]byte(nil), data...)
		mutated[i] ^= 0x01
		assert.NotEqual(t, original, f.Fingerprint(mutated),
			"flipping byte %d must change the fingerprint", i)
	}
}
