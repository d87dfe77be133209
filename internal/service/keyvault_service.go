package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"sierravault/internal/core/ports"
	"sierravault/pkg/apperror"

	"github.com/mr-tron/base58"
)

// Ed25519KeyVault implements ports.KeyVault with ed25519 signing keys
// sealed under the process master key via the encryption service. The vault
// itself holds no per-user state; callers persist the generated material
// against the owning user.
type Ed25519KeyVault struct {
	encSvc ports.EncryptionService
}

// NewEd25519KeyVault creates a new key vault backed by encSvc.
func NewEd25519KeyVault(encSvc ports.EncryptionService) *Ed25519KeyVault {
	return &Ed25519KeyVault{encSvc: encSvc}
}

// Generate produces a fresh ed25519 keypair. The private key is encrypted
// immediately and its plaintext copy zeroed before returning.
func (v *Ed25519KeyVault) Generate() (*ports.GeneratedKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	defer zero(priv)

	ciphertext, nonce, err := v.encSvc.Encrypt(priv)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("sealing private key: %w", err))
	}

	return &ports.GeneratedKey{
		PublicKey:           base58.Encode(pub),
		EncryptedPrivateKey: ciphertext,
		Nonce:               nonce,
	}, nil
}

// Sign opens the sealed private key, signs payload, and zeroes the decrypted
// key before returning. The signature never contains key material: ed25519
// signatures are a fixed 64 bytes derived from the key, not containing it.
func (v *Ed25519KeyVault) Sign(encryptedPrivateKey, nonce, payload []byte) ([]byte, error) {
	keyBytes, err := v.encSvc.Decrypt(encryptedPrivateKey, nonce)
	if err != nil {
		// Authenticated decryption failed: wrong master key or tampered
		// blob. Retrying cannot succeed.
		return nil, apperror.ErrKeyDecryption(err)
	}
	defer zero(keyBytes)

	if len(keyBytes) != ed25519.PrivateKeySize {
		zero(keyBytes)
		return nil, apperror.ErrKeyDecryption(fmt.Errorf("unexpected key length %d", len(keyBytes)))
	}

	sig := ed25519.Sign(ed25519.PrivateKey(keyBytes), payload)
	return sig, nil
}

// zero overwrites sensitive key material in place.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
