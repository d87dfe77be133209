package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's managed signing keypair. The private key exists only
// as an AES-256-GCM ciphertext sealed under the process master key; it is
// decrypted into a transient buffer for the duration of a single signing
// operation and never serialized to any external response.
type Wallet struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	PublicKey           string    `json:"public_key"` // base58 ledger address, stable identifier
	EncryptedPrivateKey []byte    `json:"-"`
	Nonce               []byte    `json:"-"` // AES-GCM nonce used to seal the private key
	CreatedAt           time.Time `json:"created_at"`
}
