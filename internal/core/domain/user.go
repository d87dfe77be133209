package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered vault owner. Identity fields are immutable after
// registration; the wallet and vault are created exactly once alongside it.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Telephone    string    `json:"telephone"`
	NationalID   *string   `json:"national_id,omitempty"` // optional registry linkage
	PasswordHash string    `json:"-"`
	VaultID      uuid.UUID `json:"vault_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Vault is the per-user container of documents, created at registration.
type Vault struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
