package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file belonging to exactly one vault. The bytes
// live in the object store; StorageKey is the locator. A document is mutated
// only by attaching proofs.
type Document struct {
	ID         uuid.UUID `json:"id"`
	VaultID    uuid.UUID `json:"vault_id"`
	Label      string    `json:"label"`
	StorageKey string    `json:"storage_key"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
