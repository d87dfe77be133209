package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// ProofStatus is the persistence state of a notarization proof.
type ProofStatus string

const (
	// ProofStatusPending means the ledger transaction was broadcast but
	// finality was not observed before the confirmation deadline. The
	// transaction id is retained for reconciliation.
	ProofStatusPending ProofStatus = "PENDING"
	// ProofStatusConfirmed means the ledger reported the transaction final.
	ProofStatusConfirmed ProofStatus = "CONFIRMED"
)

// Proof binds {document, fingerprint, ledger transaction}. Proofs are
// append-only: re-notarizing changed bytes appends a new proof, it never
// rewrites an existing one. VerifiedAt is nil until the proof is confirmed.
type Proof struct {
	ID          uuid.UUID   `json:"id"`
	DocumentID  uuid.UUID   `json:"document_id"`
	Fingerprint string      `json:"fingerprint"` // hex SHA-256 of the document bytes
	TxID        string      `json:"tx_id"`
	Status      ProofStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	VerifiedAt  *time.Time  `json:"verified_at,omitempty"`
}

// IsConfirmed returns true once the ledger reported finality.
func (p *Proof) IsConfirmed() bool {
	return p.Status == ProofStatusConfirmed && p.VerifiedAt != nil
}

// NotarizationState tracks a single notarization attempt through the
// pipeline. Confirmed, Failed and PendingReconciliation are terminal.
type NotarizationState string

const (
	StateHashed                NotarizationState = "HASHED"
	StateSigned                NotarizationState = "SIGNED"
	StateSubmitted             NotarizationState = "SUBMITTED"
	StateConfirmed             NotarizationState = "CONFIRMED"
	StateFailed                NotarizationState = "FAILED"
	StatePendingReconciliation NotarizationState = "PENDING_RECONCILIATION"
)

// IsTerminal returns true if no further transition is possible for this
// attempt (reconciliation of a pending proof is a new attempt).
func (s NotarizationState) IsTerminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StatePendingReconciliation
}

// MemoIdempotencyKey derives the deduplication key embedded in the ledger
// memo alongside the fingerprint, so an indexer can drop a resubmission
// whose first acknowledgment was lost.
func MemoIdempotencyKey(fingerprint string, documentID uuid.UUID) string {
	sum := sha256.Sum256([]byte(fingerprint + ":" + documentID.String()))
	return hex.EncodeToString(sum[:16])
}
