package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"sierravault/internal/core/domain"

	"github.com/google/uuid"
)

// Ledger failure taxonomy. Implementations wrap these sentinels so the
// notarization service can pick the right recovery path.
var (
	// ErrLedgerUnavailable is transient: submission may be retried with
	// bounded backoff, confirmation falls back to reconciliation.
	ErrLedgerUnavailable = errors.New("ledger network unavailable")
	// ErrLedgerRejected is fatal: the payload or signer is invalid and an
	// unchanged retry cannot succeed.
	ErrLedgerRejected = errors.New("transaction rejected by ledger")
	// ErrLedgerConfirmTimeout is ambiguous: the transaction may still
	// finalize later. Resolve by re-querying the transaction id, never by
	// resubmitting.
	ErrLedgerConfirmTimeout = errors.New("ledger confirmation timed out")
)

// Fingerprinter derives the deterministic content address of a byte
// sequence. Pure; empty input is accepted (hash of the empty buffer).
type Fingerprinter interface {
	Fingerprint(data []byte) string
}

// GeneratedKey is the persistable output of KeyVault.Generate. It never
// contains plaintext private key material.
type GeneratedKey struct {
	PublicKey           string // base58 ledger address
	EncryptedPrivateKey []byte
	Nonce               []byte
}

// KeyVault produces and uses managed signing keys without ever exposing a
// decrypted private key to callers. The master key protecting stored keys
// is process-wide configuration.
type KeyVault interface {
	// Generate creates a fresh signing keypair and seals the private key
	// under the master key with authenticated encryption.
	Generate() (*GeneratedKey, error)
	// Sign decrypts the sealed key into a transient buffer, signs payload,
	// and zeroes the buffer before returning. A decryption failure is
	// fatal for the call and must not be retried.
	Sign(encryptedPrivateKey, nonce, payload []byte) ([]byte, error)
}

// LedgerSubmission is a pre-signed memo transaction. Signing happens before
// submission so decrypted key material never spans the network round-trip.
type LedgerSubmission struct {
	Payload         []byte // memo: fingerprint + idempotency key
	SignerPublicKey string
	Signature       []byte
}

// LedgerClient is the boundary to the external notarization ledger.
// Submit returns the network transaction id on broadcast acceptance, which
// is not finality; Confirm polls for finality up to timeout.
type LedgerClient interface {
	Submit(ctx context.Context, sub LedgerSubmission) (string, error)
	Confirm(ctx context.Context, txID string, timeout time.Duration) error
}

// ProofCache is the Redis fast path in front of the proof store.
type ProofCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DocumentLock provides cross-instance mutual exclusion per document so
// concurrent notarize calls never both reach the ledger.
type DocumentLock interface {
	// Acquire returns true if the lock was taken, false if already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// DocumentStore holds raw document bytes in the object store.
type DocumentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// EncryptionService seals and opens byte blobs with AES-256-GCM under the
// process master key. The nonce is returned separately and stored alongside
// the ciphertext.
type EncryptionService interface {
	Encrypt(plaintext []byte) (ciphertext, nonce []byte, err error)
	Decrypt(ciphertext, nonce []byte) ([]byte, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// --- Service Ports (Business Logic) ---

// NotarizeRequest holds validated input for a notarization attempt.
type NotarizeRequest struct {
	UserID     uuid.UUID
	DocumentID uuid.UUID
	Bytes      []byte
}

// NotarizationResult is the terminal outcome of an attempt. State is
// Confirmed or PendingReconciliation; failures surface as errors instead.
// Proof is always set: pending results carry the provisional proof so the
// transaction id is never dropped.
type NotarizationResult struct {
	State domain.NotarizationState `json:"state"`
	Proof *domain.Proof            `json:"proof"`
}

// NotarizationService orchestrates fingerprinting, signing, ledger
// submission and proof persistence with at-most-once semantics per
// (document, fingerprint).
type NotarizationService interface {
	Notarize(ctx context.Context, req NotarizeRequest) (*NotarizationResult, error)
	// Reconcile re-checks finality of a document's pending proof.
	Reconcile(ctx context.Context, userID, documentID uuid.UUID) (*NotarizationResult, error)
}

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Email      string
	Password   string
	Telephone  string
	NationalID *string
}

// RegisterResponse holds the registration result.
type RegisterResponse struct {
	UserID          uuid.UUID
	VaultID         uuid.UUID
	WalletPublicKey string
	Token           string
	TokenExpiry     time.Time
}

// UploadRequest holds input for a document upload.
type UploadRequest struct {
	UserID   uuid.UUID
	Label    string
	MimeType string
	Bytes    []byte
	Notarize bool // notarize immediately after upload
}

// UploadResult pairs the stored document with the optional inline
// notarization outcome.
type UploadResult struct {
	Document     *domain.Document    `json:"document"`
	Notarization *NotarizationResult `json:"notarization,omitempty"`
}

// VerifyResult reports whether supplied bytes still match a stored proof.
type VerifyResult struct {
	Fingerprint string        `json:"fingerprint"`
	Match       bool          `json:"match"`
	Proof       *domain.Proof `json:"proof,omitempty"`
}

// DocumentService defines vault document operations.
type DocumentService interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Document, error)
	Get(ctx context.Context, userID, documentID uuid.UUID) (*domain.Document, []domain.Proof, error)
	Verify(ctx context.Context, userID, documentID uuid.UUID, data []byte) (*VerifyResult, error)
}
