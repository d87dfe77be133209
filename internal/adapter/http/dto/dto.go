package dto

import (
	"time"

	"sierravault/internal/core/domain"
	"sierravault/internal/core/ports"
)

// --- Auth ---

// RegisterRequest is the payload for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=8"`
	Telephone  string  `json:"telephone" binding:"required"`
	NationalID *string `json:"national_id,omitempty"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	UserID          string `json:"user_id"`
	VaultID         string `json:"vault_id"`
	WalletPublicKey string `json:"wallet_public_key"`
	Token           string `json:"token"`
	Expiry          int64  `json:"expiry"`
}

// LoginRequest is the payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
}

// --- Wallet ---

// WalletResponse exposes the public half of a signing wallet. Key material
// never leaves the server.
type WalletResponse struct {
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Documents ---

// DocumentResponse describes one vault document.
type DocumentResponse struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ProofResponse describes one notarization proof.
type ProofResponse struct {
	ID          string     `json:"id"`
	Fingerprint string     `json:"fingerprint"`
	TxID        string     `json:"tx_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}

// UploadResponse pairs the stored document with the optional inline
// notarization outcome.
type UploadResponse struct {
	Document     DocumentResponse       `json:"document"`
	Notarization *NotarizationResponse  `json:"notarization,omitempty"`
}

// DocumentDetailResponse is a document together with its proof history.
type DocumentDetailResponse struct {
	Document DocumentResponse `json:"document"`
	Proofs   []ProofResponse  `json:"proofs"`
}

// NotarizationResponse is the outcome of a notarization or reconciliation.
type NotarizationResponse struct {
	State string         `json:"state"`
	Proof *ProofResponse `json:"proof,omitempty"`
}

// VerifyResponse reports whether supplied bytes match a confirmed proof.
type VerifyResponse struct {
	Fingerprint string         `json:"fingerprint"`
	Match       bool           `json:"match"`
	Proof       *ProofResponse `json:"proof,omitempty"`
}

// --- Mapping helpers ---

// FromDocument maps a domain document to its response shape.
func FromDocument(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:         d.ID.String(),
		Label:      d.Label,
		MimeType:   d.MimeType,
		UploadedAt: d.UploadedAt,
	}
}

// FromProof maps a domain proof to its response shape.
func FromProof(p *domain.Proof) *ProofResponse {
	if p == nil {
		return nil
	}
	return &ProofResponse{
		ID:          p.ID.String(),
		Fingerprint: p.Fingerprint,
		TxID:        p.TxID,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		VerifiedAt:  p.VerifiedAt,
	}
}

// FromNotarization maps a notarization result to its response shape.
func FromNotarization(r *ports.NotarizationResult) *NotarizationResponse {
	if r == nil {
		return nil
	}
	return &NotarizationResponse{
		State: string(r.State),
		Proof: FromProof(r.Proof),
	}
}
