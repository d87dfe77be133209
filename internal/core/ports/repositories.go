package ports

import (
	"context"
	"time"

	"sierravault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for users.
// Methods accepting pgx.Tx run inside the registration transaction so that
// user, vault and wallet are created atomically.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByContact(ctx context.Context, email, telephone string, nationalID *string) (bool, error)
}

// VaultRepository defines persistence operations for vaults.
type VaultRepository interface {
	Create(ctx context.Context, tx pgx.Tx, vault *domain.Vault) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Vault, error)
}

// WalletRepository defines persistence operations for wallets.
// A wallet row is written once at registration and never updated.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
}

// DocumentRepository defines persistence operations for documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListByVault(ctx context.Context, vaultID uuid.UUID) ([]domain.Document, error)
}

// ProofRepository is the persistent proof store. Proofs are append-only;
// Confirm is the single permitted update, promoting a pending proof once
// the ledger reports finality.
type ProofRepository interface {
	Create(ctx context.Context, proof *domain.Proof) error
	GetByDocumentAndFingerprint(ctx context.Context, documentID uuid.UUID, fingerprint string) (*domain.Proof, error)
	GetPendingByDocument(ctx context.Context, documentID uuid.UUID) (*domain.Proof, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.Proof, error)
	ListByFingerprint(ctx context.Context, fingerprint string) ([]domain.Proof, error)
	Confirm(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
