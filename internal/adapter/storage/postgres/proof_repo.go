package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sierravault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProofRepo implements ports.ProofRepository. Rows are append-only; the
// single allowed mutation is Confirm, which promotes a pending proof.
type ProofRepo struct {
	pool Pool
}

// NewProofRepo creates a new ProofRepo.
func NewProofRepo(pool Pool) *ProofRepo {
	return &ProofRepo{pool: pool}
}

const proofColumns = `id, document_id, fingerprint, tx_id, status, created_at, verified_at`

// Create inserts a new proof row.
func (r *ProofRepo) Create(ctx context.Context, p *domain.Proof) error {
	query := `INSERT INTO proofs (id, document_id, fingerprint, tx_id, status, created_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.DocumentID, p.Fingerprint, p.TxID, p.Status, p.CreatedAt, p.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert proof: %w", err)
	}
	return nil
}

// GetByDocumentAndFingerprint fetches the proof for one content version of
// a document.
func (r *ProofRepo) GetByDocumentAndFingerprint(ctx context.Context, documentID uuid.UUID, fingerprint string) (*domain.Proof, error) {
	query := `SELECT ` + proofColumns + ` FROM proofs
		WHERE document_id = $1 AND fingerprint = $2`

	return r.scanOne(r.pool.QueryRow(ctx, query, documentID, fingerprint), "get proof by document and fingerprint")
}

// GetPendingByDocument fetches the document's proof awaiting reconciliation,
// if any. The partial unique index guarantees at most one.
func (r *ProofRepo) GetPendingByDocument(ctx context.Context, documentID uuid.UUID) (*domain.Proof, error) {
	query := `SELECT ` + proofColumns + ` FROM proofs
		WHERE document_id = $1 AND status = 'PENDING'`

	return r.scanOne(r.pool.QueryRow(ctx, query, documentID), "get pending proof")
}

// ListByDocument fetches a document's full proof history, newest first.
func (r *ProofRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.Proof, error) {
	query := `SELECT ` + proofColumns + ` FROM proofs
		WHERE document_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list proofs by document: %w", err)
	}
	return r.scanMany(rows)
}

// ListByFingerprint fetches every proof carrying a fingerprint, across
// documents. Used to answer "has this exact content ever been notarized".
func (r *ProofRepo) ListByFingerprint(ctx context.Context, fingerprint string) ([]domain.Proof, error) {
	query := `SELECT ` + proofColumns + ` FROM proofs
		WHERE fingerprint = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("list proofs by fingerprint: %w", err)
	}
	return r.scanMany(rows)
}

// Confirm promotes a pending proof to CONFIRMED, recording the finality
// timestamp. Confirming an already-confirmed proof is an error.
func (r *ProofRepo) Confirm(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error {
	query := `UPDATE proofs SET status = 'CONFIRMED', verified_at = $1
		WHERE id = $2 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, verifiedAt, id)
	if err != nil {
		return fmt.Errorf("confirm proof: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending proof not found: %s", id)
	}
	return nil
}

func (r *ProofRepo) scanOne(row pgx.Row, op string) (*domain.Proof, error) {
	p := &domain.Proof{}
	err := row.Scan(&p.ID, &p.DocumentID, &p.Fingerprint, &p.TxID, &p.Status, &p.CreatedAt, &p.VerifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r *ProofRepo) scanMany(rows pgx.Rows) ([]domain.Proof, error) {
	defer rows.Close()

	var proofs []domain.Proof
	for rows.Next() {
		var p domain.Proof
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Fingerprint, &p.TxID, &p.Status, &p.CreatedAt, &p.VerifiedAt); err != nil {
			return nil, fmt.Errorf("scan proof: %w", err)
		}
		proofs = append(proofs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proofs: %w", err)
	}
	return proofs, nil
}
