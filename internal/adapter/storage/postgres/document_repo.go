package postgres

import (
	"context"
	"errors"
	"fmt"

	"sierravault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentRepo implements ports.DocumentRepository.
type DocumentRepo struct {
	pool Pool
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(pool Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

// Create inserts a new document row.
func (r *DocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	query := `INSERT INTO documents (id, vault_id, label, storage_key, mime_type, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.VaultID, d.Label, d.StorageKey, d.MimeType, d.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID fetches a document by UUID.
func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `SELECT id, vault_id, label, storage_key, mime_type, uploaded_at
		FROM documents WHERE id = $1`

	d := &domain.Document{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.VaultID, &d.Label, &d.StorageKey, &d.MimeType, &d.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by id: %w", err)
	}
	return d, nil
}

// ListByVault fetches all documents in a vault, newest first.
func (r *DocumentRepo) ListByVault(ctx context.Context, vaultID uuid.UUID) ([]domain.Document, error) {
	query := `SELECT id, vault_id, label, storage_key, mime_type, uploaded_at
		FROM documents WHERE vault_id = $1 ORDER BY uploaded_at DESC`

	rows, err := r.pool.Query(ctx, query, vaultID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.VaultID, &d.Label, &d.StorageKey, &d.MimeType, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
