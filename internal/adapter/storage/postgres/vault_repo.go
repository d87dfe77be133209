package postgres

import (
	"context"
	"errors"
	"fmt"

	"sierravault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VaultRepo implements ports.VaultRepository.
type VaultRepo struct {
	pool Pool
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(pool Pool) *VaultRepo {
	return &VaultRepo{pool: pool}
}

// Create inserts a new vault within the registration transaction.
func (r *VaultRepo) Create(ctx context.Context, tx pgx.Tx, v *domain.Vault) error {
	query := `INSERT INTO vaults (id, user_id, created_at) VALUES ($1, $2, $3)`

	if _, err := tx.Exec(ctx, query, v.ID, v.UserID, v.CreatedAt); err != nil {
		return fmt.Errorf("insert vault: %w", err)
	}
	return nil
}

// GetByUserID fetches the vault owned by a user.
func (r *VaultRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Vault, error) {
	query := `SELECT id, user_id, created_at FROM vaults WHERE user_id = $1`

	v := &domain.Vault{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&v.ID, &v.UserID, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vault by user id: %w", err)
	}
	return v, nil
}
