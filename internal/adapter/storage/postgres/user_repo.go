package postgres

import (
	"context"
	"errors"
	"fmt"

	"sierravault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a new user within the registration transaction.
func (r *UserRepo) Create(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	query := `INSERT INTO users (id, email, telephone, national_id, password_hash, vault_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		u.ID, u.Email, u.Telephone, u.NationalID, u.PasswordHash, u.VaultID, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, email, telephone, national_id, password_hash, vault_id, created_at
		FROM users WHERE id = $1`

	u := &domain.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Telephone, &u.NationalID, &u.PasswordHash, &u.VaultID, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, telephone, national_id, password_hash, vault_id, created_at
		FROM users WHERE email = $1`

	u := &domain.User{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Telephone, &u.NationalID, &u.PasswordHash, &u.VaultID, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ExistsByContact reports whether any user already claims one of the given
// contact identifiers. NULL national ids never collide.
func (r *UserRepo) ExistsByContact(ctx context.Context, email, telephone string, nationalID *string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM users
		WHERE email = $1 OR telephone = $2 OR ($3::text IS NOT NULL AND national_id = $3)
	)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email, telephone, nationalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user contact: %w", err)
	}
	return exists, nil
}
