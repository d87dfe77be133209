package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"sierravault/internal/core/domain"
	"sierravault/internal/core/ports"
	"sierravault/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const minPasswordLen = 8

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo   ports.UserRepository
	vaultRepo  ports.VaultRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	hashSvc    ports.HashService
	keyVault   ports.KeyVault
	tokenSvc   ports.TokenService
	log        zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	vaultRepo ports.VaultRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	hashSvc ports.HashService,
	keyVault ports.KeyVault,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:   userRepo,
		vaultRepo:  vaultRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		hashSvc:    hashSvc,
		keyVault:   keyVault,
		tokenSvc:   tokenSvc,
		log:        log,
	}
}

// Register creates the user, their vault and their signing wallet in one
// database transaction. A registered user always has exactly one vault and
// one wallet; a partial trio never becomes visible.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByContact(ctx, req.Email, req.Telephone, req.NationalID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("uniqueness check: %w", err))
	}
	if exists {
		return nil, apperror.ErrUserExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	// Key generation happens before the transaction; it touches no shared
	// state and keeps the transaction short.
	key, err := s.keyVault.Generate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Telephone:    req.Telephone,
		NationalID:   req.NationalID,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	vault := &domain.Vault{ID: uuid.New(), UserID: user.ID, CreatedAt: now}
	user.VaultID = vault.ID
	wallet := &domain.Wallet{
		ID:                  uuid.New(),
		UserID:              user.ID,
		PublicKey:           key.PublicKey,
		EncryptedPrivateKey: key.EncryptedPrivateKey,
		Nonce:               key.Nonce,
		CreatedAt:           now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.userRepo.Create(ctx, dbTx, user); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create user: %w", err))
	}
	if err := s.vaultRepo.Create(ctx, dbTx, vault); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create vault: %w", err))
	}
	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue token: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("vault_id", vault.ID.String()).
		Str("wallet_pubkey", wallet.PublicKey).
		Msg("user registered")

	return &ports.RegisterResponse{
		UserID:          user.ID,
		VaultID:         vault.ID,
		WalletPublicKey: wallet.PublicKey,
		Token:           token,
		TokenExpiry:     expiry,
	}, nil
}

// Login verifies credentials and issues a JWT. Unknown email and wrong
// password return the same error.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperror.ErrDatabaseError(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("issue token: %w", err))
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return token, expiry, nil
}

func validateRegistration(req ports.RegisterRequest) error {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperror.Validation("invalid email address")
	}
	if len(req.Password) < minPasswordLen {
		return apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if req.Telephone == "" {
		return apperror.Validation("telephone is required")
	}
	return nil
}
