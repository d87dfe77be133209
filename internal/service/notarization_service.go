package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"sierravault/internal/core/domain"
	"sierravault/internal/core/ports"
	"sierravault/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

const (
	proofCacheTTL    = 24 * time.Hour
	documentLockTTL  = 2 * time.Minute
	submitBackoff    = 200 * time.Millisecond
	reconcileTimeout = 10 * time.Second

	// maxMemoBytes is the ledger's memo payload ceiling.
	maxMemoBytes = 566
)

// NotarizationServiceImpl implements ports.NotarizationService. It owns the
// Hashed -> Signed -> Submitted -> Confirmed state machine, the at-most-once
// submission contract per (document, fingerprint), and the bounded retry
// policy for transient ledger failures.
type NotarizationServiceImpl struct {
	fingerprinter ports.Fingerprinter
	keyVault      ports.KeyVault
	ledger        ports.LedgerClient
	walletRepo    ports.WalletRepository
	proofRepo     ports.ProofRepository
	proofCache    ports.ProofCache
	docLock       ports.DocumentLock
	log           zerolog.Logger

	submitRetries  int
	confirmTimeout time.Duration

	// In-process serialization per document. The redis lock covers other
	// instances; this one makes concurrent callers on the same instance
	// wait and observe the idempotent short-circuit instead of failing.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewNotarizationService creates a new NotarizationServiceImpl.
func NewNotarizationService(
	fingerprinter ports.Fingerprinter,
	keyVault ports.KeyVault,
	ledger ports.LedgerClient,
	walletRepo ports.WalletRepository,
	proofRepo ports.ProofRepository,
	proofCache ports.ProofCache,
	docLock ports.DocumentLock,
	submitRetries int,
	confirmTimeout time.Duration,
	log zerolog.Logger,
) *NotarizationServiceImpl {
	if submitRetries < 1 {
		submitRetries = 1
	}
	return &NotarizationServiceImpl{
		fingerprinter:  fingerprinter,
		keyVault:       keyVault,
		ledger:         ledger,
		walletRepo:     walletRepo,
		proofRepo:      proofRepo,
		proofCache:     proofCache,
		docLock:        docLock,
		submitRetries:  submitRetries,
		confirmTimeout: confirmTimeout,
		log:            log,
		locks:          make(map[uuid.UUID]*sync.Mutex),
	}
}

// Notarize runs one notarization attempt for (userID, documentID, bytes).
func (s *NotarizationServiceImpl) Notarize(ctx context.Context, req ports.NotarizeRequest) (*ports.NotarizationResult, error) {
	// State -> Hashed. Hashing runs before the lock: it is pure and cheap.
	fingerprint := s.fingerprinter.Fingerprint(req.Bytes)

	unlock := s.lockDocument(req.DocumentID)
	defer unlock()

	lockKey := "notarize:" + req.DocumentID.String()
	acquired, err := s.docLock.Acquire(ctx, lockKey, documentLockTTL)
	if err != nil {
		// Cross-instance lock is best-effort; the in-process mutex still
		// serializes this instance.
		s.log.Warn().Err(err).Str("document_id", req.DocumentID.String()).
			Msg("document lock store unavailable, relying on local lock")
	} else if !acquired {
		return nil, apperror.ErrNotarizationInProgress()
	} else {
		defer func() {
			if err := s.docLock.Release(context.WithoutCancel(ctx), lockKey); err != nil {
				s.log.Warn().Err(err).Str("key", lockKey).Msg("failed to release document lock")
			}
		}()
	}

	// Idempotent short-circuit: one successful ledger submission per
	// distinct (document, fingerprint). Must run before any submit retry.
	if result, err := s.existingProof(ctx, req.DocumentID, fingerprint); err != nil {
		return nil, err
	} else if result != nil {
		return result, nil
	}

	// Load wallet and sign. State -> Signed. Key custody failures are
	// terminal for this call; retrying a wrong master key cannot succeed.
	wallet, err := s.walletRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrKeyNotFound()
	}

	memo := []byte(fingerprint + "|" + domain.MemoIdempotencyKey(fingerprint, req.DocumentID))
	if len(memo) > maxMemoBytes {
		return nil, apperror.ErrMemoTooLarge()
	}
	signature, err := s.keyVault.Sign(wallet.EncryptedPrivateKey, wallet.Nonce, memo)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("document_id", req.DocumentID.String()).
		Str("fingerprint", fingerprint).
		Str("signer", wallet.PublicKey).
		Msg("memo signed")

	// Submit with bounded exponential backoff on transient failures only.
	// State -> Submitted on success.
	txID, err := s.submitWithRetry(ctx, ports.LedgerSubmission{
		Payload:         memo,
		SignerPublicKey: wallet.PublicKey,
		Signature:       signature,
	})
	if err != nil {
		return nil, err
	}

	return s.confirmAndPersist(ctx, req.DocumentID, fingerprint, txID)
}

// Reconcile re-checks finality of a document's pending proof. It never
// resubmits: the transaction id recorded at submission time is re-queried.
func (s *NotarizationServiceImpl) Reconcile(ctx context.Context, userID, documentID uuid.UUID) (*ports.NotarizationResult, error) {
	unlock := s.lockDocument(documentID)
	defer unlock()

	pending, err := s.proofRepo.GetPendingByDocument(ctx, documentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load pending proof: %w", err))
	}
	if pending == nil {
		return nil, apperror.ErrNoPendingProof()
	}

	if err := s.ledger.Confirm(ctx, pending.TxID, reconcileTimeout); err != nil {
		if errors.Is(err, ports.ErrLedgerRejected) {
			// The network ultimately rejected the broadcast transaction.
			return nil, apperror.ErrLedgerRejected(err)
		}
		s.log.Info().
			Str("document_id", documentID.String()).
			Str("tx_id", pending.TxID).
			Msg("reconciliation attempt: transaction still unconfirmed")
		return &ports.NotarizationResult{
			State: domain.StatePendingReconciliation,
			Proof: pending,
		}, nil
	}

	now := time.Now().UTC()
	if err := s.proofRepo.Confirm(ctx, pending.ID, now); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("promote pending proof: %w", err))
	}
	pending.Status = domain.ProofStatusConfirmed
	pending.VerifiedAt = &now

	s.cacheProof(ctx, pending)

	s.log.Info().
		Str("document_id", documentID.String()).
		Str("tx_id", pending.TxID).
		Str("user_id", userID.String()).
		Msg("pending proof reconciled to confirmed")

	return &ports.NotarizationResult{State: domain.StateConfirmed, Proof: pending}, nil
}

// existingProof returns a terminal result when a proof for this
// (document, fingerprint) already exists: confirmed proofs short-circuit to
// Confirmed, pending ones to PendingReconciliation (resubmitting would risk
// a duplicate ledger write while the first transaction may still finalize).
func (s *NotarizationServiceImpl) existingProof(ctx context.Context, documentID uuid.UUID, fingerprint string) (*ports.NotarizationResult, error) {
	cacheKey := proofCacheKey(documentID, fingerprint)

	cached, err := s.proofCache.Get(ctx, cacheKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("proof cache check failed, falling through to store")
	}
	if cached != nil {
		proof := &domain.Proof{}
		if err := json.Unmarshal(cached, proof); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("unmarshal cached proof: %w", err))
		}
		return &ports.NotarizationResult{State: domain.StateConfirmed, Proof: proof}, nil
	}

	proof, err := s.proofRepo.GetByDocumentAndFingerprint(ctx, documentID, fingerprint)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("proof lookup: %w", err))
	}
	if proof == nil {
		return nil, nil
	}

	if proof.IsConfirmed() {
		s.cacheProof(ctx, proof)
		return &ports.NotarizationResult{State: domain.StateConfirmed, Proof: proof}, nil
	}
	return &ports.NotarizationResult{State: domain.StatePendingReconciliation, Proof: proof}, nil
}

// submitWithRetry broadcasts the submission, retrying only transient
// network failures with exponential backoff up to the configured attempt
// limit. The existing-proof check never re-runs inside this loop.
func (s *NotarizationServiceImpl) submitWithRetry(ctx context.Context, sub ports.LedgerSubmission) (string, error) {
	var txID string
	attempts := 0

	backoff := retry.WithMaxRetries(uint64(s.submitRetries-1), retry.NewExponential(submitBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		id, err := s.ledger.Submit(ctx, sub)
		if err != nil {
			if errors.Is(err, ports.ErrLedgerUnavailable) {
				s.log.Warn().Err(err).Int("attempt", attempts).Msg("ledger unavailable, will retry submission")
				return retry.RetryableError(err)
			}
			return err
		}
		txID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, ports.ErrLedgerRejected) {
			return "", apperror.ErrLedgerRejected(err)
		}
		return "", apperror.ErrLedgerUnavailable(err)
	}

	s.log.Info().Str("tx_id", txID).Int("attempts", attempts).Msg("memo transaction broadcast accepted")
	return txID, nil
}

// confirmAndPersist waits for finality and writes the proof. A confirmation
// timeout persists a provisional proof carrying the transaction id and
// returns a pending result; the id is never dropped.
func (s *NotarizationServiceImpl) confirmAndPersist(ctx context.Context, documentID uuid.UUID, fingerprint, txID string) (*ports.NotarizationResult, error) {
	now := time.Now().UTC()
	proof := &domain.Proof{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Fingerprint: fingerprint,
		TxID:        txID,
		CreatedAt:   now,
	}

	confirmErr := s.ledger.Confirm(ctx, txID, s.confirmTimeout)
	if confirmErr != nil && errors.Is(confirmErr, ports.ErrLedgerRejected) {
		// Broadcast was accepted but the network later rejected the
		// transaction. Nothing durable happened on the ledger.
		return nil, apperror.ErrLedgerRejected(confirmErr)
	}

	// Persistence must survive caller cancellation mid-confirm: the
	// transaction is on the wire either way.
	persistCtx := context.WithoutCancel(ctx)

	if confirmErr != nil {
		// Timeout or transient failure while polling: ambiguous, the
		// transaction may still finalize. State -> PendingReconciliation.
		proof.Status = domain.ProofStatusPending
		if err := s.proofRepo.Create(persistCtx, proof); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("persist pending proof: %w", err))
		}
		s.log.Warn().Err(confirmErr).
			Str("document_id", documentID.String()).
			Str("tx_id", txID).
			Msg("confirmation not observed in time, pending reconciliation")
		return &ports.NotarizationResult{State: domain.StatePendingReconciliation, Proof: proof}, nil
	}

	// State -> Confirmed.
	verifiedAt := time.Now().UTC()
	proof.Status = domain.ProofStatusConfirmed
	proof.VerifiedAt = &verifiedAt
	if err := s.proofRepo.Create(persistCtx, proof); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("persist proof: %w", err))
	}

	s.cacheProof(persistCtx, proof)

	s.log.Info().
		Str("document_id", documentID.String()).
		Str("fingerprint", fingerprint).
		Str("tx_id", txID).
		Msg("document notarized")

	return &ports.NotarizationResult{State: domain.StateConfirmed, Proof: proof}, nil
}

// cacheProof stores a confirmed proof in the fast path (best-effort).
func (s *NotarizationServiceImpl) cacheProof(ctx context.Context, proof *domain.Proof) {
	data, err := json.Marshal(proof)
	if err != nil {
		return
	}
	key := proofCacheKey(proof.DocumentID, proof.Fingerprint)
	if err := s.proofCache.Set(ctx, key, data, proofCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache proof")
	}
}

// lockDocument serializes notarization attempts per document within this
// process and returns the unlock func.
func (s *NotarizationServiceImpl) lockDocument(documentID uuid.UUID) func() {
	s.mu.Lock()
	m, ok := s.locks[documentID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[documentID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func proofCacheKey(documentID uuid.UUID, fingerprint string) string {
	return documentID.String() + ":" + fingerprint
}
