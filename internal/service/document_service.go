package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"sierravault/internal/core/domain"
	"sierravault/internal/core/ports"
	"sierravault/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultMimeType = "application/octet-stream"

// DocumentServiceImpl implements ports.DocumentService.
type DocumentServiceImpl struct {
	docRepo     ports.DocumentRepository
	vaultRepo   ports.VaultRepository
	proofRepo   ports.ProofRepository
	docStore    ports.DocumentStore
	notarizeSvc ports.NotarizationService
	fingerprint ports.Fingerprinter
	log         zerolog.Logger
}

// NewDocumentService creates a new DocumentServiceImpl.
func NewDocumentService(
	docRepo ports.DocumentRepository,
	vaultRepo ports.VaultRepository,
	proofRepo ports.ProofRepository,
	docStore ports.DocumentStore,
	notarizeSvc ports.NotarizationService,
	fingerprint ports.Fingerprinter,
	log zerolog.Logger,
) *DocumentServiceImpl {
	return &DocumentServiceImpl{
		docRepo:     docRepo,
		vaultRepo:   vaultRepo,
		proofRepo:   proofRepo,
		docStore:    docStore,
		notarizeSvc: notarizeSvc,
		fingerprint: fingerprint,
		log:         log,
	}
}

// Upload stores the document bytes in the object store, records the
// document row, and optionally notarizes inline. A notarization failure
// after a successful upload does not roll the upload back; the caller can
// retry notarization against the stored document.
func (s *DocumentServiceImpl) Upload(ctx context.Context, req ports.UploadRequest) (*ports.UploadResult, error) {
	if len(req.Bytes) == 0 {
		return nil, apperror.ErrEmptyDocument()
	}
	if req.Label == "" {
		return nil, apperror.Validation("label is required")
	}

	vault, err := s.vaultRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load vault: %w", err))
	}
	if vault == nil {
		return nil, apperror.ErrNotFound("vault")
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	doc := &domain.Document{
		ID:         uuid.New(),
		VaultID:    vault.ID,
		Label:      req.Label,
		StorageKey: vault.ID.String() + "/" + uuid.NewString(),
		MimeType:   mimeType,
		UploadedAt: time.Now().UTC(),
	}

	if err := s.docStore.Put(ctx, doc.StorageKey, bytes.NewReader(req.Bytes), int64(len(req.Bytes)), mimeType); err != nil {
		return nil, apperror.ErrStorageError(fmt.Errorf("store object: %w", err))
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create document: %w", err))
	}

	s.log.Info().
		Str("document_id", doc.ID.String()).
		Str("vault_id", vault.ID.String()).
		Int("size", len(req.Bytes)).
		Msg("document uploaded")

	result := &ports.UploadResult{Document: doc}
	if req.Notarize {
		notarization, err := s.notarizeSvc.Notarize(ctx, ports.NotarizeRequest{
			UserID:     req.UserID,
			DocumentID: doc.ID,
			Bytes:      req.Bytes,
		})
		if err != nil {
			return nil, err
		}
		result.Notarization = notarization
	}
	return result, nil
}

// List returns all documents in the caller's vault.
func (s *DocumentServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Document, error) {
	vault, err := s.vaultRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load vault: %w", err))
	}
	if vault == nil {
		return nil, apperror.ErrNotFound("vault")
	}

	docs, err := s.docRepo.ListByVault(ctx, vault.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list documents: %w", err))
	}
	return docs, nil
}

// Get returns one document together with its proof history. Callers only
// see documents in their own vault.
func (s *DocumentServiceImpl) Get(ctx context.Context, userID, documentID uuid.UUID) (*domain.Document, []domain.Proof, error) {
	doc, err := s.authorizedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}

	proofs, err := s.proofRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("list proofs: %w", err))
	}
	return doc, proofs, nil
}

// Verify checks supplied bytes against the document's confirmed proofs.
// The fingerprint of the bytes is always returned so a caller can see what
// was compared; Match is true only when a confirmed proof carries the same
// fingerprint.
func (s *DocumentServiceImpl) Verify(ctx context.Context, userID, documentID uuid.UUID, data []byte) (*ports.VerifyResult, error) {
	if len(data) == 0 {
		return nil, apperror.ErrEmptyDocument()
	}
	if _, err := s.authorizedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}

	fingerprint := s.fingerprint.Fingerprint(data)

	proofs, err := s.proofRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list proofs: %w", err))
	}

	result := &ports.VerifyResult{Fingerprint: fingerprint}
	for i := range proofs {
		if !proofs[i].IsConfirmed() {
			continue
		}
		if proofs[i].Fingerprint == fingerprint {
			result.Match = true
			result.Proof = &proofs[i]
			return result, nil
		}
		if result.Proof == nil {
			// Remember the most recent confirmed proof so a mismatch
			// response still shows what the document was notarized as.
			result.Proof = &proofs[i]
		}
	}
	return result, nil
}

// authorizedDocument loads a document and enforces vault ownership.
// A document outside the caller's vault is indistinguishable from a
// missing one.
func (s *DocumentServiceImpl) authorizedDocument(ctx context.Context, userID, documentID uuid.UUID) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load document: %w", err))
	}
	if doc == nil {
		return nil, apperror.ErrNotFound("document")
	}

	vault, err := s.vaultRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load vault: %w", err))
	}
	if vault == nil || vault.ID != doc.VaultID {
		return nil, apperror.ErrNotFound("document")
	}
	return doc, nil
}
