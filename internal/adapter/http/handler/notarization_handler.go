package handler

import (
	"io"

	"sierravault/internal/adapter/http/dto"
	"sierravault/internal/adapter/http/middleware"
	"sierravault/internal/core/domain"
	"sierravault/internal/core/ports"
	"sierravault/pkg/apperror"
	"sierravault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotarizationHandler handles notarization endpoints. It notarizes the
// stored bytes of a vault document, never caller-supplied content: what is
// anchored is always exactly what the vault holds.
type NotarizationHandler struct {
	docSvc      ports.DocumentService
	docStore    ports.DocumentStore
	notarizeSvc ports.NotarizationService
}

// NewNotarizationHandler creates a new NotarizationHandler.
func NewNotarizationHandler(docSvc ports.DocumentService, docStore ports.DocumentStore, notarizeSvc ports.NotarizationService) *NotarizationHandler {
	return &NotarizationHandler{docSvc: docSvc, docStore: docStore, notarizeSvc: notarizeSvc}
}

// Notarize handles POST /api/v1/documents/:id/notarize.
func (h *NotarizationHandler) Notarize(c *gin.Context) {
	userID, docID, ok := h.authorize(c)
	if !ok {
		return
	}

	// Ownership check happens here; the document row carries the storage key.
	doc, _, err := h.docSvc.Get(c.Request.Context(), userID, docID)
	if err != nil {
		response.Error(c, err)
		return
	}

	obj, err := h.docStore.Get(c.Request.Context(), doc.StorageKey)
	if err != nil {
		response.Error(c, apperror.ErrStorageError(err))
		return
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		response.Error(c, apperror.ErrStorageError(err))
		return
	}

	result, err := h.notarizeSvc.Notarize(c.Request.Context(), ports.NotarizeRequest{
		UserID:     userID,
		DocumentID: docID,
		Bytes:      data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, result)
}

// Reconcile handles POST /api/v1/documents/:id/reconcile, re-checking
// finality of a pending proof.
func (h *NotarizationHandler) Reconcile(c *gin.Context) {
	userID, docID, ok := h.authorize(c)
	if !ok {
		return
	}

	// Ownership check; the reconciliation itself only needs the id.
	if _, _, err := h.docSvc.Get(c.Request.Context(), userID, docID); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.notarizeSvc.Reconcile(c.Request.Context(), userID, docID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, result)
}

func (h *NotarizationHandler) authorize(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, uuid.Nil, false
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid document id"))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, docID, true
}

// respond maps the notarization state to the right status code: a pending
// reconciliation is 202, a confirmed proof 200.
func (h *NotarizationHandler) respond(c *gin.Context, result *ports.NotarizationResult) {
	resp := dto.FromNotarization(result)
	if result.State == domain.StatePendingReconciliation {
		response.Accepted(c, resp)
		return
	}
	response.OK(c, resp)
}
