package handler

import (
	"io"
	"mime/multipart"

	"sierravault/internal/adapter/http/dto"
	"sierravault/internal/adapter/http/middleware"
	"sierravault/internal/core/ports"
	"sierravault/pkg/apperror"
	"sierravault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles vault document endpoints.
type DocumentHandler struct {
	docSvc ports.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docSvc ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{docSvc: docSvc}
}

// Upload handles POST /api/v1/documents (multipart form: file, label,
// notarize). The optional notarize flag runs notarization inline.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperror.Validation("file is required"))
		return
	}

	data, mimeType, err := readUpload(fileHeader)
	if err != nil {
		response.Error(c, apperror.ErrStorageError(err))
		return
	}

	label := c.PostForm("label")
	if label == "" {
		label = fileHeader.Filename
	}

	result, err := h.docSvc.Upload(c.Request.Context(), ports.UploadRequest{
		UserID:   userID,
		Label:    label,
		MimeType: mimeType,
		Bytes:    data,
		Notarize: c.PostForm("notarize") == "true",
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.UploadResponse{
		Document:     dto.FromDocument(result.Document),
		Notarization: dto.FromNotarization(result.Notarization),
	}
	response.Created(c, resp)
}

// List handles GET /api/v1/documents.
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	docs, err := h.docSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		resp = append(resp, dto.FromDocument(&docs[i]))
	}
	response.OK(c, resp)
}

// Get handles GET /api/v1/documents/:id, returning the document with its
// proof history.
func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid document id"))
		return
	}

	doc, proofs, err := h.docSvc.Get(c.Request.Context(), userID, docID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.DocumentDetailResponse{
		Document: dto.FromDocument(doc),
		Proofs:   make([]dto.ProofResponse, 0, len(proofs)),
	}
	for i := range proofs {
		resp.Proofs = append(resp.Proofs, *dto.FromProof(&proofs[i]))
	}
	response.OK(c, resp)
}

// Verify handles POST /api/v1/documents/:id/verify (multipart form: file).
// With ?strict=true a mismatch is an error response instead of match:false.
func (h *DocumentHandler) Verify(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid document id"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperror.Validation("file is required"))
		return
	}
	data, _, err := readUpload(fileHeader)
	if err != nil {
		response.Error(c, apperror.ErrStorageError(err))
		return
	}

	result, err := h.docSvc.Verify(c.Request.Context(), userID, docID, data)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !result.Match && c.Query("strict") == "true" {
		response.Error(c, apperror.ErrProofMismatch())
		return
	}

	response.OK(c, dto.VerifyResponse{
		Fingerprint: result.Fingerprint,
		Match:       result.Match,
		Proof:       dto.FromProof(result.Proof),
	})
}

// readUpload drains a multipart file into memory and reports its declared
// content type. MaxBodySize has already bounded the size.
func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Header.Get("Content-Type"), nil
}
