package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUserExists() *AppError {
	return New("AUTH_002", "User already exists with this email or telephone", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Key custody (KEY) ----

func ErrKeyNotFound() *AppError {
	return New("KEY_001", "User has no managed wallet", http.StatusNotFound)
}

func ErrKeyDecryption(err error) *AppError {
	return Wrap("KEY_002", "Wallet key material is corrupted or the master key is wrong", http.StatusInternalServerError, err)
}

// ---- Ledger (LGR) ----

func ErrLedgerUnavailable(err error) *AppError {
	return Wrap("LGR_001", "Notarization ledger is unavailable", http.StatusServiceUnavailable, err)
}

func ErrLedgerRejected(err error) *AppError {
	return Wrap("LGR_002", "Transaction rejected by the notarization ledger", http.StatusUnprocessableEntity, err)
}

func ErrLedgerConfirmTimeout() *AppError {
	return New("LGR_003", "Ledger confirmation timed out, reconciliation pending", http.StatusAccepted)
}

func ErrMemoTooLarge() *AppError {
	return New("LGR_004", "Payload exceeds the ledger memo size limit", http.StatusBadRequest)
}

// ---- Notarization (NTR) ----

func ErrNotarizationInProgress() *AppError {
	return New("NTR_001", "A notarization for this document is already in progress", http.StatusConflict)
}

func ErrNoPendingProof() *AppError {
	return New("NTR_002", "No pending proof to reconcile for this document", http.StatusNotFound)
}

func ErrProofMismatch() *AppError {
	return New("NTR_003", "Document content does not match its recorded proof", http.StatusConflict)
}

// ---- Vault & documents (VLT) ----

func ErrNotFound(entity string) *AppError {
	return New("VLT_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrEmptyDocument() *AppError {
	return New("VLT_002", "Document payload is empty", http.StatusBadRequest)
}

func ErrForbidden() *AppError {
	return New("VLT_003", "Document does not belong to this user", http.StatusForbidden)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrStorageError(err error) *AppError {
	return Wrap("SYS_002", "Object storage failure", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VLT_004", message, http.StatusBadRequest)
}
