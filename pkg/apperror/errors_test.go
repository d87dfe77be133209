package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("KEY_001", "User has no managed wallet", http.StatusNotFound)
	assert.Equal(t, "[KEY_001] User has no managed wallet", e.Error())
}

func TestAppError_Error_Wrapped(t *testing.T) {
	inner := errors.New("cipher: message authentication failed")
	e := ErrKeyDecryption(inner)
	assert.Contains(t, e.Error(), "KEY_002")
	assert.Contains(t, e.Error(), "message authentication failed")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	e := ErrLedgerUnavailable(inner)
	assert.ErrorIs(t, e, inner)
}

func TestAppError_As(t *testing.T) {
	var appErr *AppError
	err := fmt.Errorf("submitting memo: %w", ErrLedgerRejected(errors.New("bad signer")))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LGR_002", appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
}

func TestErrorConstructors_Codes(t *testing.T) {
	cases := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrInvalidCredentials(), "AUTH_001", http.StatusUnauthorized},
		{ErrUserExists(), "AUTH_002", http.StatusConflict},
		{ErrInvalidToken(), "AUTH_003", http.StatusUnauthorized},
		{ErrKeyNotFound(), "KEY_001", http.StatusNotFound},
		{ErrLedgerConfirmTimeout(), "LGR_003", http.StatusAccepted},
		{ErrMemoTooLarge(), "LGR_004", http.StatusBadRequest},
		{ErrNotarizationInProgress(), "NTR_001", http.StatusConflict},
		{ErrNoPendingProof(), "NTR_002", http.StatusNotFound},
		{ErrProofMismatch(), "NTR_003", http.StatusConflict},
		{ErrNotFound("document"), "VLT_001", http.StatusNotFound},
		{ErrEmptyDocument(), "VLT_002", http.StatusBadRequest},
		{ErrForbidden(), "VLT_003", http.StatusForbidden},
		{ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.HTTPStatus)
	}
}
