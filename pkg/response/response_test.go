package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sierravault/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestOK(t *testing.T) {
	c, w := newTestContext()
	OK(c, gin.H{"fingerprint": "abc"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestAccepted(t *testing.T) {
	c, w := newTestContext()
	Accepted(c, gin.H{"status": "PENDING_RECONCILIATION"})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestError_AppError(t *testing.T) {
	c, w := newTestContext()
	Error(c, apperror.ErrKeyNotFound())

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "KEY_001", resp.ErrorCode)
}

func TestError_UnknownError(t *testing.T) {
	c, w := newTestContext()
	Error(c, errors.New("something internal"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SYS_000", resp.ErrorCode)
	// Internal detail must never leak to the client.
	assert.NotContains(t, resp.Message, "something internal")
}
