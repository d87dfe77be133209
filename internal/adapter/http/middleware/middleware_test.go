package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	redisStore "sierravault/internal/adapter/storage/redis"
	"sierravault/internal/core/ports"
	"sierravault/internal/core/ports/mocks"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RequestID()(c)

	id := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, c.GetString(CtxRequestID))
}

func TestRequestID_EchoesCallerSupplied(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Request-ID", "trace-42")

	RequestID()(c)

	assert.Equal(t, "trace-42", w.Header().Get("X-Request-ID"))
}

func TestJWTAuth_ValidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockToken := mocks.NewMockTokenService(ctrl)
	userID := uuid.New()
	mockToken.EXPECT().Validate("good-token").Return(&ports.TokenClaims{UserID: userID}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	c.Request.Header.Set("Authorization", "Bearer good-token")

	JWTAuth(mockToken, zerolog.Nop())(c)

	assert.False(t, c.IsAborted())
	got, ok := UserID(c)
	require.True(t, ok)
	assert.Equal(t, userID, got)
}

func TestJWTAuth_RejectsMissingAndMalformedHeaders(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockToken := mocks.NewMockTokenService(ctrl)

	for _, header := range []string{"", "Basic abc", "Bearer"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}

		JWTAuth(mockToken, zerolog.Nop())(c)

		assert.True(t, c.IsAborted(), "header %q should be rejected", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestJWTAuth_RejectsInvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockToken := mocks.NewMockTokenService(ctrl)
	mockToken.EXPECT().Validate("expired").Return(nil, errors.New("token is expired"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	c.Request.Header.Set("Authorization", "Bearer expired")

	JWTAuth(mockToken, zerolog.Nop())(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_003")
}

func TestRateLimiter_EnforcesWindowLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := redisStore.NewRateLimitStore(client)

	router := gin.New()
	router.GET("/limited", RateLimiter(store, "test", RateLimitRule{Limit: 2, Window: time.Minute}, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_001")
}

func TestRateLimiter_DegradedModeAllowsOnStoreFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := redisStore.NewRateLimitStore(client)
	mr.Close() // store calls will now fail

	router := gin.New()
	router.GET("/limited", RateLimiter(store, "test", RateLimitRule{Limit: 1, Window: time.Minute}, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestMaxBodySize_RejectsOversizedBody(t *testing.T) {
	router := gin.New()
	router.POST("/upload", MaxBodySize(16), func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 64)))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("tiny"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery_TurnsPanicInto500(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(zerolog.Nop()))
	router.GET("/boom", func(c *gin.Context) {
		panic("unreachable state")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_001")
}
