package handler

import (
	"sierravault/internal/adapter/http/middleware"
	redisStore "sierravault/internal/adapter/storage/redis"
	"sierravault/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	DocumentSvc    ports.DocumentService
	NotarizeSvc    ports.NotarizationService
	DocumentStore  ports.DocumentStore
	WalletRepo     ports.WalletRepository
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(32 << 20)) // 32 MB: document uploads

	// Health check (deep — verifies PostgreSQL, Redis and the object store)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.WalletRepo)
	documentHandler := NewDocumentHandler(deps.DocumentSvc)
	notarizationHandler := NewNotarizationHandler(deps.DocumentSvc, deps.DocumentStore, deps.NotarizeSvc)

	v1.GET("/wallet", jwtAuth, rl("documents"), walletHandler.Get)

	documents := v1.Group("/documents", jwtAuth)
	{
		documents.POST("", rl("upload"), documentHandler.Upload)
		documents.GET("", rl("documents"), documentHandler.List)
		documents.GET("/:id", rl("documents"), documentHandler.Get)
		documents.POST("/:id/verify", rl("documents"), documentHandler.Verify)
		documents.POST("/:id/notarize", rl("notarize"), notarizationHandler.Notarize)
		documents.POST("/:id/reconcile", rl("notarize"), notarizationHandler.Reconcile)
	}

	return r
}
