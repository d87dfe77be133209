package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sierravault/config"
	httpHandler "sierravault/internal/adapter/http/handler"
	"sierravault/internal/adapter/ledger/notary"
	"sierravault/internal/adapter/storage/objectstore"
	pgStorage "sierravault/internal/adapter/storage/postgres"
	redisStorage "sierravault/internal/adapter/storage/redis"
	"sierravault/internal/core/ports"
	"sierravault/internal/service"
	"sierravault/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting SierraVault")

	ctx := context.Background()

	// Initialize PostgreSQL pool and run migrations
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if err := pgStorage.RunMigrations(ctx, cfg.Database, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize object store for document bytes
	docStore, err := objectstore.NewMinioStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to object store")
	}
	log.Info().Str("bucket", cfg.Storage.Bucket).Msg("Object store ready")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	vaultRepo := pgStorage.NewVaultRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	docRepo := pgStorage.NewDocumentRepo(pool)
	proofRepo := pgStorage.NewProofRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	proofCache := redisStorage.NewProofCache(rdb)
	docLock := redisStorage.NewDocumentLock(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.Master.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	keyVault := service.NewEd25519KeyVault(encSvc)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	fingerprinter := service.NewSHA256Fingerprinter()

	// Ledger client
	ledgerClient := notary.NewClient(cfg.Ledger, log)

	// Initialize business services
	notarizeSvc := service.NewNotarizationService(
		fingerprinter,
		keyVault,
		ledgerClient,
		walletRepo,
		proofRepo,
		proofCache,
		docLock,
		cfg.Ledger.SubmitRetries,
		cfg.Ledger.ConfirmTimeout,
		log,
	)
	authSvc := service.NewAuthService(userRepo, vaultRepo, walletRepo, transactor, hashSvc, keyVault, tokenSvc, log)
	docSvc := service.NewDocumentService(docRepo, vaultRepo, proofRepo, docStore, notarizeSvc, fingerprinter, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)
	storeHealth := objectstore.NewHealthCheck(docStore)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		DocumentSvc:    docSvc,
		NotarizeSvc:    notarizeSvc,
		DocumentStore:  docStore,
		WalletRepo:     walletRepo,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth, storeHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
