package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "sierravault/internal/adapter/http/handler"
	redisStorage "sierravault/internal/adapter/storage/redis"
	"sierravault/internal/service"
	"sierravault/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack: real HTTP layer, middleware,
// handlers and services, backed by in-memory repos, an in-memory object
// store, miniredis, and a deterministic fake ledger.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	ledger *fakeLedger
	store  *inMemoryDocumentStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Redis stores
	proofCache := redisStorage.NewProofCache(rdb)
	docLock := redisStorage.NewDocumentLock(rdb)

	// Core services with real implementations
	encSvc, err := service.NewAESEncryptionService("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	keyVault := service.NewEd25519KeyVault(encSvc)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")
	fingerprinter := service.NewSHA256Fingerprinter()

	// In-memory repos and stores
	userRepo := newInMemoryUserRepo()
	vaultRepo := newInMemoryVaultRepo()
	walletRepo := newInMemoryWalletRepo()
	docRepo := newInMemoryDocumentRepo()
	proofRepo := newInMemoryProofRepo()
	transactor := newInMemoryTransactor()
	docStore := newInMemoryDocumentStore()
	ledger := newFakeLedger()

	log := logger.New("debug", false)

	notarizeSvc := service.NewNotarizationService(
		fingerprinter, keyVault, ledger, walletRepo, proofRepo,
		proofCache, docLock, 3, 5*time.Second, log,
	)
	authSvc := service.NewAuthService(userRepo, vaultRepo, walletRepo, transactor, hashSvc, keyVault, tokenSvc, log)
	docSvc := service.NewDocumentService(docRepo, vaultRepo, proofRepo, docStore, notarizeSvc, fingerprinter, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:       authSvc,
		DocumentSvc:   docSvc,
		NotarizeSvc:   notarizeSvc,
		DocumentStore: docStore,
		WalletRepo:    walletRepo,
		TokenSvc:      tokenSvc,
		Logger:        log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
		ledger: ledger,
		store:  docStore,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// register creates a user via the API and returns the bearer token.
func (a *testApp) register(t *testing.T, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"email":     email,
		"password":  "StrongPass123!",
		"telephone": fmt.Sprintf("+506%d", time.Now().UnixNano()%100000000),
	})
	resp, err := http.Post(a.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	data := regResp["data"].(map[string]interface{})
	require.NotEmpty(t, data["wallet_public_key"])
	return data["token"].(string)
}

// uploadDocument sends a multipart upload and returns the document id.
func (a *testApp) uploadDocument(t *testing.T, token, filename string, content []byte, notarize bool) string {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	if notarize {
		require.NoError(t, mw.WriteField("notarize", "true"))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/api/v1/documents", buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var upResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upResp))
	data := upResp["data"].(map[string]interface{})
	doc := data["document"].(map[string]interface{})
	return doc["id"].(string)
}

func (a *testApp) postJSON(t *testing.T, token, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "owner@example.com")

	loginBody, _ := json.Marshal(map[string]string{
		"email":    "owner@example.com",
		"password": "StrongPass123!",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	loginData := loginResp["data"].(map[string]interface{})
	assert.NotEmpty(t, loginData["token"])
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "owner@example.com")

	loginBody, _ := json.Marshal(map[string]string{
		"email":    "owner@example.com",
		"password": "WrongPassword!",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/api/v1/documents")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_NotarizeFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "owner@example.com")
	docID := app.uploadDocument(t, token, "deed.txt", []byte("hello-world"), false)

	resp, body := app.postJSON(t, token, "/api/v1/documents/"+docID+"/notarize")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "CONFIRMED", data["state"])
	proof := data["proof"].(map[string]interface{})
	assert.Equal(t, "afa27b44d43b02a9fea41d13cedc2e4016cfcf87c5dbf990e593669aa8ce286d", proof["fingerprint"])
	assert.Equal(t, "tx1", proof["tx_id"])
	assert.Equal(t, "CONFIRMED", proof["status"])
	assert.NotEmpty(t, proof["verified_at"])

	// Re-notarizing unchanged bytes is idempotent: no second submission.
	resp2, body2 := app.postJSON(t, token, "/api/v1/documents/"+docID+"/notarize")
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	data2 := body2["data"].(map[string]interface{})
	proof2 := data2["proof"].(map[string]interface{})
	assert.Equal(t, "tx1", proof2["tx_id"])
	assert.Equal(t, 1, app.ledger.submissionCount())
}

func TestIntegration_UploadWithInlineNotarization(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "owner@example.com")

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("contract body"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("notarize", "true"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/documents", buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var upResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upResp))
	data := upResp["data"].(map[string]interface{})
	notarization := data["notarization"].(map[string]interface{})
	assert.Equal(t, "CONFIRMED", notarization["state"])
	assert.Equal(t, 1, app.ledger.submissionCount())
}

func TestIntegration_VerifyDetectsTampering(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "owner@example.com")
	docID := app.uploadDocument(t, token, "deed.txt", []byte("original content"), true)

	verify := func(content []byte) map[string]interface{} {
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		fw, err := mw.CreateFormFile("file", "deed.txt")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/documents/"+docID+"/verify", buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body["data"].(map[string]interface{})
	}

	match := verify([]byte("original content"))
	assert.Equal(t, true, match["match"])

	mismatch := verify([]byte("tampered content"))
	assert.Equal(t, false, mismatch["match"])
}

func TestIntegration_DocumentsAreVaultScoped(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	ownerToken := app.register(t, "owner@example.com")
	strangerToken := app.register(t, "stranger@example.com")

	docID := app.uploadDocument(t, ownerToken, "secret.txt", []byte("private"), false)

	// The stranger sees neither the document nor whether it exists.
	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/documents/"+docID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+strangerToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Notarizing someone else's document fails the same way.
	resp2, _ := app.postJSON(t, strangerToken, "/api/v1/documents/"+docID+"/notarize")
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestIntegration_ReconcileWithoutPendingProof(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.register(t, "owner@example.com")
	docID := app.uploadDocument(t, token, "deed.txt", []byte("content"), false)

	resp, body := app.postJSON(t, token, "/api/v1/documents/"+docID+"/reconcile")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NTR_002", body["error_code"])
}
