package notary

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sierravault/config"
	"sierravault/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.LedgerConfig{
		BaseURL:        baseURL,
		RequestTimeout: 2 * time.Second,
		PollInterval:   10 * time.Millisecond,
	}, zerolog.Nop())
}

func TestSubmit_Accepted(t *testing.T) {
	sub := ports.LedgerSubmission{
		Payload:         []byte("fingerprint|idemkey"),
		SignerPublicKey: "pubkey58",
		Signature:       []byte("raw-signature"),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transactions", r.URL.Path)

		var req submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "fingerprint|idemkey", req.Memo)
		assert.Equal(t, "pubkey58", req.SignerPublicKey)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw-signature")), req.Signature)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(submitResponse{TxID: "tx123"})
	}))
	defer srv.Close()

	txID, err := newTestClient(srv.URL).Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "tx123", txID)
}

func TestSubmit_GatewayErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), ports.LedgerSubmission{})
	assert.True(t, errors.Is(err, ports.ErrLedgerUnavailable))
}

func TestSubmit_BadRequestIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), ports.LedgerSubmission{})
	assert.True(t, errors.Is(err, ports.ErrLedgerRejected))
}

func TestSubmit_ConnectionRefusedIsTransient(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Submit(context.Background(), ports.LedgerSubmission{})
	assert.True(t, errors.Is(err, ports.ErrLedgerUnavailable))
}

func TestConfirm_EventuallyConfirmed(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions/tx123", r.URL.Path)
		status := "pending"
		if polls.Add(1) >= 3 {
			status = "confirmed"
		}
		json.NewEncoder(w).Encode(transactionStatus{TxID: "tx123", Status: status})
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Confirm(context.Background(), "tx123", time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestConfirm_RejectedTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(transactionStatus{TxID: "tx123", Status: "rejected"})
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Confirm(context.Background(), "tx123", time.Second)
	assert.True(t, errors.Is(err, ports.ErrLedgerRejected))
}

func TestConfirm_TimeoutWhilePending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(transactionStatus{TxID: "tx123", Status: "pending"})
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Confirm(context.Background(), "tx123", 50*time.Millisecond)
	assert.True(t, errors.Is(err, ports.ErrLedgerConfirmTimeout))
}

func TestConfirm_KeepsPollingThroughTransientErrors(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if polls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(transactionStatus{TxID: "tx123", Status: "confirmed"})
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Confirm(context.Background(), "tx123", time.Second)
	require.NoError(t, err, "a flaky status endpoint must not fail confirmation early")
}
