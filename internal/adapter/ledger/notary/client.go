package notary

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sierravault/config"
	"sierravault/internal/core/ports"

	"github.com/rs/zerolog"
)

// Client talks to the notary ledger gateway over HTTP. Submit broadcasts a
// pre-signed memo transaction; Confirm polls the transaction until the
// network reports finality.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	log          zerolog.Logger
}

// NewClient creates a ledger client from the ledger configuration.
func NewClient(cfg config.LedgerConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		pollInterval: cfg.PollInterval,
		log:          log,
	}
}

type submitRequest struct {
	Memo            string `json:"memo"`
	SignerPublicKey string `json:"signer_public_key"`
	Signature       string `json:"signature"` // base64
}

type submitResponse struct {
	TxID string `json:"tx_id"`
}

type transactionStatus struct {
	TxID   string `json:"tx_id"`
	Status string `json:"status"` // pending, confirmed, rejected
}

// Submit broadcasts the signed memo transaction. It returns the network
// transaction id once the gateway accepts the broadcast; acceptance is not
// finality.
func (c *Client) Submit(ctx context.Context, sub ports.LedgerSubmission) (string, error) {
	body, err := json.Marshal(submitRequest{
		Memo:            string(sub.Payload),
		SignerPublicKey: sub.SignerPublicKey,
		Signature:       base64.StdEncoding.EncodeToString(sub.Signature),
	})
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated ||
		resp.StatusCode == http.StatusAccepted:
		var sr submitResponse
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
			return "", fmt.Errorf("decode submit response: %w", err)
		}
		if sr.TxID == "" {
			return "", fmt.Errorf("%w: empty transaction id", ports.ErrLedgerRejected)
		}
		return sr.TxID, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		// Gateway or network trouble; the submission may be retried.
		return "", fmt.Errorf("%w: gateway returned %d", ports.ErrLedgerUnavailable, resp.StatusCode)
	default:
		// 4xx: the transaction itself was refused.
		return "", fmt.Errorf("%w: gateway returned %d", ports.ErrLedgerRejected, resp.StatusCode)
	}
}

// Confirm polls the transaction status until the network reports finality,
// the transaction is rejected, or timeout elapses.
func (c *Client) Confirm(ctx context.Context, txID string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.fetchStatus(ctx, txID)
		if err == nil {
			switch status {
			case "confirmed", "finalized":
				return nil
			case "rejected", "failed":
				return fmt.Errorf("%w: transaction %s", ports.ErrLedgerRejected, txID)
			}
			// still pending, keep polling
		} else if ctx.Err() == nil {
			c.log.Debug().Err(err).Str("tx_id", txID).Msg("confirmation poll failed, will retry")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ports.ErrLedgerConfirmTimeout, txID)
		case <-ticker.C:
		}
	}
}

func (c *Client) fetchStatus(ctx context.Context, txID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/transactions/"+txID, nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status endpoint returned %d", ports.ErrLedgerUnavailable, resp.StatusCode)
	}

	var ts transactionStatus
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	return ts.Status, nil
}
