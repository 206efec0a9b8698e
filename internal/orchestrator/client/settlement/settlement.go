package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/proof-of-inference/avs-backend/pkg/logging"
	"github.com/proof-of-inference/avs-backend/pkg/retry"
	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// Config holds the configuration for the settlement client
type Config struct {
	Endpoint           string
	RewardTokenAddress string
	Timeout            time.Duration
}

// Client calls the external payment rail and normalizes its result
type Client struct {
	httpClient *retry.HTTPClient
	config     Config
	logger     logging.Logger
}

type paymentRequest struct {
	RecipientAgentID string `json:"recipientAgentId"`
	Amount           string `json:"amount"`
	TokenAddress     string `json:"tokenAddress,omitempty"`
	Description      string `json:"description"`
}

type paymentResponse struct {
	PaymentHash     string `json:"paymentHash"`
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
}

// NewClient creates a new settlement client
func NewClient(logger logging.Logger, cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpConfig := retry.DefaultHTTPRetryConfig()
	httpConfig.Timeout = cfg.Timeout
	httpClient, err := retry.NewHTTPClient(httpConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Settle submits the reward payment for a successfully verified task. Callers
// treat an error here as recoverable: the verification already stands.
func (c *Client) Settle(ctx context.Context, task types.TaskRequest, outcome types.VerificationOutcome) (types.SettlementOutcome, error) {
	if !outcome.IsValid {
		return types.SettlementOutcome{Status: types.StageSkipped}, nil
	}

	payload, err := json.Marshal(paymentRequest{
		RecipientAgentID: task.Agent,
		Amount:           task.Reward,
		TokenAddress:     c.config.RewardTokenAddress,
		Description:      fmt.Sprintf("ML inference verification reward for request %d", task.RequestID),
	})
	if err != nil {
		return types.SettlementOutcome{Status: types.StageFailed}, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost,
		c.config.Endpoint+"/process-payment", bytes.NewReader(payload))
	if err != nil {
		return types.SettlementOutcome{Status: types.StageFailed}, fmt.Errorf("failed to create payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithRetry(req)
	if err != nil {
		return types.SettlementOutcome{Status: types.StageFailed}, fmt.Errorf("settlement call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.SettlementOutcome{Status: types.StageFailed}, fmt.Errorf("settlement service returned status %d", resp.StatusCode)
	}

	var result paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return types.SettlementOutcome{Status: types.StageFailed}, fmt.Errorf("failed to decode settlement response: %w", err)
	}

	reference := result.PaymentHash
	if reference == "" {
		reference = result.TransactionHash
	}
	if reference == "" {
		return types.SettlementOutcome{Status: types.StageFailed}, fmt.Errorf("settlement response missing transaction reference")
	}

	return types.SettlementOutcome{
		TransactionReference: reference,
		Status:               types.StageCompleted,
	}, nil
}
