package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/proof-of-inference/avs-backend/pkg/logging"
	"github.com/proof-of-inference/avs-backend/pkg/retry"
	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// Config holds the configuration for the receipt registry client
type Config struct {
	Endpoint        string
	RegistryAddress string
	Timeout         time.Duration
}

// Client calls the external receipt registry and normalizes its result
type Client struct {
	httpClient *retry.HTTPClient
	config     Config
	logger     logging.Logger
}

type mintRequest struct {
	AgentID  string                 `json:"agentId"`
	TaskID   string                 `json:"taskId"`
	Result   map[string]interface{} `json:"result"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ReceiptID is decoded loosely: registries return it either as a JSON number
// or as an opaque string.
type mintResponse struct {
	ReceiptID interface{} `json:"receiptId"`
	Status    string      `json:"status"`
}

// NewClient creates a new receipt registry client
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

// IssueReceipt mints a durable proof-of-work record for a verified task.
// Failure is recoverable: it never invalidates the verification result.
func (c *Client) IssueReceipt(ctx context.Context, task types.TaskRequest, outcome types.VerificationOutcome, settlement types.SettlementOutcome) (types.ReceiptOutcome, error) {
	payload, err := json.Marshal(mintRequest{
		AgentID: task.Agent,
		TaskID:  strconv.FormatUint(task.RequestID, 10),
		Result: map[string]interface{}{
			"isValid":    outcome.IsValid,
			"confidence": outcome.Confidence,
			"method":     outcome.Method,
			"proof":      outcome.Proof,
		},
		Metadata: map[string]interface{}{
			"modelId":          task.ModelID,
			"registryAddress":  c.config.RegistryAddress,
			"paymentReference": settlement.TransactionReference,
			"paymentStatus":    string(settlement.Status),
		},
	})
	if err != nil {
		return types.ReceiptOutcome{Status: types.StageFailed}, fmt.Errorf("failed to marshal mint request: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost,
		c.config.Endpoint+"/mint-receipt", bytes.NewReader(payload))
	if err != nil {
		return types.ReceiptOutcome{Status: types.StageFailed}, fmt.Errorf("failed to create mint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithRetry(req)
	if err != nil {
		return types.ReceiptOutcome{Status: types.StageFailed}, fmt.Errorf("receipt call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.ReceiptOutcome{Status: types.StageFailed}, fmt.Errorf("receipt service returned status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var result mintResponse
	if err := decoder.Decode(&result); err != nil {
		return types.ReceiptOutcome{Status: types.StageFailed}, fmt.Errorf("failed to decode receipt response: %w", err)
	}

	var receiptID string
	switch id := result.ReceiptID.(type) {
	case string:
		receiptID = id
	case json.Number:
		receiptID = id.String()
	}
	if receiptID == "" {
		return types.ReceiptOutcome{Status: types.StageFailed}, fmt.Errorf("receipt response missing receipt id")
	}

	return types.ReceiptOutcome{
		ReceiptID: receiptID,
		Status:    types.StageCompleted,
	}, nil
}
