package verifier

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

// Config holds the configuration for the verifier client
type Config struct {
	Endpoint string
	Timeout  time.Duration
	// DegradedMode masks transport failures with a flagged, invalid
	// placeholder outcome instead of failing the task. Off by default.
	DegradedMode bool
}

// Client calls the external verification capability and normalizes its result
type Client struct {
	httpClient *retry.HTTPClient
	config     Config
	logger     logging.Logger
}

type verifyRequest struct {
	RequestID      uint64 `json:"requestId"`
	ModelID        string `json:"modelId"`
	InputData      string `json:"inputData"`
	ExpectedOutput string `json:"expectedOutput"`
}

type verifyResponse struct {
	IsValid    bool                   `json:"isValid"`
	Confidence uint64                 `json:"confidence"`
	Method     string                 `json:"method"`
	Proof      string                 `json:"proof"`
	Details    map[string]interface{} `json:"details"`
}

// NewClient creates a new verifier client
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

// Verify submits the task to the verification service. In the default mode a
// transport failure or timeout is returned as an error; in degraded mode it is
// replaced by a flagged placeholder that can never pass settlement.
func (c *Client) Verify(ctx context.Context, task types.TaskRequest) (types.VerificationOutcome, error) {
	outcome, err := c.verify(ctx, task)
	if err == nil {
		return outcome, nil
	}

	if c.config.DegradedMode {
		c.logger.Warn("Verifier unavailable, substituting degraded placeholder",
			"requestId", task.RequestID,
			"error", err,
		)
		return types.VerificationOutcome{
			IsValid:    false,
			Confidence: 0,
			Method:     types.MethodDegradedFallback,
			Details: map[string]interface{}{
				"degraded": true,
				"error":    err.Error(),
			},
		}, nil
	}

	return types.VerificationOutcome{}, fmt.Errorf("verification failed: %w", err)
}

func (c *Client) verify(ctx context.Context, task types.TaskRequest) (types.VerificationOutcome, error) {
	payload, err := json.Marshal(verifyRequest{
		RequestID:      task.RequestID,
		ModelID:        task.ModelID,
		InputData:      task.InputData,
		ExpectedOutput: task.ExpectedOutput,
	})
	if err != nil {
		return types.VerificationOutcome{}, fmt.Errorf("failed to marshal verify request: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost,
		c.config.Endpoint+"/verify", bytes.NewReader(payload))
	if err != nil {
		return types.VerificationOutcome{}, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithRetry(req)
	if err != nil {
		return types.VerificationOutcome{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.VerificationOutcome{}, fmt.Errorf("verifier returned status %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return types.VerificationOutcome{}, fmt.Errorf("failed to decode verifier response: %w", err)
	}

	return types.VerificationOutcome{
		IsValid:    result.IsValid,
		Confidence: result.Confidence,
		Method:     result.Method,
		Proof:      result.Proof,
		Details:    result.Details,
	}, nil
}
