package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/driftwatch/driftwatch/internal/logger"
)

const maxResponseBytes = 1 << 20 // cap on model reply size

type OllamaClient struct {
	client   *http.Client
	endpoint string
	model    string
	options  generateOptions
}

type OllamaConfig struct {
	Endpoint    string
	Model       string
	Timeout     time.Duration
	Temperature float64
	TopP        float64
}

// generateRequest is the wire contract with the model server: any server
// accepting this body and answering with a "response" field is usable.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "llama3.2"
	}

	return &OllamaClient{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: cfg.Endpoint,
		model:    model,
		options: generateOptions{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		},
	}
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: c.options,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %v", ErrCompletionFailed, err)
	}

	url := fmt.Sprintf("%s/api/generate", c.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrCompletionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.WithField("model", c.model).Debugf("Requesting completion from %s", url)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		// The client's own timeout surfaces as a net.Error with a nil
		// context error.
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: status %d: %s", ErrModelError, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrCompletionFailed, err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if genResp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrModelError, genResp.Error)
	}

	return genResp.Response, nil
}

func (c *OllamaClient) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/tags", c.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *OllamaClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
