package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// Client wraps the HTTP client for Anthropic Messages API calls.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

// NewClient creates a new Anthropic HTTP client.
func NewClient(config Config) *Client {
	return &Client{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		apiVersion: config.APIVersion,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

// Anthropic API request/response structures.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// CreateMessage sends a non-streaming messages request.
func (c *Client) CreateMessage(ctx context.Context, req anthropicRequest) (*anthropicResponse, error) {
	if c.apiKey == "" {
		return nil, domain.NewNonRetryableError(backendName, "API key is not configured", nil)
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, domain.NewNonRetryableError(backendName, fmt.Sprintf("failed to marshal request: %v", err), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, domain.NewNonRetryableError(backendName, fmt.Sprintf("failed to create request: %v", err), err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewTimeoutError(backendName, "call deadline exceeded")
		}
		return nil, domain.NewTransientError(backendName, "Anthropic API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus(resp, body)
	}

	var apiResp anthropicResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp); decodeErr != nil {
		return nil, domain.NewNonRetryableError(backendName, "failed to decode response", decodeErr)
	}

	return &apiResp, nil
}

// classifyStatus maps a non-200 response into the shared taxonomy. Anthropic
// reports overload as a dedicated error type; it retries like a 5xx.
func classifyStatus(resp *http.Response, body []byte) error {
	var errResp struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	message := string(body)
	errType := ""
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		errType = errResp.Error.Type
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || errType == "rate_limit_error":
		return &domain.BackendError{
			Backend:    backendName,
			Code:       domain.ErrCodeRateLimited,
			Message:    message,
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfterHeader(resp),
		}
	case resp.StatusCode >= http.StatusInternalServerError || errType == "overloaded_error":
		return &domain.BackendError{
			Backend:    backendName,
			Code:       domain.ErrCodeTransient,
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	default:
		return &domain.BackendError{
			Backend:    backendName,
			Code:       domain.ErrCodeNonRetryable,
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	}
}

// retryAfterHeader reads a Retry-After hint in seconds, or zero.
func retryAfterHeader(resp *http.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
