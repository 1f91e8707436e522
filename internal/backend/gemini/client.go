package gemini

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

const apiVersion = "v1beta"

// Client wraps the HTTP client for Generative Language API calls.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Gemini HTTP client.
func NewClient(config Config) *Client {
	return &Client{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

// Gemini API request/response structures.
type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
}

// GenerateContent sends a non-streaming generation request.
func (c *Client) GenerateContent(ctx context.Context, model string, req geminiRequest) (*geminiResponse, error) {
	if c.apiKey == "" {
		return nil, domain.NewNonRetryableError(backendName, "API key is not configured", nil)
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, domain.NewNonRetryableError(backendName, fmt.Sprintf("failed to marshal request: %v", err), err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s", c.baseURL, apiVersion, model, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, domain.NewNonRetryableError(backendName, fmt.Sprintf("failed to create request: %v", err), err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewTimeoutError(backendName, "call deadline exceeded")
		}
		return nil, domain.NewTransientError(backendName, "Gemini API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus(resp, body)
	}

	var apiResp geminiResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp); decodeErr != nil {
		return nil, domain.NewNonRetryableError(backendName, "failed to decode response", decodeErr)
	}

	return &apiResp, nil
}

// classifyStatus maps a non-200 response into the shared taxonomy.
func classifyStatus(resp *http.Response, body []byte) error {
	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	message := string(body)
	status := ""
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		status = errResp.Error.Status
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		return &domain.BackendError{
			Backend:    backendName,
			Code:       domain.ErrCodeRateLimited,
			Message:    message,
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfterHeader(resp),
		}
	case resp.StatusCode >= http.StatusInternalServerError:
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
