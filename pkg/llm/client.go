// Package llm provides an OpenAI-compatible chat completion client with
// retry and backoff support for the answer router.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aislice/aislice-backend/pkg/config"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/logger"
)

// maxResponseSize limits the completion response body size.
const maxResponseSize = 4 * 1024 * 1024

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request defines a completion request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Usage reports token consumption for a completion call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the completion result.
type Response struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Completer is the surface consumed by the answer router.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
	logg       *logger.Logger
}

// New builds a completion client from configuration.
func New(cfg config.LLMConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("llm base url is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
		logg:       logg,
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Complete sends a completion request, retrying transient failures with backoff.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one message is required")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, classifyError(ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}

		resp, err := c.doRequest(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isTransient(err) {
			return nil, err
		}
		if c.logg != nil {
			c.logg.Warn(ctx, fmt.Sprintf("completion attempt %d failed: %v", attempt+1, err))
		}
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "encode completion request")
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "build completion request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyError(err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyStatus(httpResp.StatusCode, respBody)
	}

	var decoded chatResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "decode completion response")
	}
	if len(decoded.Choices) == 0 {
		return nil, apperrors.New(apperrors.CodeDependency, "completion response has no choices")
	}

	choice := decoded.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		Model:        decoded.Model,
		FinishReason: choice.FinishReason,
		Usage:        decoded.Usage,
	}, nil
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return apperrors.Wrap(apperrors.CodeTimeout, err, "completion request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(apperrors.CodeInternal, err, "completion request cancelled")
	}
	return apperrors.Wrap(apperrors.CodeDependency, err, "completion request failed")
}

func classifyStatus(statusCode int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	msg := fmt.Sprintf("completion api error (status %d): %s", statusCode, snippet)

	switch {
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		return apperrors.New(apperrors.CodeDependency, msg)
	default:
		return apperrors.New(apperrors.CodeInternal, msg)
	}
}

// isTransient reports whether another attempt could succeed. Upstream
// outages and per-attempt timeouts retry; malformed requests do not.
func isTransient(err error) bool {
	typed := apperrors.As(err)
	if typed == nil {
		return false
	}
	switch typed.Code() {
	case apperrors.CodeTimeout, apperrors.CodeDependency:
		return true
	}
	return false
}

// backoff computes exponential backoff with jitter.
func backoff(attempt int) time.Duration {
	base := 500 * time.Millisecond
	d := base * time.Duration(1<<(attempt-1))
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 4))
	return d + jitter
}
