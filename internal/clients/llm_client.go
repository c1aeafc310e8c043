package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/recallagent/rebalancer/internal/domain"
)

const (
	defaultLLMTimeout    = 30 * time.Second
	defaultLLMMaxRetries = 2
	defaultLLMRetryDelay = 2 * time.Second

	reasonSystemPrompt = "You write one-sentence trade rationales for an autonomous " +
		"portfolio-rebalancing agent. Be concise and factual. Reply with the sentence only."
)

// ReasonGenerator produces human-readable trade rationales. Optional
// collaborator: it runs only after validation succeeds and its failure
// must never block trade submission.
type ReasonGenerator interface {
	TradeReason(ctx context.Context, trade domain.ValidatedTrade) (string, error)
}

// LLMReasonClient generates trade rationales via an OpenAI-compatible
// chat completions API.
type LLMReasonClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewLLMReasonClient creates a client for OpenAI-compatible APIs.
func NewLLMReasonClient(apiURL, apiKey, model string) *LLMReasonClient {
	return &LLMReasonClient{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: defaultLLMTimeout,
		},
		maxRetries: defaultLLMMaxRetries,
		retryDelay: defaultLLMRetryDelay,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Message message `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// TradeReason asks the LLM for a short rationale for the given trade.
func (c *LLMReasonClient) TradeReason(ctx context.Context, trade domain.ValidatedTrade) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("LLM API key is empty")
	}

	prompt := fmt.Sprintf("Write a short reason for swapping %s %s into %s as part of portfolio rebalancing.",
		trade.Amount.StringFixed(4), trade.From, trade.To)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: reasonSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   120,
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		response, err := c.sendRequest(ctx, reqBody)
		if err != nil {
			lastErr = err
			continue
		}

		return strings.TrimSpace(response), nil
	}

	return "", errors.Wrapf(lastErr, "failed after %d retries", c.maxRetries)
}

func (c *LLMReasonClient) sendRequest(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errors.Wrap(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal response")
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("LLM API error: %s (type: %s, code: %s)",
			chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code)
	}

	if len(chatResp.Choices) == 0 {
		return "", errors.New("LLM API returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}
