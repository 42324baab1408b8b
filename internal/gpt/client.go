package gpt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fedutinova/mcqgen/internal/common"
	"github.com/fedutinova/mcqgen/internal/mcq"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-4"
	DefaultTimeout = 30 * time.Second
)

// Options configures the OpenRouter chat-completion client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	SiteURL     string
	SiteName    string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

type Client struct {
	openAI      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	configured  bool
}

type ProcessResult struct {
	Content          string
	Model            string
	TokensUsed       int
	ProcessingTimeMs int
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	cfg.HTTPClient = &http.Client{
		Timeout: opts.Timeout,
		Transport: &attributionTransport{
			base:    opts.Transport,
			referer: opts.SiteURL,
			title:   opts.SiteName,
		},
	}

	return &Client{
		openAI:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		maxTokens:   opts.MaxTokens,
		timeout:     opts.Timeout,
		configured:  opts.APIKey != "",
	}
}

// Configured reports whether an API key was provided.
func (c *Client) Configured() bool {
	return c.configured
}

// NewGenerationRequest builds the prompt for count questions over text.
func (c *Client) NewGenerationRequest(text string, count int) GenerationRequest {
	return GenerationRequest{
		RequestID:   uuid.New(),
		Prompt:      mcq.BuildPrompt(count, text),
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Count:       count,
	}
}

// Generate asks the model for count questions over text and returns the
// trimmed completion. Missing credentials fail with a configuration error,
// everything that goes wrong on the wire with an upstream error.
func (c *Client) Generate(ctx context.Context, text string, count int) (string, error) {
	if !c.configured {
		return "", common.Configuration("OpenRouter API key not configured")
	}
	if !mcq.ValidCount(count) {
		return "", common.ValidationError{
			Field:   "num_questions",
			Message: fmt.Sprintf("num_questions must be between %d and %d, got %d", mcq.MinQuestions, mcq.MaxQuestions, count),
		}
	}

	req := c.NewGenerationRequest(text, count)
	result, err := c.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	slog.Info("generation completed",
		"request_id", req.RequestID,
		"model", result.Model,
		"tokens_used", result.TokensUsed,
		"processing_time_ms", result.ProcessingTimeMs)
	return result.Content, nil
}

// Complete performs exactly one chat-completion call.
func (c *Client) Complete(ctx context.Context, req GenerationRequest) (*ProcessResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slog.Info("sending request to OpenRouter",
		"request_id", req.RequestID,
		"model", req.Model,
		"questions", req.Count,
		"prompt_length", len(req.Prompt))

	resp, err := c.openAI.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		slog.Error("OpenRouter API error",
			"request_id", req.RequestID,
			"error", err,
			"status", statusCode(err),
			"elapsed", time.Since(start))
		return nil, common.Upstream(err)
	}

	if len(resp.Choices) == 0 {
		return nil, common.Upstream(errors.New("response contained no choices"))
	}

	responseContent := strings.TrimSpace(resp.Choices[0].Message.Content)
	if responseContent == "" {
		return nil, common.Upstream(errors.New("response contained no content"))
	}

	responsePreview := responseContent
	if len(responseContent) > 200 {
		responsePreview = responseContent[:200] + "..."
	}
	slog.Info("received response from OpenRouter",
		"request_id", req.RequestID,
		"response_length", len(responseContent),
		"response_preview", responsePreview)

	return &ProcessResult{
		Content:          responseContent,
		Model:            resp.Model,
		TokensUsed:       resp.Usage.TotalTokens,
		ProcessingTimeMs: int(time.Since(start).Milliseconds()),
	}, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
