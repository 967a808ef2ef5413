package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/evallife/llm-chat/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.siliconflow.cn/v1"
	RequestTimeout = 90 * time.Second
)

// NoReplyText stands in for a first choice that carries no content.
const NoReplyText = "No valid reply."

// ErrInvalidResponse is returned when the endpoint answers successfully but
// the body carries no choices.
var ErrInvalidResponse = errors.New("api returned no choices")

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	BaseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: RequestTimeout},
	}
}

// SetTimeout bounds a whole request, including reading the body.
func (c *Client) SetTimeout(d time.Duration) {
	c.client.Timeout = d
}

// Complete sends prompt as a single user message and returns the content of
// the first choice. It makes exactly one attempt.
func (c *Client) Complete(ctx context.Context, prompt string, cfg types.Config) (string, error) {
	requestID := uuid.New().String()
	logger := log.With().Str("request_id", requestID).Str("model", cfg.Model).Logger()

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = c.BaseURL
	oc.HTTPClient = c.client
	client := openai.NewClientWithConfig(oc)

	req := openai.ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   cfg.MaxTokens,
		Temperature: sampling(cfg.Temperature),
		TopP:        sampling(cfg.TopP),
		Stream:      false,
	}

	logger.Info().Int("prompt_len", len(prompt)).Msg("chat completion started")
	start := time.Now()

	resp, err := client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		logger.Warn().Dur("elapsed", elapsed).Msg("chat completion returned no choices")
		return "", ErrInvalidResponse
	}

	choice := resp.Choices[0]
	logger.Info().Dur("elapsed", elapsed).Str("finish_reason", string(choice.FinishReason)).Msg("chat completion finished")
	if choice.Message.Content == "" {
		return NoReplyText, nil
	}
	return choice.Message.Content, nil
}

// sampling converts a sampling parameter for the request. go-openai drops a
// zero value from the body, so zero is sent as the smallest positive float32.
func sampling(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}
