// Package insight generates AI summaries of ingested data.
//
// The summarization call is best-effort and independent of ingestion:
// callers attach a failure as a warning and never roll back persisted
// records because of it. Rate-limited calls are retried with exponential
// backoff; any other failure surfaces immediately.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for the retry policy: up to 3 retries with a doubling delay
// starting at 500ms.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 500 * time.Millisecond
)

const systemPrompt = "You are an expert data analyst."

// chatClient is the slice of the OpenAI client the summarizer needs.
// *openai.Client satisfies it; tests substitute a fake.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Summarizer calls a chat-completion model over a sample of ingested
// records.
type Summarizer struct {
	client     chatClient
	model      string
	maxRetries int
	baseDelay  time.Duration
}

// New creates a Summarizer with the default model and retry policy.
func New(apiKey string, model string) *Summarizer {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Summarizer{
		client:     openai.NewClient(apiKey),
		model:      model,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}
}

// NewWithClient is like New but with a caller-supplied client. Used by
// tests and by deployments routing through a proxy client.
func NewWithClient(client chatClient, model string) *Summarizer {
	return &Summarizer{
		client:     client,
		model:      model,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}
}

// Summarize asks the model for insights over records, guided by prompt.
// Records are serialized as JSON into the user message.
//
// On a rate-limit response the call is retried up to 3 times with delays
// of 500ms, 1s, 2s. Other errors are returned as-is after wrapping.
func (s *Summarizer) Summarize(ctx context.Context, records any, prompt string) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshal records for summarization: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt + "\n\nData: " + string(data)},
		},
	}

	delay := s.baseDelay
	for attempt := 0; ; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("summarization returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}

		if !isRateLimited(err) || attempt >= s.maxRetries {
			return "", fmt.Errorf("generate insights: %w", err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
	}
}

// isRateLimited reports whether the API rejected the call with HTTP 429.
func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests
}
