package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/helixml/factual/domain/sentiment"
)

const sentimentPrompt = `You are a sentiment classifier. Given a passage of text, estimate the
probability that its overall sentiment is positive. Respond with a JSON
object of the form {"positive": <number between 0 and 1>} and nothing else.`

// OpenAIConfig holds configuration for an OpenAI-compatible classifier.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxLength int
	Retry     RetryPolicy
}

// OpenAISentiment asks an OpenAI-compatible chat completion endpoint for
// the positive-sentiment probability of each text.
type OpenAISentiment struct {
	client    *openai.Client
	model     string
	maxLength int
	retry     RetryPolicy
}

// NewOpenAISentiment creates a classifier from configuration.
func NewOpenAISentiment(cfg OpenAIConfig) *OpenAISentiment {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = sentiment.DefaultMaxLength
	}

	return &OpenAISentiment{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		maxLength: maxLength,
		retry:     cfg.Retry.normalized(),
	}
}

// Positive implements sentiment.Classifier with one completion per text.
func (p *OpenAISentiment) Positive(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}

	out := make([]float64, len(texts))
	for i, text := range texts {
		req := openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: sentimentPrompt},
				{Role: openai.ChatMessageRoleUser, Content: sentiment.Truncate(text, p.maxLength)},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		}

		var resp openai.ChatCompletionResponse
		err := p.retry.withRetry(ctx, func() error {
			var err error
			resp, err = p.client.CreateChatCompletion(ctx, req)
			return err
		})
		if err != nil {
			return nil, p.wrapError(err)
		}
		if len(resp.Choices) == 0 {
			return nil, NewProviderError("chat_completion", 0, "no choices in response", nil)
		}

		score, err := parsePositive(resp.Choices[0].Message.Content)
		if err != nil {
			return nil, err
		}
		out[i] = score
	}
	return out, nil
}

// parsePositive reads {"positive": p} from a completion, tolerating code
// fences around the object.
func parsePositive(content string) (float64, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var parsed struct {
		Positive *float64 `json:"positive"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return 0, NewProviderError("chat_completion", 0, "decode completion", err)
	}
	if parsed.Positive == nil {
		return 0, NewProviderError("chat_completion", 0, "completion has no positive field", nil)
	}
	return clamp01(*parsed.Positive), nil
}

func (p *OpenAISentiment) wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError("chat_completion", apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError("chat_completion", reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError("chat_completion", 0, "request failed", err)
}

var _ sentiment.Classifier = (*OpenAISentiment)(nil)
