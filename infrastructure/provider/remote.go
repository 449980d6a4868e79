package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/helixml/factual/domain/sentiment"
)

// RemoteSentiment classifies text by POSTing {"text": ...} to an external
// model endpoint. The endpoint may answer with {"positive": p},
// {"probabilities": [neg, pos]} or {"logits": [neg, pos]}.
type RemoteSentiment struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	maxLength int
	retry     RetryPolicy
}

// RemoteConfig holds configuration for a remote model endpoint.
type RemoteConfig struct {
	Endpoint  string
	APIKey    string
	Timeout   time.Duration
	MaxLength int
	Retry     RetryPolicy
}

// NewRemoteSentiment creates a RemoteSentiment.
func NewRemoteSentiment(cfg RemoteConfig) *RemoteSentiment {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = sentiment.DefaultMaxLength
	}
	return &RemoteSentiment{
		client:    &http.Client{Timeout: timeout},
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		maxLength: maxLength,
		retry:     cfg.Retry.normalized(),
	}
}

type remoteRequest struct {
	Text string `json:"text"`
}

type remoteResponse struct {
	Positive      *float64  `json:"positive"`
	Probabilities []float64 `json:"probabilities"`
	Logits        []float64 `json:"logits"`
}

// Positive implements sentiment.Classifier with one request per text.
func (r *RemoteSentiment) Positive(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}
	if r.endpoint == "" {
		return nil, fmt.Errorf("%w: no model endpoint configured", sentiment.ErrUnavailable)
	}

	out := make([]float64, len(texts))
	for i, text := range texts {
		var p float64
		err := r.retry.withRetry(ctx, func() error {
			var err error
			p, err = r.classify(ctx, sentiment.Truncate(text, r.maxLength))
			return err
		})
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (r *RemoteSentiment) classify(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, NewProviderError("classify", 0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, NewProviderError("classify", resp.StatusCode, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, NewProviderError("classify", resp.StatusCode, strings.TrimSpace(string(raw)), nil)
	}

	var parsed remoteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, NewProviderError("classify", resp.StatusCode, "decode response", err)
	}
	return parsed.positive()
}

func (r remoteResponse) positive() (float64, error) {
	switch {
	case r.Positive != nil:
		return clamp01(*r.Positive), nil
	case len(r.Probabilities) > sentiment.PositiveIndex:
		return clamp01(r.Probabilities[sentiment.PositiveIndex]), nil
	case len(r.Logits) > 0:
		p, err := sentiment.PositiveFromLogits(r.Logits)
		if err != nil {
			return 0, NewProviderError("classify", 0, "invalid logits", err)
		}
		return p, nil
	}
	return 0, NewProviderError("classify", 0, "response has no positive, probabilities or logits field", nil)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

var _ sentiment.Classifier = (*RemoteSentiment)(nil)
