package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/ports"
)

// Client talks to the model service that hosts the detection network.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Trainer = (*Client)(nil)
var _ ports.Classifier = (*Client)(nil)

// NewClient creates a reusable HTTP client. Training requests may run long, so timeout bounds
// each call and zero means no limit.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Train uploads the prepared sequences and embeddings and waits for the fitted model.
func (c *Client) Train(ctx context.Context, set domain.TrainingSet) (domain.TrainingResult, error) {
	var result domain.TrainingResult
	if err := c.post(ctx, "/train", set, &result); err != nil {
		return domain.TrainingResult{}, fmt.Errorf("train %s: %w", set.Name, err)
	}
	if result.Model == "" {
		result.Model = set.Name
	}
	return result, nil
}

// Predict returns the probability of the unreliable class for every sequence.
func (c *Client) Predict(ctx context.Context, model string, sequences [][]int) ([]float64, error) {
	payload := map[string]any{
		"model":     model,
		"sequences": sequences,
	}

	var resp struct {
		Probabilities []float64 `json:"probabilities"`
	}
	if err := c.post(ctx, "/predict", payload, &resp); err != nil {
		return nil, fmt.Errorf("predict with %s: %w", model, err)
	}
	if len(resp.Probabilities) != len(sequences) {
		return nil, fmt.Errorf("predict with %s: got %d probabilities for %d sequences", model, len(resp.Probabilities), len(sequences))
	}
	return resp.Probabilities, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
