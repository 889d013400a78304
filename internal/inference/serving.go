package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ServingModel calls a TensorFlow Serving compatible REST endpoint.
type ServingModel struct {
	baseURL string
	name    string
	client  *http.Client
}

func NewServingModel(baseURL, name string, client *http.Client) *ServingModel {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ServingModel{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		name:    name,
		client:  client,
	}
}

type predictRequest struct {
	Instances []Tensor `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error"`
}

func (m *ServingModel) Predict(ctx context.Context, batch []Tensor) ([][]float64, error) {
	body, err := json.Marshal(predictRequest{Instances: batch})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", m.baseURL, m.name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var pr predictResponse
	err = json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&pr)
	if resp.StatusCode != http.StatusOK {
		if err == nil && pr.Error != "" {
			return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, pr.Error)
		}
		return nil, fmt.Errorf("model server returned %d", resp.StatusCode)
	}
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([][]float64, 0, len(pr.Predictions))
	for i, raw := range pr.Predictions {
		vec, err := decodePrediction(raw)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		out = append(out, vec)
	}

	return out, nil
}

// decodePrediction accepts a vector or a bare number (single-output models).
func decodePrediction(raw json.RawMessage) ([]float64, error) {
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err == nil {
		return vec, nil
	}

	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err != nil {
		return nil, fmt.Errorf("unexpected prediction shape: %s", string(raw))
	}
	return []float64{scalar}, nil
}

// Status checks that the model is served and available.
func (m *ServingModel) Status(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1/models/%s", m.baseURL, m.name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("status request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server returned %d", resp.StatusCode)
	}
	return nil
}
