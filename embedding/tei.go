package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"examguard/config"
)

// TEIEncoder talks to a Hugging Face text-embeddings-inference server and
// asks for per-token hidden states.
// Endpoint: POST {baseURL}/embed_all
// Request:  {"inputs": "text", "truncate": true}
// Response: [[[f32, ...], ...]]  (batch x tokens x hidden)
type TEIEncoder struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// TEIConfig configures a TEIEncoder. Zero values fall back to defaults.
type TEIConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

func NewTEIEncoder(cfg TEIConfig) (*TEIEncoder, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("tei base url is required")
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultModelName
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.EmbeddingRequestTimeout}
	}
	return &TEIEncoder{baseURL: base, model: model, apiKey: cfg.APIKey, httpClient: client}, nil
}

func (t *TEIEncoder) ModelName() string { return t.model }

func (t *TEIEncoder) Encode(ctx context.Context, text string) (TokenStates, error) {
	payload := map[string]interface{}{
		"inputs":   text,
		"truncate": true,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return TokenStates{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/embed_all", bytes.NewReader(b))
	if err != nil {
		return TokenStates{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return TokenStates{}, fmt.Errorf("tei request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return TokenStates{}, fmt.Errorf("tei embed_all error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed [][][]float32
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return TokenStates{}, fmt.Errorf("failed to decode tei response: %w", err)
	}
	if len(parsed) != 1 || len(parsed[0]) == 0 {
		return TokenStates{}, errNoTokens
	}

	// TEI strips padding, every returned token is real.
	mask := make([]int, len(parsed[0]))
	for i := range mask {
		mask[i] = 1
	}
	return TokenStates{Hidden: parsed[0], Mask: mask}, nil
}

func (t *TEIEncoder) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
