package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to a local Ollama instance. It backs the semantic pass of
// field extraction: for each invoice field it asks the model for a single
// candidate value as strict JSON.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type fieldAnswer struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

func (c *Client) ExtractField(ctx context.Context, text, field string) (string, bool, error) {
	respText, err := c.generateJSON(ctx, buildFieldPrompt(text, field))
	if err != nil {
		return "", false, wrapTemporaryIfNeeded("ollama.ExtractField", err)
	}

	var answer fieldAnswer
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &answer); err != nil {
		return "", false, fmt.Errorf("parse field json: %w", err)
	}

	value := strings.TrimSpace(answer.Value)
	if !answer.Found || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
