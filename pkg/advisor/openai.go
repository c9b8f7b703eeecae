package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	httputil "github.com/peakform/coachrelay/pkg/infrastructure/http"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-5.1-mini"
)

// OpenAI calls an OpenAI-compatible responses endpoint with a fixed model
// identifier and no sampling parameters.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		model:   defaultOpenAIModel,
		baseURL: defaultOpenAIBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL overrides the API base URL. Used by tests.
func (o *OpenAI) WithBaseURL(u string) *OpenAI {
	o.baseURL = u
	return o
}

func (o *OpenAI) Advise(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"model": o.model,
		"input": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/responses", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return "", err
	}

	var result struct {
		OutputText string `json:"output_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	text := strings.TrimSpace(result.OutputText)
	if text == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}
