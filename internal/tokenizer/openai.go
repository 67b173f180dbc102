package tokenizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quillfin/quill/internal/common"
)

const tokenizeSystemPrompt = `You are a strict merchant-name extractor for bank transaction descriptions.
For each numbered input line, return the core merchant name with banking noise removed
(SEPA tags, card/terminal ids, IBANs, dates, reference numbers).
You MUST respond with ONLY a valid JSON object of the form {"tokens": ["...", "..."]},
one token per input line, in input order. Do not add commentary.`

// openAIClient implements the Client interface against any
// OpenAI-compatible chat completions endpoint.
type openAIClient struct {
	httpClient *http.Client
	fallback   *HeuristicCleaner
	baseURL    string
	apiKey     string
	model      string
}

// newOpenAIClient creates a new OpenAI-compatible tokenizer client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: tokenizer API key is required", common.ErrMissingConfig)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &openAIClient{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		model:    model,
		fallback: NewHeuristicCleaner(),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// TokenizeBatch sends one batch to the model. Individual garbled rows
// degrade to heuristic cleaning; only transport-level failures surface
// as errors so the caller can degrade the whole batch.
func (c *openAIClient) TokenizeBatch(ctx context.Context, descriptions []string) ([]string, error) {
	if len(descriptions) == 0 {
		return []string{}, nil
	}

	var input strings.Builder
	for i, d := range descriptions {
		fmt.Fprintf(&input, "%d: %s\n", i, d)
	}

	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": tokenizeSystemPrompt},
			{"role": "user", "content": input.String()},
		},
		"temperature": 0.0,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", common.ErrTokenizerUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", common.ErrTokenizerUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API error (status %d): %s", common.ErrTokenizerUnavailable, resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	tokens, err := c.parseTokens(response.Choices[0].Message.Content, len(descriptions))
	if err != nil {
		// The transport worked but the model misbehaved; clean
		// heuristically rather than failing the batch.
		slog.Warn("Tokenizer returned malformed output, using heuristic cleaning", "error", err)
		return c.fallback.TokenizeBatch(ctx, descriptions)
	}

	// Per-row garbage tolerance: an empty token from the model falls
	// back to the heuristic for that row only.
	for i, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			tokens[i] = Clean(descriptions[i])
		}
	}

	return tokens, nil
}

// parseTokens extracts the token list, tolerating markdown fences around
// the JSON payload.
func (c *openAIClient) parseTokens(content string, want int) ([]string, error) {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			content = content[start : end+1]
		}
	}

	var parsed struct {
		Tokens []string `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("invalid tokenizer JSON: %w", err)
	}
	if len(parsed.Tokens) != want {
		return nil, fmt.Errorf("token count mismatch: want %d, got %d", want, len(parsed.Tokens))
	}
	return parsed.Tokens, nil
}
