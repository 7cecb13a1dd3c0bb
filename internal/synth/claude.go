// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/research-pipeline/internal/httputil"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// DefaultClaudeModel is used when no model is configured.
const DefaultClaudeModel = "claude-sonnet-4-20250514"

const claudeMaxTokens = 4096

// ClaudeGenerator calls the Claude Messages API.
type ClaudeGenerator struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Name returns "claude".
func (c *ClaudeGenerator) Name() string { return "claude" }

// Generate sends prompt as a single user message and returns the JSON
// document from the first text block.
func (c *ClaudeGenerator) Generate(ctx context.Context, prompt string) (json.RawMessage, error) {
	model := c.Model
	if model == "" {
		model = DefaultClaudeModel
	}
	body, err := json.Marshal(claudeRequest{
		Model:     model,
		MaxTokens: claudeMaxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}
	for _, block := range cResp.Content {
		if block.Type == "text" {
			return json.RawMessage(extractJSON(block.Text)), nil
		}
	}
	return nil, fmt.Errorf("no text content in Claude API response")
}

// extractJSON returns the outermost JSON object in text, tolerating prose
// or code fences around it.
func extractJSON(text string) string {
	text = stripFences(text)
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}
