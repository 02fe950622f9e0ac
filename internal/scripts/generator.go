package scripts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidParams indicates the generation parameters failed validation.
	ErrInvalidParams = errors.New("invalid script parameters")
	// ErrUpstream indicates the chat-completion API failed or returned an
	// unparseable response.
	ErrUpstream = errors.New("script generation upstream error")
)

const wordsPerMinute = 200

// Script is one generated ad script.
type Script struct {
	Script string `json:"script"`
}

// Params describe the ad copy to generate.
type Params struct {
	ProductName        string
	ProductDescription string
	TimeInSeconds      int
	SelectedTones      []string
}

// Generator proxies a third-party chat-completion API to produce UGC ad
// scripts. The HTTP client and timeout are injectable for tests.
type Generator struct {
	APIKey  string
	Model   string
	BaseURL string
	Referer string
	Timeout time.Duration
	Client  *http.Client
}

// NewGenerator constructs a generator targeting the configured API.
func NewGenerator(apiKey, model, baseURL string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		Timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate produces exactly three scripts, one per selected tone, each sized
// for the requested duration at 200 words per minute.
func (g *Generator) Generate(ctx context.Context, params Params) ([]Script, error) {
	if strings.TrimSpace(params.ProductName) == "" || strings.TrimSpace(params.ProductDescription) == "" || params.TimeInSeconds <= 0 {
		return nil, fmt.Errorf("%w: product name, description, and duration are required", ErrInvalidParams)
	}
	if len(params.SelectedTones) != 3 {
		return nil, fmt.Errorf("%w: exactly 3 tones must be selected", ErrInvalidParams)
	}

	body, err := json.Marshal(chatRequest{
		Model:     g.Model,
		Messages:  []chatMessage{{Role: "system", Content: buildPrompt(params)}},
		MaxTokens: 2500,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if g.Referer != "" {
		req.Header.Set("HTTP-Referer", g.Referer)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(payload, &chat); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: no content in response", ErrUpstream)
	}

	scripts, err := parseScripts(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return scripts, nil
}

var scriptMatcher = regexp.MustCompile(`"script":\s*"([^"]+)"`)

// parseScripts accepts either a direct JSON array of {script} objects or a
// markdown-fenced reply from which scripts are extracted by pattern.
func parseScripts(content string) ([]Script, error) {
	var scripts []Script
	if err := json.Unmarshal([]byte(content), &scripts); err == nil && len(scripts) > 0 {
		return scripts, nil
	}

	matches := scriptMatcher.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: could not parse scripts from response", ErrUpstream)
	}

	scripts = make([]Script, 0, len(matches))
	for _, match := range matches {
		scripts = append(scripts, Script{Script: match[1]})
	}
	return scripts, nil
}

func buildPrompt(params Params) string {
	wordCount := int(math.Round(float64(params.TimeInSeconds) / 60 * wordsPerMinute))

	return fmt.Sprintf(`Generate 3 engaging and fun UGC scripts in English for a product called %q.
Each script must be exactly %d words long—not one word more, not one word less.

Each script should match the tone provided:
1. Tone: %s
2. Tone: %s
3. Tone: %s

Ensure the script follows a natural, conversational flow without using explicit headers like "Hook", "Problem", "Solution", etc.
Product Description: %q

Provide exactly 3 scripts in this JSON format:
[
  {"script": "Script 1 (with tone: %s)" },
  {"script": "Script 2 (with tone: %s)" },
  {"script": "Script 3 (with tone: %s)" }
]

Each script should reflect the specified tone strongly and consistently.
If a script is too short, expand naturally with relevant details. If it is too long, condense without losing meaning.
Make sure all scripts follow the exact %d-word requirement.`,
		params.ProductName, wordCount,
		params.SelectedTones[0], params.SelectedTones[1], params.SelectedTones[2],
		params.ProductDescription,
		params.SelectedTones[0], params.SelectedTones[1], params.SelectedTones[2],
		wordCount)
}
