// Package ai holds the thin clients for the cloud AI collaborators: the
// completion model used for summarization and the speech-to-text providers.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/pkg/config"
)

// CompletionClient is a minimal client for the text completion API used for
// summarization and summary styling
type CompletionClient struct {
	baseURL   string
	apiKey    string
	modelURI  string
	maxTokens int
	denyList  []string
	client    *http.Client
	logger    *zap.Logger
}

// NewCompletionClient creates a completion client from config
func NewCompletionClient(cfg *config.LLMConfig, logger *zap.Logger) *CompletionClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	deny := make([]string, 0, len(cfg.DenyList))
	for _, phrase := range cfg.DenyList {
		if p := strings.ToLower(strings.TrimSpace(phrase)); p != "" {
			deny = append(deny, p)
		}
	}
	return &CompletionClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		modelURI:  cfg.ModelURI,
		maxTokens: cfg.MaxTokens,
		denyList:  deny,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type completionMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type completionRequest struct {
	ModelURI          string              `json:"modelUri"`
	CompletionOptions completionOptions   `json:"completionOptions"`
	Messages          []completionMessage `json:"messages"`
}

type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
		} `json:"alternatives"`
	} `json:"result"`
}

// Complete sends input with a system instruction to the completion API. A
// returned empty string with nil error means the provider declined: either
// an empty alternative list or a response matching the deny-list of stock
// refusal phrases.
func (c *CompletionClient) Complete(ctx context.Context, input, systemPrompt string, temperature float64) (string, error) {
	reqBody := completionRequest{
		ModelURI: c.modelURI,
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: temperature,
			MaxTokens:   c.maxTokens,
		},
		Messages: []completionMessage{
			{Role: "system", Text: systemPrompt},
			{Role: "user", Text: input},
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/foundationModels/v1/completion"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("completion api returned status %d", resp.StatusCode)
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Result.Alternatives) == 0 {
		return "", nil
	}

	text := cr.Result.Alternatives[0].Message.Text
	if c.declined(text) {
		c.logger.Info("completion matched deny-list, treating as declined")
		return "", nil
	}
	return text, nil
}

// declined reports whether the response contains a stock refusal phrase
func (c *CompletionClient) declined(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range c.denyList {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
