// Package store implements the HTTP client for the external summary store
// that persists each session's rolling summary.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/internal/domain/entities"
	"github.com/archipelago-team/meeting-scribe/pkg/config"
)

// Client talks to the summary store service
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a summary store client from config
func NewClient(cfg *config.StoreConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Init registers a fresh active record for a started session
func (c *Client) Init(ctx context.Context, sessionID string, platform entities.Platform, detailLevel string) error {
	body := map[string]string{
		"summ_id":      sessionID,
		"platform":     string(platform),
		"detalization": detailLevel,
	}
	return c.post(ctx, "/summaries/init", body, nil)
}

// Get fetches the record for a session. A missing record returns nil
// without error.
func (c *Client) Get(ctx context.Context, sessionID string) (*entities.SummaryRecord, error) {
	var record entities.SummaryRecord
	found := false

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/summaries/"+sessionID, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.setHeaders(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("summary store returned status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("summary store returned status %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return backoff.Permanent(err)
		}
		found = true
		return nil
	}

	if err := backoff.Retry(op, c.retryPolicy(ctx)); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

// UpdateText persists a new rolling summary for the session
func (c *Client) UpdateText(ctx context.Context, sessionID, text string, platform entities.Platform, detailLevel string) error {
	body := map[string]string{
		"text":         text,
		"platform":     string(platform),
		"detalization": detailLevel,
	}
	return c.post(ctx, "/summaries/"+sessionID+"/text", body, nil)
}

// UpdateRoleText persists a styled summary variant for the session. The
// store rejects roles outside the allow-list, so the check happens here
// before the request goes out.
func (c *Client) UpdateRoleText(ctx context.Context, sessionID, text, role string) error {
	if !entities.ValidRole(role) {
		return fmt.Errorf("unknown summary role %q", role)
	}
	body := map[string]string{
		"text": text,
		"role": role,
	}
	return c.post(ctx, "/summaries/"+sessionID+"/role_text", body, nil)
}

// Finish marks the record inactive
func (c *Client) Finish(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/summaries/"+sessionID+"/finish", map[string]string{}, nil)
}

// ListActive returns all records still marked active, used at process start
// to reconcile stale records
func (c *Client) ListActive(ctx context.Context) ([]entities.SummaryRecord, error) {
	var records []entities.SummaryRecord

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/summaries/active", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.setHeaders(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("summary store returned status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("summary store returned status %d", resp.StatusCode))
		}
		return json.NewDecoder(resp.Body).Decode(&records)
	}

	if err := backoff.Retry(op, c.retryPolicy(ctx)); err != nil {
		return nil, err
	}
	return records, nil
}

// retryPolicy caps retries for read paths. Writes are not retried here: the
// scheduler's next tick is the retry mechanism for summary persistence.
func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("summary store returned status %d for %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
