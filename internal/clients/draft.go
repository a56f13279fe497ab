package clients

import (
	"context"
	"net/http"
	"net/url"

	"mtga-analyzer/backend/internal/catalog"
	"mtga-analyzer/backend/internal/config"
)

const draftName = "draft-assistant"

// DraftClient reads the set catalog from the draft-assistant service.
// Requests are neither paced nor retried.
type DraftClient struct {
	*upstream
}

// NewDraftClient constructs a DraftClient. No request is sent at
// construction time.
func NewDraftClient(cfg config.UpstreamConfig, client *http.Client, metrics UpstreamRecorder) *DraftClient {
	return &DraftClient{
		upstream: newUpstream(upstreamOptions{
			Name:         draftName,
			BaseURL:      cfg.DraftURL,
			UserAgent:    cfg.UserAgent,
			MaxAttempts:  1,
			MaxBodyBytes: cfg.MaxBodyBytes,
			Breaker:      NewCircuitBreaker(draftName),
			HTTPClient:   client,
			Metrics:      metrics,
		}),
	}
}

// Sets returns the set list JSON.
func (c *DraftClient) Sets(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, "/sets", nil, "application/json")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// SetIcon returns the icon of the set identified by code.
func (c *DraftClient) SetIcon(ctx context.Context, code string) (*catalog.Asset, error) {
	resp, err := c.get(ctx, "/sets/"+url.PathEscape(code)+"/icon", nil, "")
	if err != nil {
		return nil, err
	}
	return &catalog.Asset{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}
