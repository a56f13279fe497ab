package clients

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"mtga-analyzer/backend/internal/catalog"
	"mtga-analyzer/backend/internal/config"
)

const scryfallName = "scryfall"

// ScryfallClient looks up cards by exact name on the Scryfall API. All
// requests share one token bucket so consecutive calls are spaced by at
// least the configured minimum interval.
type ScryfallClient struct {
	*upstream
}

// NewScryfallClient constructs a ScryfallClient. No request is sent at
// construction time.
func NewScryfallClient(cfg config.UpstreamConfig, client *http.Client, metrics UpstreamRecorder) *ScryfallClient {
	var limiter *rate.Limiter
	if cfg.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return &ScryfallClient{
		upstream: newUpstream(upstreamOptions{
			Name:              scryfallName,
			BaseURL:           cfg.ScryfallURL,
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       cfg.MaxAttempts,
			DefaultRetryAfter: cfg.DefaultRetryAfter,
			MaxRetryAfter:     cfg.Timeout,
			MaxBodyBytes:      cfg.MaxBodyBytes,
			Limiter:           limiter,
			Breaker:           NewCircuitBreaker(scryfallName),
			HTTPClient:        client,
			Metrics:           metrics,
		}),
	}
}

// NamedCard returns the card JSON for an exact name match.
func (c *ScryfallClient) NamedCard(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.get(ctx, "/cards/named", url.Values{"exact": {name}}, "application/json")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// CardImage follows Scryfall's image redirect for the named card and returns
// the image bytes with their content type.
func (c *ScryfallClient) CardImage(ctx context.Context, name, version string) (*catalog.Asset, error) {
	q := url.Values{
		"exact":   {name},
		"format":  {"image"},
		"version": {version},
	}
	resp, err := c.get(ctx, "/cards/named", q, "image/*")
	if err != nil {
		return nil, err
	}
	return &catalog.Asset{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}
