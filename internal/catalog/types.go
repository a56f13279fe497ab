package catalog

import "context"

// Asset is a binary upstream payload (card image, set icon) relayed verbatim.
type Asset struct {
	ContentType string
	Body        []byte
}

// Cache stores card payloads by key. Implementations apply their own TTL.
// A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CardSource is satisfied by *clients.ScryfallClient.
type CardSource interface {
	NamedCard(ctx context.Context, name string) ([]byte, error)
	CardImage(ctx context.Context, name, version string) (*Asset, error)
}

// SetSource is satisfied by *clients.DraftClient.
type SetSource interface {
	Sets(ctx context.Context) ([]byte, error)
	SetIcon(ctx context.Context, code string) (*Asset, error)
}

// CacheRecorder is satisfied by *telemetry.Metrics.
type CacheRecorder interface {
	CacheLookup(hit bool)
}
