package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

const (
	defaultImageType = "image/jpeg"
	defaultIconType  = "image/svg+xml"
)

// ImageVersions lists the image renditions Scryfall serves.
var ImageVersions = []string{"small", "normal", "large", "png", "art_crop", "border_crop"}

// Options tunes a Service. Zero values are usable.
type Options struct {
	// DefaultImageVersion is used when a card image request names no version.
	DefaultImageVersion string
	Metrics             CacheRecorder
}

// Service answers catalog lookups: card data through the cache, images and
// set data straight from their upstreams.
type Service struct {
	cards        CardSource
	sets         SetSource
	cache        Cache
	metrics      CacheRecorder
	imageVersion string
}

// New constructs a Service. cache may be nil to disable caching.
func New(cards CardSource, sets SetSource, cache Cache, opts Options) *Service {
	version := opts.DefaultImageVersion
	if version == "" {
		version = "png"
	}
	return &Service{
		cards:        cards,
		sets:         sets,
		cache:        cache,
		metrics:      opts.Metrics,
		imageVersion: version,
	}
}

// CardKey is the cache key for a card looked up within a set.
func CardKey(name, set string) string {
	return name + "-" + set
}

// Card returns the Scryfall JSON for the card named exactly name. set scopes
// the cache entry only; the upstream lookup is by name. Cache failures
// degrade to a miss and never fail the lookup.
func (s *Service) Card(ctx context.Context, name, set string) ([]byte, error) {
	if name == "" || set == "" {
		return nil, fmt.Errorf("%w: cardName and set are required", ErrMissingParam)
	}

	key := CardKey(name, set)
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "card cache read failed", "key", key, "err", err)
		}
		if ok {
			s.recordLookup(true)
			return data, nil
		}
		s.recordLookup(false)
	}

	data, err := s.cards.NamedCard(ctx, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data); err != nil {
			slog.WarnContext(ctx, "card cache write failed", "key", key, "err", err)
		}
	}
	return data, nil
}

// CardImage returns the image rendition of the named card. An empty version
// selects the configured default.
func (s *Service) CardImage(ctx context.Context, name, version string) (*Asset, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: cardName is required", ErrMissingParam)
	}
	if version == "" {
		version = s.imageVersion
	}
	if !slices.Contains(ImageVersions, version) {
		return nil, fmt.Errorf("%w: version %q", ErrInvalidParam, version)
	}

	asset, err := s.cards.CardImage(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if asset.ContentType == "" {
		asset.ContentType = defaultImageType
	}
	return asset, nil
}

// Sets returns the draft-assistant set list JSON.
func (s *Service) Sets(ctx context.Context) ([]byte, error) {
	return s.sets.Sets(ctx)
}

// SetIcon returns the icon for the set with the given code.
func (s *Service) SetIcon(ctx context.Context, code string) (*Asset, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: set code is required", ErrMissingParam)
	}

	asset, err := s.sets.SetIcon(ctx, code)
	if err != nil {
		return nil, err
	}
	if asset.ContentType == "" {
		asset.ContentType = defaultIconType
	}
	return asset, nil
}

func (s *Service) recordLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.CacheLookup(hit)
	}
}
