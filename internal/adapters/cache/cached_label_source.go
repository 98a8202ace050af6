package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/domain/providers"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
)

// CachedLabelSource wraps a LabelSource with a read-through cache. Only found
// labels are stored, so a miss is retried on the next run.
type CachedLabelSource struct {
	source providers.LabelSource
	cache  providers.CacheProvider
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedLabelSource creates a new cached label source
func NewCachedLabelSource(source providers.LabelSource, cache providers.CacheProvider, ttl time.Duration, logger zerolog.Logger) providers.LabelSource {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedLabelSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "label_cache").Logger(),
	}
}

func labelCacheKey(brandName string) string {
	return fmt.Sprintf("label:%s", strings.ToLower(strings.TrimSpace(brandName)))
}

// SearchLabel returns the cached label for brandName, falling back to the wrapped source
func (c *CachedLabelSource) SearchLabel(ctx context.Context, brandName string) (*entities.DrugLabel, error) {
	key := labelCacheKey(brandName)

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var label entities.DrugLabel
		if err := json.Unmarshal(cached, &label); err == nil {
			observability.RecordLabelLookup(observability.LabelCached)
			return &label, nil
		}
		c.logger.Warn().Err(err).Str("drug", brandName).Msg("discarding undecodable cached label")
	case !errors.Is(err, providers.ErrCacheMiss):
		c.logger.Warn().Err(err).Str("drug", brandName).Msg("label cache unavailable, bypassing")
	}

	label, err := c.source.SearchLabel(ctx, brandName)
	if err != nil || label == nil {
		return label, err
	}

	if data, err := json.Marshal(label); err == nil {
		if err := c.cache.Set(ctx, key, data, int(c.ttl.Seconds())); err != nil {
			c.logger.Warn().Err(err).Str("drug", brandName).Msg("failed to cache label")
		}
	}
	return label, nil
}
