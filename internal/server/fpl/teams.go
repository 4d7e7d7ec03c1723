package fpl

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/cachex"
	"github.com/dmitrijs2005/fplassistant/internal/logging"
)

// TeamSource loads the id -> name map. *Client implements it.
type TeamSource interface {
	Teams(ctx context.Context) (map[int]string, error)
}

// TeamNames caches team names for a TTL and serves the previous map when a
// refresh fails.
type TeamNames struct {
	src   TeamSource
	cache *cachex.Cache[map[int]string]
	log   logging.Logger
}

func NewTeamNames(src TeamSource, ttl time.Duration, log logging.Logger, opts ...cachex.Option) *TeamNames {
	return &TeamNames{
		src:   src,
		cache: cachex.New[map[int]string](ttl, opts...),
		log:   log,
	}
}

// Lookup returns the cached map, refreshing it when older than the TTL.
// The returned map is shared and must not be modified.
func (t *TeamNames) Lookup(ctx context.Context) (map[int]string, error) {
	names, stale, err := t.cache.Load(ctx, t.src.Teams)
	if stale {
		t.log.Warn(ctx, "serving stale team names", "error", err)
		return names, nil
	}
	if err != nil {
		return nil, err
	}
	return names, nil
}
