package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

// PopularTagsCache is a process-wide TTL cache over
// most_popular_place_revision_tags (spec.md §4.1, §9's cache
// coherency note): it caches the full, unfiltered tag-count set and
// re-derives every differently-bounded (min/max/pagination) call from
// that one snapshot, so a burst of requests with different bounds
// still shares one refresh. Modeled on the teacher's
// internal/rpc.QueryCache: a mutex-guarded snapshot plus a timestamp,
// refreshed lazily on the first stale read rather than on a ticker.
type PopularTagsCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	cachedAt time.Time
	all      []entities.TagCount
}

// NewPopularTagsCache returns a cache that refreshes from the
// repository at most once per ttl. A zero ttl disables caching: every
// call recomputes.
func NewPopularTagsCache(ttl time.Duration) *PopularTagsCache {
	return &PopularTagsCache{ttl: ttl}
}

// MostPopularPlaceRevisionTags answers params from the cached tag
// count snapshot, refreshing it from repo first if it is stale.
func (c *PopularTagsCache) MostPopularPlaceRevisionTags(ctx context.Context, repo repositories.PlaceRepo, params entities.MostPopularTagsParams) ([]entities.TagCount, error) {
	all, err := c.snapshot(ctx, repo)
	if err != nil {
		return nil, err
	}
	return boundTagCounts(all, params), nil
}

func (c *PopularTagsCache) snapshot(ctx context.Context, repo repositories.PlaceRepo) ([]entities.TagCount, error) {
	c.mu.RLock()
	if c.fresh() {
		cached := c.all
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh() {
		return c.all, nil
	}
	all, err := repo.MostPopularPlaceRevisionTags(ctx, entities.MostPopularTagsParams{})
	if err != nil {
		return nil, err
	}
	c.all = all
	c.cachedAt = time.Now()
	return all, nil
}

// fresh reports whether the cached snapshot is still within ttl. Must
// be called with c.mu held (read or write).
func (c *PopularTagsCache) fresh() bool {
	return c.ttl > 0 && !c.cachedAt.IsZero() && time.Since(c.cachedAt) < c.ttl
}

func boundTagCounts(all []entities.TagCount, params entities.MostPopularTagsParams) []entities.TagCount {
	out := make([]entities.TagCount, 0, len(all))
	for _, tc := range all {
		if params.MinCount != nil && tc.Count < *params.MinCount {
			continue
		}
		if params.MaxCount != nil && tc.Count > *params.MaxCount {
			continue
		}
		out = append(out, tc)
	}

	offset := params.Pagination.Offset
	if offset > uint64(len(out)) {
		return nil
	}
	out = out[offset:]
	if params.Pagination.Limit > 0 && uint64(len(out)) > params.Pagination.Limit {
		out = out[:params.Pagination.Limit]
	}
	return out
}
