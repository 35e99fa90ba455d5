package flows

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/index"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/usecases"
)

// GetPlace loads id and filters it through the clearance engine, so a
// direct lookup of a place pending clearance is invisible the same
// way a search result would be (spec.md §8 scenario 3).
func (p *Places) GetPlace(ctx context.Context, id entities.Id) (*repositories.PlaceWithStatus, error) {
	withStatus, err := p.Repo.GetPlace(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.filterRead(ctx, withStatus)
}

// GetPlaces loads ids and filters the results through the clearance
// engine.
func (p *Places) GetPlaces(ctx context.Context, ids []entities.Id) ([]repositories.PlaceWithStatus, error) {
	all, err := p.Repo.GetPlaces(ctx, ids)
	if err != nil {
		return nil, err
	}
	if p.Clearance == nil {
		return all, nil
	}
	return p.Clearance.FilterPlaces(ctx, all)
}

func (p *Places) filterRead(ctx context.Context, withStatus repositories.PlaceWithStatus) (*repositories.PlaceWithStatus, error) {
	if p.Clearance == nil {
		return &withStatus, nil
	}
	return p.Clearance.FilterPlace(ctx, withStatus)
}

// RecentlyChangedPlaces answers recently-changed-places bounded to the
// implementation's 1000-entry/100-day window (spec.md §4.1).
func (p *Places) RecentlyChangedPlaces(ctx context.Context, params entities.RecentlyChangedEntriesParams, now entities.Timestamp) ([]repositories.RecentlyChangedEntry, error) {
	return usecases.RecentlyChangedPlaces(ctx, p.Repo, params, now)
}

// MostPopularPlaceRevisionTags answers most-popular-place-revision-tags
// from the process-wide TTL cache (spec.md §4.1, §9), or directly from
// the repo when no cache is wired.
func (p *Places) MostPopularPlaceRevisionTags(ctx context.Context, params entities.MostPopularTagsParams) ([]entities.TagCount, error) {
	if p.PopularTags == nil {
		return p.Repo.MostPopularPlaceRevisionTags(ctx, params)
	}
	return p.PopularTags.MostPopularPlaceRevisionTags(ctx, p.Repo, params)
}

// SearchPlaces runs the two-pass geographic search over the place
// index (spec.md §4.5). The index itself only ever holds
// clearance-legal documents (every write path indexes through
// indexPlaceRespectingClearance), so no further filtering is needed
// here.
func (p *Places) SearchPlaces(ctx context.Context, visibleBbox entities.MapBbox, q index.Query, limit uint64) (visible, invisible []index.PlaceResult, err error) {
	if p.Index == nil {
		return nil, nil, nil
	}
	return index.SearchPlaces(p.Index, visibleBbox, q, limit)
}
