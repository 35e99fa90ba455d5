package usecases

import (
	"context"
	"time"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

// MaxRecentlyChangedLimit is the implementation's page-size ceiling
// for recently_changed_places (spec.md §4.1).
const MaxRecentlyChangedLimit = 1000

// MaxRecentlyChangedWindow is the implementation's ceiling on how far
// back (since, until] may span (spec.md §4.1).
const MaxRecentlyChangedWindow = 100 * 24 * time.Hour

// BoundRecentlyChangedParams clamps params to the implementation
// limits before it ever reaches the repository: the page size never
// exceeds MaxRecentlyChangedLimit, and Since is pulled forward so the
// window never exceeds MaxRecentlyChangedWindow ending at Until (or
// now, when Until is unset).
func BoundRecentlyChangedParams(params entities.RecentlyChangedEntriesParams, now entities.Timestamp) entities.RecentlyChangedEntriesParams {
	until := now
	if params.Until != nil {
		until = *params.Until
	}
	earliestAllowed := entities.Timestamp(int64(until) - MaxRecentlyChangedWindow.Milliseconds())

	since := params.Since
	if since == nil || int64(*since) < int64(earliestAllowed) {
		since = &earliestAllowed
	}

	limit := params.Pagination.Limit
	if limit == 0 || limit > MaxRecentlyChangedLimit {
		limit = MaxRecentlyChangedLimit
	}

	return entities.RecentlyChangedEntriesParams{
		Since:      since,
		Until:      params.Until,
		Pagination: entities.Pagination{Offset: params.Pagination.Offset, Limit: limit},
	}
}

// RecentlyChangedPlaces bounds params (see BoundRecentlyChangedParams)
// and answers it from repo, enforcing the 1000-entry/100-day
// implementation limit at the usecase layer rather than trusting the
// repository to do it.
func RecentlyChangedPlaces(ctx context.Context, repo repositories.PlaceRepo, params entities.RecentlyChangedEntriesParams, now entities.Timestamp) ([]repositories.RecentlyChangedEntry, error) {
	return repo.RecentlyChangedPlaces(ctx, BoundRecentlyChangedParams(params, now))
}
