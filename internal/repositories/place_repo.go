// Package repositories declares the per-aggregate persistence
// contracts. No aggregate is loaded or mutated by a repository other
// than its own; cross-aggregate composition belongs to flows.
package repositories

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
)

// PlaceWithStatus pairs a flattened Place with its current review
// status, the shape most read paths return.
type PlaceWithStatus struct {
	Place  entities.Place
	Status entities.ReviewStatus
}

// ActivityLogEntry records one administrative action against a place
// (a review-status transition).
type ActivityLogEntry struct {
	Status   entities.ReviewStatus
	Activity entities.Activity
	Context  *string
	Comment  *string
}

// RecentlyChangedEntry is one row returned by recently-changed-places.
type RecentlyChangedEntry struct {
	Place  entities.Place
	Status entities.ReviewStatus
	Log    []ActivityLogEntry
}

// PlaceRepo is the persistence contract for the versioned place
// aggregate.
type PlaceRepo interface {
	GetPlace(ctx context.Context, id entities.Id) (PlaceWithStatus, error)
	GetPlaces(ctx context.Context, ids []entities.Id) ([]PlaceWithStatus, error)

	AllPlaces(ctx context.Context) ([]PlaceWithStatus, error)
	CountPlaces(ctx context.Context) (int, error)

	RecentlyChangedPlaces(ctx context.Context, params entities.RecentlyChangedEntriesParams) ([]RecentlyChangedEntry, error)

	MostPopularPlaceRevisionTags(ctx context.Context, params entities.MostPopularTagsParams) ([]entities.TagCount, error)

	// ReviewPlaces atomically transitions every listed place's current
	// revision to status, appending a log entry, and returns the count
	// of places actually transitioned (places already at status are
	// skipped).
	ReviewPlaces(ctx context.Context, ids []entities.Id, status entities.ReviewStatus, activity ActivityLogEntry) (int, error)

	// CreateOrUpdatePlace inserts the root and revision 0 if no place
	// with place.ID exists; otherwise requires place.Revision ==
	// current+1 (else ErrInvalidVersion) and appends a Created
	// review-status log entry for the new revision.
	CreateOrUpdatePlace(ctx context.Context, place entities.Place) error

	GetPlaceHistory(ctx context.Context, id entities.Id) (entities.PlaceHistory, error)

	LoadPlaceRevision(ctx context.Context, id entities.Id, rev entities.Revision) (PlaceWithStatus, error)
}
