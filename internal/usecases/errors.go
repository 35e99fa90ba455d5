// Package usecases implements single-aggregate validated operations:
// input validation, authorization-independent business rules, and the
// prepare/store split the original Rust implementation uses for
// multi-step writes (see rate_place.go). Cross-aggregate composition
// (clearance, index, notifications) belongs to internal/flows.
package usecases

import "errors"

// Sentinel errors for parameter validation, mirroring the Rust
// original's Error variants (EmptyComment, RatingValue, ...).
var (
	ErrEmptyComment   = errors.New("comment must not be empty")
	ErrInvalidRating  = errors.New("rating value out of range")
	ErrEmptyTitle     = errors.New("title must not be empty")
	ErrInvalidTags    = errors.New("tag list contains an invalid tag")
	ErrInvalidBbox    = errors.New("bounding box is invalid")
	ErrInvalidVersion = errors.New("place revision must be current+1")

	ErrEndDateBeforeStart = errors.New("event end date is before its start date")
	ErrEmptyIdList        = errors.New("id list must not be empty")
	ErrEmptyEmail         = errors.New("user email must not be empty")

	// ErrModeratedTag indicates an attempt to add or remove a
	// moderated tag the caller's organization does not own and that
	// organization has not opened up via AllowAdd/AllowRemove.
	ErrModeratedTag = errors.New("tag is moderated by another organization")
)
