// Package index defines the search-index seam: the read-side views a
// place or event landing page needs that the transactional sqlite
// store is not shaped to answer cheaply (bounding-box scans, free-text
// relevance, tag intersection). Implementations are rebuilt from the
// store on demand and kept current by the flow layer calling
// AddOrUpdate/RemoveByID after each write.
package index

import "github.com/geoplaces/core/internal/entities"

// StatusFilter is a three-state review-status filter:
//   - nil: no filter, every status is matched.
//   - non-nil, empty slice: visible-only, i.e. Created or Confirmed.
//   - non-nil, non-empty slice: match any of the listed statuses.
type StatusFilter *[]entities.ReviewStatus

// NoStatusFilter returns a filter that matches every review status.
func NoStatusFilter() StatusFilter { return nil }

// VisibleOnly returns a filter that matches only Created and
// Confirmed revisions.
func VisibleOnly() StatusFilter {
	empty := []entities.ReviewStatus{}
	return &empty
}

// MatchAny returns a filter that matches any of the given statuses.
func MatchAny(statuses ...entities.ReviewStatus) StatusFilter {
	return &statuses
}

// Matches reports whether status passes f.
func (f StatusFilter) Matches(status entities.ReviewStatus) bool {
	if f == nil {
		return true
	}
	if len(*f) == 0 {
		return status.Visible()
	}
	for _, s := range *f {
		if s == status {
			return true
		}
	}
	return false
}

// Query is the shared shape of a place or event index lookup.
type Query struct {
	// IncludeBbox, when set, restricts results to points inside it.
	IncludeBbox *entities.MapBbox
	// ExcludeBbox, when set, drops results inside it. Used for the
	// second pass of a two-pass geographic search to avoid returning
	// the same item twice.
	ExcludeBbox *entities.MapBbox

	// Categories restricts results to items carrying any of these
	// category tags (for events, the synthetic "event" category is
	// always present and matched via this field too).
	Categories []string
	// IDs, when non-empty, restricts results to these specific ids.
	IDs []entities.Id
	// HashTags restricts results to items carrying any of these exact
	// tags.
	HashTags []string
	// TextTags are free-text tokens matched the same way HashTags are
	// (exact tag match), distinct from Text's
	// full-text scoring.
	TextTags []string
	// Text, when non-empty, is matched against title/description with
	// relevance scoring that dominates ranking when present.
	Text string

	// StartAfter/StartBefore bound an event's start timestamp
	// (inclusive). Unused by the place index.
	StartAfter  *entities.Timestamp
	StartBefore *entities.Timestamp
	// EndAfter/EndBefore bound an event's end timestamp (inclusive).
	EndAfter  *entities.Timestamp
	EndBefore *entities.Timestamp

	// Status filters by review status. Unused by the event index,
	// which has no review-status concept.
	Status StatusFilter

	// Limit caps the number of results returned. Zero means
	// unlimited.
	Limit uint64
}
