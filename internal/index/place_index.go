package index

import "github.com/geoplaces/core/internal/entities"

// PlaceDoc is the denormalized view of a place the index stores:
// enough to filter and rank a search without touching the store.
type PlaceDoc struct {
	ID          entities.Id
	Status      entities.ReviewStatus
	Pos         entities.MapPoint
	Title       string
	Description string
	Tags        []string
	Ratings     entities.AvgRatings
}

// PlaceResult pairs a matched document with its relevance score.
type PlaceResult struct {
	Doc   PlaceDoc
	Score float64
}

// PlaceIndex is the read-side search view over places. Implementations
// are not transactional: callers that need read-your-writes ordering
// must call AddOrUpdate immediately after the write that changed doc
// commits.
type PlaceIndex interface {
	// AddOrUpdate upserts doc by ID.
	AddOrUpdate(doc PlaceDoc) error
	// RemoveByID drops id from the index, if present.
	RemoveByID(id entities.Id) error
	// FlushIndex discards every indexed document.
	FlushIndex() error
	// Query runs q against the index, returning results ranked by
	// relevance (when q.Text is set) then the deterministic tie-break
	// of total rating descending, ID ascending.
	Query(q Query) ([]PlaceResult, error)
}
