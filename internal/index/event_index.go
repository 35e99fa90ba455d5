package index

import "github.com/geoplaces/core/internal/entities"

// EventCategory is the synthetic tag every indexed event carries in
// addition to its own tags, so a category-only query ("show me
// events") can match without a separate code path.
const EventCategory = "event"

// EventDoc is the denormalized view of an event the index stores.
type EventDoc struct {
	ID          entities.Id
	Start       entities.Timestamp
	End         *entities.Timestamp
	Pos         *entities.MapPoint
	Title       string
	Description string
	Tags        []string
}

// EventResult pairs a matched document with its relevance score.
type EventResult struct {
	Doc   EventDoc
	Score float64
}

// EventIndex is the read-side search view over events.
type EventIndex interface {
	AddOrUpdate(doc EventDoc) error
	RemoveByID(id entities.Id) error
	FlushIndex() error
	// Query runs q against the index, returning results ranked by
	// relevance (when q.Text is set) then the deterministic tie-break
	// of start ascending, ID ascending.
	Query(q Query) ([]EventResult, error)
}
