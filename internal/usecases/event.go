package usecases

import (
	"strings"

	"github.com/geoplaces/core/internal/entities"
)

// ValidateEventInput normalizes and validates an Event before it is
// handed to EventRepo.CreateEvent/UpdateEvent: title must be
// non-empty, end (if present) must not precede start, and tags must
// normalize cleanly.
func ValidateEventInput(event entities.Event) (entities.Event, error) {
	title := strings.TrimSpace(event.Title)
	if title == "" {
		return entities.Event{}, ErrEmptyTitle
	}
	event.Title = title

	if event.End != nil && *event.End < event.Start {
		return entities.Event{}, ErrEndDateBeforeStart
	}

	tags, ok := entities.NormalizeTags(event.Tags)
	if !ok {
		return entities.Event{}, ErrInvalidTags
	}
	event.Tags = tags

	if event.Location != nil && !event.Location.Pos.IsValid() {
		return entities.Event{}, ErrInvalidBbox
	}

	return event, nil
}
