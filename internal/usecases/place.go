package usecases

import (
	"strings"

	"github.com/geoplaces/core/internal/entities"
)

// ValidatePlaceInput normalizes and validates a Place before it is
// handed to PlaceRepo.CreateOrUpdatePlace: title must be non-empty,
// tags must normalize cleanly, opening hours (if present) must parse,
// and the location must be a valid coordinate.
func ValidatePlaceInput(place entities.Place) (entities.Place, error) {
	title := strings.TrimSpace(place.Title)
	if title == "" {
		return entities.Place{}, ErrEmptyTitle
	}
	place.Title = title

	tags, ok := entities.NormalizeTags(place.Tags)
	if !ok {
		return entities.Place{}, ErrInvalidTags
	}
	place.Tags = tags

	if !place.Location.Pos.IsValid() {
		return entities.Place{}, ErrInvalidBbox
	}

	if place.OpeningHours != nil {
		parsed, ok := entities.ParseOpeningHours(string(*place.OpeningHours))
		if !ok {
			return entities.Place{}, ErrInvalidBbox
		}
		place.OpeningHours = &parsed
	}

	return place, nil
}
