package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geoplaces/core/internal/entities"
)

func TestValidatePlaceInput(t *testing.T) {
	validLoc := entities.Location{Pos: entities.NewMapPoint(48.78, 9.18)}

	tests := []struct {
		name      string
		place     entities.Place
		wantErr   error
		wantTitle string
		wantTags  []string
	}{
		{
			name:      "trims title and tags",
			place:     entities.Place{Title: "  Cafe  ", Tags: []string{" food ", "shop"}, Location: validLoc},
			wantTitle: "Cafe",
			wantTags:  []string{"food", "shop"},
		},
		{
			name:    "rejects empty title",
			place:   entities.Place{Title: "   ", Location: validLoc},
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "rejects invalid tag",
			place:   entities.Place{Title: "Cafe", Tags: []string{"has#hash"}, Location: validLoc},
			wantErr: ErrInvalidTags,
		},
		{
			name:    "rejects invalid coordinates",
			place:   entities.Place{Title: "Cafe", Location: entities.Location{Pos: entities.MapPoint{LatMicro: 999_000_000, LngMicro: 0}}},
			wantErr: ErrInvalidBbox,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidatePlaceInput(tc.place)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.wantTitle, got.Title)
			assert.Equal(t, tc.wantTags, got.Tags)
		})
	}
}

func TestValidatePlaceInputParsesOpeningHours(t *testing.T) {
	oh := entities.OpeningHours("  Mo-Fr 09:00-18:00  ")
	place := entities.Place{
		Title:        "Cafe",
		Location:     entities.Location{Pos: entities.NewMapPoint(0, 0)},
		OpeningHours: &oh,
	}
	got, err := ValidatePlaceInput(place)
	assert.NoError(t, err)
	assert.Equal(t, entities.OpeningHours("Mo-Fr 09:00-18:00"), *got.OpeningHours)
}

func TestValidatePlaceInputRejectsShortOpeningHours(t *testing.T) {
	oh := entities.OpeningHours("Mo")
	place := entities.Place{
		Title:        "Cafe",
		Location:     entities.Location{Pos: entities.NewMapPoint(0, 0)},
		OpeningHours: &oh,
	}
	_, err := ValidatePlaceInput(place)
	assert.ErrorIs(t, err, ErrInvalidBbox)
}
