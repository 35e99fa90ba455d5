package usecases

import (
	"errors"
	"testing"

	"github.com/geoplaces/core/internal/entities"
)

func TestValidateEventInputTrimsTitleAndTags(t *testing.T) {
	event := entities.Event{Title: "  Market  ", Start: 1000, Tags: []string{" food ", "market"}}
	got, err := ValidateEventInput(event)
	if err != nil {
		t.Fatalf("ValidateEventInput: %v", err)
	}
	if got.Title != "Market" {
		t.Fatalf("Title = %q; want %q", got.Title, "Market")
	}
	if len(got.Tags) != 2 || got.Tags[0] != "food" {
		t.Fatalf("Tags = %v; want trimmed", got.Tags)
	}
}

func TestValidateEventInputRejectsEmptyTitle(t *testing.T) {
	_, err := ValidateEventInput(entities.Event{Title: "  ", Start: 1000})
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("err = %v; want ErrEmptyTitle", err)
	}
}

func TestValidateEventInputRejectsEndBeforeStart(t *testing.T) {
	end := entities.Timestamp(500)
	_, err := ValidateEventInput(entities.Event{Title: "Market", Start: 1000, End: &end})
	if !errors.Is(err, ErrEndDateBeforeStart) {
		t.Fatalf("err = %v; want ErrEndDateBeforeStart", err)
	}
}

func TestValidateEventInputAcceptsEndEqualStart(t *testing.T) {
	end := entities.Timestamp(1000)
	_, err := ValidateEventInput(entities.Event{Title: "Market", Start: 1000, End: &end})
	if err != nil {
		t.Fatalf("ValidateEventInput: %v", err)
	}
}

func TestValidateEventInputRejectsInvalidTag(t *testing.T) {
	_, err := ValidateEventInput(entities.Event{Title: "Market", Start: 1000, Tags: []string{"no#good"}})
	if !errors.Is(err, ErrInvalidTags) {
		t.Fatalf("err = %v; want ErrInvalidTags", err)
	}
}
