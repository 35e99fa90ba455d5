package usecases

import (
	"errors"
	"testing"

	"github.com/geoplaces/core/internal/entities"
)

func TestValidateBboxSubscriptionAccepts(t *testing.T) {
	sub := entities.BboxSubscription{
		UserEmail: "scout@example.com",
		Southwest: entities.NewMapPoint(48.0, 9.0),
		Northeast: entities.NewMapPoint(49.0, 10.0),
	}
	got, err := ValidateBboxSubscription(sub)
	if err != nil {
		t.Fatalf("ValidateBboxSubscription: %v", err)
	}
	if got.UserEmail != sub.UserEmail {
		t.Fatalf("UserEmail = %q; want %q", got.UserEmail, sub.UserEmail)
	}
}

func TestValidateBboxSubscriptionRejectsEmptyEmail(t *testing.T) {
	sub := entities.BboxSubscription{
		Southwest: entities.NewMapPoint(48.0, 9.0),
		Northeast: entities.NewMapPoint(49.0, 10.0),
	}
	_, err := ValidateBboxSubscription(sub)
	if !errors.Is(err, ErrEmptyEmail) {
		t.Fatalf("err = %v; want ErrEmptyEmail", err)
	}
}

func TestValidateBboxSubscriptionRejectsInvalidBox(t *testing.T) {
	sub := entities.BboxSubscription{
		UserEmail: "scout@example.com",
		Southwest: entities.MapPoint{LatMicro: 999_000_000, LngMicro: 0},
		Northeast: entities.NewMapPoint(49.0, 10.0),
	}
	_, err := ValidateBboxSubscription(sub)
	if !errors.Is(err, ErrInvalidBbox) {
		t.Fatalf("err = %v; want ErrInvalidBbox", err)
	}
}
