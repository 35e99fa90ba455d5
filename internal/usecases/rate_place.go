package usecases

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

// NewPlaceRating is the input to PrepareNewRating: one rating plus its
// mandatory first comment.
type NewPlaceRating struct {
	PlaceID entities.Id
	Title   string
	Value   entities.RatingValue
	Context entities.RatingContext
	Comment string
	Source  *string
}

// StorableRating is a validated rating+comment pair, ready to be
// persisted by StoreNewRating. Constructing one already confirmed the
// place exists and the input passed validation, so the store step
// cannot fail on anything but a storage error.
type StorableRating struct {
	Place   repositories.PlaceWithStatus
	Rating  entities.Rating
	Comment entities.Comment
}

// PrepareNewRating validates r and loads the place it rates, without
// writing anything. Mirrors the original implementation's
// prepare_new_rating/store_new_rating split: validation and the place
// lookup happen here, so a caller can reject bad input before ever
// opening a write transaction.
func PrepareNewRating(ctx context.Context, places repositories.PlaceRepo, r NewPlaceRating, now entities.Timestamp) (StorableRating, error) {
	if r.Comment == "" {
		return StorableRating{}, ErrEmptyComment
	}
	if !r.Value.IsValid() {
		return StorableRating{}, ErrInvalidRating
	}
	place, err := places.GetPlace(ctx, r.PlaceID)
	if err != nil {
		return StorableRating{}, err
	}

	ratingID := entities.NewId()
	rating := entities.Rating{
		ID:        ratingID,
		PlaceID:   r.PlaceID,
		CreatedAt: now,
		Title:     r.Title,
		Value:     r.Value,
		Context:   r.Context,
		Source:    r.Source,
	}
	comment := entities.Comment{
		ID:        entities.NewId(),
		RatingID:  ratingID,
		CreatedAt: now,
		Text:      r.Comment,
	}
	return StorableRating{Place: place, Rating: rating, Comment: comment}, nil
}

// StoreNewRating persists s's rating and comment and returns the
// place's full unarchived rating list.
func StoreNewRating(ctx context.Context, ratings repositories.RatingRepo, comments repositories.CommentRepo, s StorableRating) ([]entities.Rating, error) {
	if err := ratings.CreateRating(ctx, s.Rating); err != nil {
		return nil, err
	}
	if err := comments.CreateComment(ctx, s.Comment); err != nil {
		return nil, err
	}
	all, err := ratings.LoadRatingsOfPlace(ctx, s.Place.Place.ID)
	if err != nil {
		return nil, err
	}
	var unarchived []entities.Rating
	for _, r := range all {
		if !r.Archived() {
			unarchived = append(unarchived, r)
		}
	}
	return unarchived, nil
}
