package repositories

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
)

// RatingRepo is the persistence contract for place ratings.
type RatingRepo interface {
	CreateRating(ctx context.Context, rating entities.Rating) error

	LoadRating(ctx context.Context, id entities.Id) (entities.Rating, error)
	LoadRatings(ctx context.Context, ids []entities.Id) ([]entities.Rating, error)
	LoadRatingsOfPlace(ctx context.Context, placeID entities.Id) ([]entities.Rating, error)

	ArchiveRatings(ctx context.Context, ids []entities.Id, activity entities.Activity) (int, error)
	ArchiveRatingsOfPlaces(ctx context.Context, placeIDs []entities.Id, activity entities.Activity) (int, error)

	LoadPlaceIDsOfRatings(ctx context.Context, ids []entities.Id) ([]entities.Id, error)
}

// CommentRepo is the persistence contract for rating comments.
type CommentRepo interface {
	CreateComment(ctx context.Context, comment entities.Comment) error

	LoadComment(ctx context.Context, id entities.Id) (entities.Comment, error)
	LoadComments(ctx context.Context, ids []entities.Id) ([]entities.Comment, error)
	LoadCommentsOfRating(ctx context.Context, ratingID entities.Id) ([]entities.Comment, error)

	ArchiveComments(ctx context.Context, ids []entities.Id, activity entities.Activity) (int, error)
	ArchiveCommentsOfRatings(ctx context.Context, ratingIDs []entities.Id, activity entities.Activity) (int, error)
	ArchiveCommentsOfPlaces(ctx context.Context, placeIDs []entities.Id, activity entities.Activity) (int, error)
}

// ZipRatingsWithComments loads the unarchived comments for each rating
// and pairs them in input order. It is a default composition over the
// two repositories rather than a method of either, mirroring the
// source's default-trait-method shape without requiring Go interface
// embedding tricks.
func ZipRatingsWithComments(ctx context.Context, comments CommentRepo, ratings []entities.Rating) ([]entities.RatingWithComments, error) {
	out := make([]entities.RatingWithComments, 0, len(ratings))
	for _, r := range ratings {
		cs, err := comments.LoadCommentsOfRating(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, entities.RatingWithComments{Rating: r, Comments: cs})
	}
	return out, nil
}
