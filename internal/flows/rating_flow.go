package flows

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/usecases"
)

// Ratings bundles the repositories a rating flow needs: the place
// repo (for PrepareNewRating's existence check and the post-write
// index refresh) and the rating/comment repos it rates.
type Ratings struct {
	Places   repositories.PlaceRepo
	Ratings  repositories.RatingRepo
	Comments repositories.CommentRepo
	Index    *Places
}

// RatePlace validates and stores a new rating+comment pair, then
// best-effort refreshes the place's search-index document so its
// updated average ratings are reflected immediately. Returns the
// place's full unarchived rating list, per usecases.StoreNewRating.
func (r *Ratings) RatePlace(ctx context.Context, in usecases.NewPlaceRating, now entities.Timestamp) ([]entities.Rating, error) {
	storable, err := usecases.PrepareNewRating(ctx, r.Places, in, now)
	if err != nil {
		return nil, err
	}

	ratings, err := usecases.StoreNewRating(ctx, r.Ratings, r.Comments, storable)
	if err != nil {
		return nil, err
	}

	if r.Index != nil && r.Index.Index != nil {
		log := r.Index.logger()
		bestEffort(ctx, log, "index.refreshRatedPlace", func() error {
			withStatus, err := r.Places.GetPlace(ctx, in.PlaceID)
			if err != nil {
				return err
			}
			return r.Index.indexPlaceRespectingClearance(ctx, withStatus)
		})
	}

	return ratings, nil
}
