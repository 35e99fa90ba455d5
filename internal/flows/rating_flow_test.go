package flows

import (
	"context"
	"testing"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/usecases"
)

type fakeRatingRepo struct {
	repositories.RatingRepo
	byPlace map[entities.Id][]entities.Rating
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{byPlace: make(map[entities.Id][]entities.Rating)}
}

func (f *fakeRatingRepo) CreateRating(ctx context.Context, rating entities.Rating) error {
	f.byPlace[rating.PlaceID] = append(f.byPlace[rating.PlaceID], rating)
	return nil
}

func (f *fakeRatingRepo) LoadRatingsOfPlace(ctx context.Context, placeID entities.Id) ([]entities.Rating, error) {
	return f.byPlace[placeID], nil
}

type fakeCommentRepo struct {
	repositories.CommentRepo
	created []entities.Comment
}

func (f *fakeCommentRepo) CreateComment(ctx context.Context, comment entities.Comment) error {
	f.created = append(f.created, comment)
	return nil
}

func TestRatePlaceStoresAndReindexes(t *testing.T) {
	places := newFakePlaceRepo()
	places.byID["p1"] = repositories.PlaceWithStatus{
		Place:  entities.Place{ID: "p1", Title: "Cafe"},
		Status: entities.Confirmed,
	}
	ratingRepo := newFakeRatingRepo()
	commentRepo := &fakeCommentRepo{}
	idx := newFakePlaceIndex()

	r := &Ratings{
		Places:   places,
		Ratings:  ratingRepo,
		Comments: commentRepo,
		Index:    &Places{Repo: places, Ratings: ratingRepo, Index: idx},
	}

	got, err := r.RatePlace(context.Background(), usecases.NewPlaceRating{
		PlaceID: "p1",
		Title:   "Great",
		Value:   2,
		Context: entities.Diversity,
		Comment: "really good",
	}, 1000)
	if err != nil {
		t.Fatalf("RatePlace: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ratings returned = %d; want 1", len(got))
	}
	if len(commentRepo.created) != 1 {
		t.Fatalf("comments created = %d; want 1", len(commentRepo.created))
	}

	doc, ok := idx.docs["p1"]
	if !ok {
		t.Fatal("place not reindexed after rating")
	}
	if doc.Ratings.ForContext(entities.Diversity) != 2 {
		t.Fatalf("indexed diversity avg = %v; want 2", doc.Ratings.ForContext(entities.Diversity))
	}
}

func TestRatePlaceRejectsEmptyComment(t *testing.T) {
	places := newFakePlaceRepo()
	places.byID["p1"] = repositories.PlaceWithStatus{Place: entities.Place{ID: "p1"}, Status: entities.Created}
	r := &Ratings{Places: places, Ratings: newFakeRatingRepo(), Comments: &fakeCommentRepo{}}

	_, err := r.RatePlace(context.Background(), usecases.NewPlaceRating{
		PlaceID: "p1", Value: 1, Context: entities.Diversity, Comment: "",
	}, 1000)
	if err == nil {
		t.Fatal("expected ErrEmptyComment")
	}
}
