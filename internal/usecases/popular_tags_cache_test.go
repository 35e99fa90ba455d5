package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

type countingTagsRepo struct {
	repositories.PlaceRepo
	calls int
	tags  []entities.TagCount
}

func (f *countingTagsRepo) MostPopularPlaceRevisionTags(ctx context.Context, params entities.MostPopularTagsParams) ([]entities.TagCount, error) {
	f.calls++
	return f.tags, nil
}

func TestPopularTagsCacheReusesSnapshotWithinTTL(t *testing.T) {
	repo := &countingTagsRepo{tags: []entities.TagCount{{Tag: "cafe", Count: 3}}}
	cache := NewPopularTagsCache(time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := cache.MostPopularPlaceRevisionTags(context.Background(), repo, entities.MostPopularTagsParams{}); err != nil {
			t.Fatalf("MostPopularPlaceRevisionTags: %v", err)
		}
	}
	if repo.calls != 1 {
		t.Fatalf("repo.calls = %d; want 1", repo.calls)
	}
}

func TestPopularTagsCacheRefreshesAfterTTL(t *testing.T) {
	repo := &countingTagsRepo{tags: []entities.TagCount{{Tag: "cafe", Count: 3}}}
	cache := NewPopularTagsCache(time.Nanosecond)

	if _, err := cache.MostPopularPlaceRevisionTags(context.Background(), repo, entities.MostPopularTagsParams{}); err != nil {
		t.Fatalf("MostPopularPlaceRevisionTags: %v", err)
	}
	time.Sleep(time.Microsecond)
	if _, err := cache.MostPopularPlaceRevisionTags(context.Background(), repo, entities.MostPopularTagsParams{}); err != nil {
		t.Fatalf("MostPopularPlaceRevisionTags: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("repo.calls = %d; want 2", repo.calls)
	}
}

func TestPopularTagsCacheZeroTTLAlwaysRefreshes(t *testing.T) {
	repo := &countingTagsRepo{tags: []entities.TagCount{{Tag: "cafe", Count: 3}}}
	cache := NewPopularTagsCache(0)

	for i := 0; i < 2; i++ {
		if _, err := cache.MostPopularPlaceRevisionTags(context.Background(), repo, entities.MostPopularTagsParams{}); err != nil {
			t.Fatalf("MostPopularPlaceRevisionTags: %v", err)
		}
	}
	if repo.calls != 2 {
		t.Fatalf("repo.calls = %d; want 2", repo.calls)
	}
}

func TestPopularTagsCacheAppliesMinMaxAndPagination(t *testing.T) {
	repo := &countingTagsRepo{tags: []entities.TagCount{
		{Tag: "cafe", Count: 1},
		{Tag: "bar", Count: 5},
		{Tag: "park", Count: 10},
	}}
	cache := NewPopularTagsCache(time.Hour)

	min := uint64(2)
	got, err := cache.MostPopularPlaceRevisionTags(context.Background(), repo, entities.MostPopularTagsParams{MinCount: &min})
	if err != nil {
		t.Fatalf("MostPopularPlaceRevisionTags: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d; want 2", len(got))
	}

	got, err = cache.MostPopularPlaceRevisionTags(context.Background(), repo, entities.MostPopularTagsParams{
		Pagination: entities.Pagination{Offset: 1, Limit: 1},
	})
	if err != nil {
		t.Fatalf("MostPopularPlaceRevisionTags: %v", err)
	}
	if len(got) != 1 || got[0].Tag != "bar" {
		t.Fatalf("got = %+v; want [{bar 5}]", got)
	}
}
