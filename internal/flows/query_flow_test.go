package flows

import (
	"context"
	"testing"

	"github.com/geoplaces/core/internal/clearance"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/index"
	"github.com/geoplaces/core/internal/repositories"
)

func TestGetPlaceFiltersPendingClearance(t *testing.T) {
	const orgID entities.Id = "org-foo"
	orgs := &fakeFlowOrgRepo{tags: []repositories.OrgModeratedTag{
		{OrganizationID: orgID, Tag: entities.ModeratedTag{Label: "foo", ModerationFlags: entities.TagModerationRequireClearance}},
	}}
	clearanceRepo := newFakeFlowClearanceRepo()
	repo := newFakePlaceRepo()
	engine := clearance.NewEngine(orgs, clearanceRepo, repo)
	p := &Places{Repo: repo, Orgs: orgs, Clearance: engine}

	place := entities.Place{ID: "p1", Title: "Cafe", Tags: []string{"foo"}}
	repo.put(repositories.PlaceWithStatus{Place: place, Status: entities.Created})
	if err := engine.TriggerForPlace(context.Background(), place, 1000); err != nil {
		t.Fatalf("TriggerForPlace: %v", err)
	}

	got, err := p.GetPlace(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPlace: %v", err)
	}
	if got != nil {
		t.Fatalf("GetPlace() = %+v; want nil (pending clearance)", got)
	}
}

func TestRecentlyChangedPlacesDelegatesToUsecase(t *testing.T) {
	repo := newFakePlaceRepo()
	p := &Places{Repo: repo}

	_, err := p.RecentlyChangedPlaces(context.Background(), entities.RecentlyChangedEntriesParams{
		Pagination: entities.Pagination{Limit: 50000},
	}, 1_000_000)
	if err != nil {
		t.Fatalf("RecentlyChangedPlaces: %v", err)
	}
}

type fakePopularTagsRepo struct {
	repositories.PlaceRepo
	tags []entities.TagCount
}

func (f *fakePopularTagsRepo) MostPopularPlaceRevisionTags(ctx context.Context, params entities.MostPopularTagsParams) ([]entities.TagCount, error) {
	return f.tags, nil
}

func TestMostPopularPlaceRevisionTagsWithoutCache(t *testing.T) {
	repo := &fakePopularTagsRepo{tags: []entities.TagCount{{Tag: "cafe", Count: 2}}}
	p := &Places{Repo: repo}

	got, err := p.MostPopularPlaceRevisionTags(context.Background(), entities.MostPopularTagsParams{})
	if err != nil {
		t.Fatalf("MostPopularPlaceRevisionTags: %v", err)
	}
	if len(got) != 1 || got[0].Tag != "cafe" {
		t.Fatalf("got = %+v", got)
	}
}

func TestSearchPlacesDelegatesToIndexPackage(t *testing.T) {
	idx := newFakePlaceIndex()
	idx.docs["p1"] = index.PlaceDoc{ID: "p1", Pos: entities.NewMapPoint(0, 0)}
	p := &Places{Repo: newFakePlaceRepo(), Index: idx}

	bbox := entities.NewMapBbox(entities.NewMapPoint(-1, -1), entities.NewMapPoint(1, 1))
	visible, _, err := p.SearchPlaces(context.Background(), bbox, index.Query{}, 10)
	if err != nil {
		t.Fatalf("SearchPlaces: %v", err)
	}
	_ = visible
}
