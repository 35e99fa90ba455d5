package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/geoplaces/core/internal/clearance"
	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/gateways"
	"github.com/geoplaces/core/internal/index"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/subscriptions"
	"github.com/geoplaces/core/internal/usecases"
)

// fakeFlowSubRepo is a minimal in-memory SubscriptionRepo for flow tests.
type fakeFlowSubRepo struct {
	repositories.SubscriptionRepo
	subs []entities.BboxSubscription
}

func newFakeFlowSubRepo(subs ...entities.BboxSubscription) *fakeFlowSubRepo {
	return &fakeFlowSubRepo{subs: subs}
}

func (f *fakeFlowSubRepo) AllBboxSubscriptions(ctx context.Context) ([]entities.BboxSubscription, error) {
	return f.subs, nil
}

// fakePlaceRepo is an in-memory PlaceRepo sufficient for flow tests:
// one current revision per place, keyed by ID.
type fakePlaceRepo struct {
	repositories.PlaceRepo
	byID      map[entities.Id]repositories.PlaceWithStatus
	revisions map[entities.Id]map[entities.Revision]repositories.PlaceWithStatus
}

func newFakePlaceRepo() *fakePlaceRepo {
	return &fakePlaceRepo{
		byID:      make(map[entities.Id]repositories.PlaceWithStatus),
		revisions: make(map[entities.Id]map[entities.Revision]repositories.PlaceWithStatus),
	}
}

func (f *fakePlaceRepo) CreateOrUpdatePlace(ctx context.Context, place entities.Place) error {
	withStatus := repositories.PlaceWithStatus{Place: place, Status: entities.Created}
	f.byID[place.ID] = withStatus
	if f.revisions[place.ID] == nil {
		f.revisions[place.ID] = make(map[entities.Revision]repositories.PlaceWithStatus)
	}
	f.revisions[place.ID][place.Revision] = withStatus
	return nil
}

func (f *fakePlaceRepo) LoadPlaceRevision(ctx context.Context, id entities.Id, rev entities.Revision) (repositories.PlaceWithStatus, error) {
	item, ok := f.revisions[id][rev]
	if !ok {
		return repositories.PlaceWithStatus{}, dberrors.ErrNotFound
	}
	return item, nil
}

func (f *fakePlaceRepo) GetPlace(ctx context.Context, id entities.Id) (repositories.PlaceWithStatus, error) {
	item, ok := f.byID[id]
	if !ok {
		return repositories.PlaceWithStatus{}, errNotFound
	}
	return item, nil
}

func (f *fakePlaceRepo) AllPlaces(ctx context.Context) ([]repositories.PlaceWithStatus, error) {
	all := make([]repositories.PlaceWithStatus, 0, len(f.byID))
	for _, item := range f.byID {
		all = append(all, item)
	}
	return all, nil
}

func (f *fakePlaceRepo) put(item repositories.PlaceWithStatus) {
	f.byID[item.Place.ID] = item
}

func (f *fakePlaceRepo) ReviewPlaces(ctx context.Context, ids []entities.Id, status entities.ReviewStatus, activity repositories.ActivityLogEntry) (int, error) {
	n := 0
	for _, id := range ids {
		item, ok := f.byID[id]
		if !ok || item.Status == status {
			continue
		}
		item.Status = status
		f.byID[id] = item
		n++
	}
	return n, nil
}

func (f *fakePlaceRepo) RecentlyChangedPlaces(ctx context.Context, params entities.RecentlyChangedEntriesParams) ([]repositories.RecentlyChangedEntry, error) {
	return nil, nil
}

type fakePlaceIndex struct {
	docs map[entities.Id]index.PlaceDoc
}

func newFakePlaceIndex() *fakePlaceIndex {
	return &fakePlaceIndex{docs: make(map[entities.Id]index.PlaceDoc)}
}

func (f *fakePlaceIndex) AddOrUpdate(doc index.PlaceDoc) error {
	f.docs[doc.ID] = doc
	return nil
}
func (f *fakePlaceIndex) RemoveByID(id entities.Id) error { delete(f.docs, id); return nil }
func (f *fakePlaceIndex) FlushIndex() error               { f.docs = make(map[entities.Id]index.PlaceDoc); return nil }
func (f *fakePlaceIndex) Query(q index.Query) ([]index.PlaceResult, error) { return nil, nil }

type fakeFlowNotifyGateway struct {
	calls []gateways.Notification
}

func (f *fakeFlowNotifyGateway) Notify(ctx context.Context, n gateways.Notification) error {
	f.calls = append(f.calls, n)
	return nil
}

var errNotFound = dberrors.ErrNotFound

func newTestPlaces(repo *fakePlaceRepo, idx *fakePlaceIndex) *Places {
	return &Places{Repo: repo, Index: idx}
}

func TestCreateOrUpdatePlaceValidatesAndIndexes(t *testing.T) {
	repo := newFakePlaceRepo()
	idx := newFakePlaceIndex()
	p := newTestPlaces(repo, idx)

	place := entities.Place{
		ID:       "place-1",
		Title:    "  The Shop  ",
		Tags:     []string{"shop", " food "},
		Location: entities.Location{Pos: entities.NewMapPoint(48.78, 9.18)},
	}

	got, err := p.CreateOrUpdatePlace(context.Background(), place, nil, 1000, gateways.PlaceAdded)
	if err != nil {
		t.Fatalf("CreateOrUpdatePlace: %v", err)
	}
	if got.Title != "The Shop" {
		t.Fatalf("Title = %q; want trimmed", got.Title)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "food" {
		t.Fatalf("Tags = %v; want trimmed", got.Tags)
	}

	doc, ok := idx.docs["place-1"]
	if !ok {
		t.Fatal("place not indexed")
	}
	if doc.Title != "The Shop" || doc.Status != entities.Created {
		t.Fatalf("indexed doc = %+v; want title/status to match", doc)
	}
}

func TestCreateOrUpdatePlaceRejectsEmptyTitle(t *testing.T) {
	p := newTestPlaces(newFakePlaceRepo(), newFakePlaceIndex())
	_, err := p.CreateOrUpdatePlace(context.Background(), entities.Place{ID: "p1"}, nil, 1000, gateways.PlaceAdded)
	if err == nil {
		t.Fatal("expected validation error for empty title")
	}
}

func TestCreateOrUpdatePlaceNotifiesMatchingSubscribers(t *testing.T) {
	repo := newFakePlaceRepo()
	idx := newFakePlaceIndex()
	gw := &fakeFlowNotifyGateway{}
	subs := newFakeFlowSubRepo(entities.BboxSubscription{
		ID: "s1", UserEmail: "scout@x.org",
		Southwest: entities.NewMapPoint(0, 0), Northeast: entities.NewMapPoint(1, 1),
	})
	p := &Places{Repo: repo, Index: idx, Subs: subscriptions.NewEngine(subs, gw)}

	place := entities.Place{
		ID:       "p1",
		Title:    "Cafe",
		Location: entities.Location{Pos: entities.NewMapPoint(0.5, 0.5)},
	}
	if _, err := p.CreateOrUpdatePlace(context.Background(), place, nil, 1000, gateways.PlaceAdded); err != nil {
		t.Fatalf("CreateOrUpdatePlace: %v", err)
	}
	if len(gw.calls) != 1 || gw.calls[0].Kind != gateways.PlaceAdded {
		t.Fatalf("calls = %+v; want one PlaceAdded notification", gw.calls)
	}
}

func TestReviewPlacesRequiresScoutRole(t *testing.T) {
	repo := newFakePlaceRepo()
	repo.byID["p1"] = repositories.PlaceWithStatus{Place: entities.Place{ID: "p1"}, Status: entities.Created}
	p := newTestPlaces(repo, newFakePlaceIndex())

	_, err := p.ReviewPlaces(context.Background(), entities.RoleUser, []entities.Id{"p1"}, entities.Confirmed, repositories.ActivityLogEntry{})
	if err == nil {
		t.Fatal("expected forbidden error for RoleUser")
	}
}

func TestReviewPlacesRemovesInvisibleFromIndex(t *testing.T) {
	repo := newFakePlaceRepo()
	repo.byID["p1"] = repositories.PlaceWithStatus{Place: entities.Place{ID: "p1"}, Status: entities.Created}
	idx := newFakePlaceIndex()
	idx.docs["p1"] = index.PlaceDoc{ID: "p1"}
	p := newTestPlaces(repo, idx)

	n, err := p.ReviewPlaces(context.Background(), entities.RoleScout, []entities.Id{"p1"}, entities.Archived, repositories.ActivityLogEntry{})
	if err != nil {
		t.Fatalf("ReviewPlaces: %v", err)
	}
	if n != 1 {
		t.Fatalf("ReviewPlaces() = %d; want 1", n)
	}
	if _, ok := idx.docs["p1"]; ok {
		t.Fatal("place still indexed after transition to Archived")
	}
}

func TestReviewPlacesKeepsVisibleIndexed(t *testing.T) {
	repo := newFakePlaceRepo()
	repo.byID["p1"] = repositories.PlaceWithStatus{Place: entities.Place{ID: "p1", Title: "X"}, Status: entities.Created}
	idx := newFakePlaceIndex()
	p := newTestPlaces(repo, idx)

	if _, err := p.ReviewPlaces(context.Background(), entities.RoleScout, []entities.Id{"p1"}, entities.Confirmed, repositories.ActivityLogEntry{}); err != nil {
		t.Fatalf("ReviewPlaces: %v", err)
	}
	doc, ok := idx.docs["p1"]
	if !ok {
		t.Fatal("place dropped from index after transition to Confirmed")
	}
	if doc.Status != entities.Confirmed {
		t.Fatalf("doc.Status = %v; want Confirmed", doc.Status)
	}
}

func TestReindexRebuildsIndexFromRepo(t *testing.T) {
	repo := newFakePlaceRepo()
	repo.byID["p1"] = repositories.PlaceWithStatus{
		Place:  entities.Place{ID: "p1", Title: "A", Location: entities.Location{Pos: entities.NewMapPoint(1, 1)}},
		Status: entities.Created,
	}
	repo.byID["p2"] = repositories.PlaceWithStatus{
		Place:  entities.Place{ID: "p2", Title: "B", Location: entities.Location{Pos: entities.NewMapPoint(2, 2)}},
		Status: entities.Confirmed,
	}
	idx := newFakePlaceIndex()
	idx.docs["stale"] = index.PlaceDoc{ID: "stale"}
	p := newTestPlaces(repo, idx)

	n, err := p.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if n != 2 {
		t.Fatalf("Reindex() = %d; want 2", n)
	}
	if _, ok := idx.docs["stale"]; ok {
		t.Fatal("stale document survived Reindex")
	}
	if _, ok := idx.docs["p1"]; !ok {
		t.Fatal("p1 missing after Reindex")
	}
	if _, ok := idx.docs["p2"]; !ok {
		t.Fatal("p2 missing after Reindex")
	}
}

// fakeFlowOrgRepo resolves a single hard-coded moderated tag to a
// single organization; every other OrganizationRepo method is unused.
type fakeFlowOrgRepo struct {
	repositories.OrganizationRepo
	tags []repositories.OrgModeratedTag
}

func (f *fakeFlowOrgRepo) GetModeratedTagsByOrg(ctx context.Context, excludedOrgID *entities.Id) ([]repositories.OrgModeratedTag, error) {
	return f.tags, nil
}

func (f *fakeFlowOrgRepo) MapTagToClearanceOrgID(ctx context.Context, tag string) (*entities.Id, error) {
	for _, m := range f.tags {
		if m.Tag.Label == tag && m.Tag.ModerationFlags.RequiresClearance() {
			id := m.OrganizationID
			return &id, nil
		}
	}
	return nil, nil
}

// fakeFlowClearanceRepo is an in-memory PlaceClearanceRepo keyed by
// (org, place), mirroring internal/clearance's own test fake.
type fakeFlowClearanceRepo struct {
	repositories.PlaceClearanceRepo
	records map[entities.Id]map[entities.Id]entities.PendingClearanceForPlace
}

func newFakeFlowClearanceRepo() *fakeFlowClearanceRepo {
	return &fakeFlowClearanceRepo{records: make(map[entities.Id]map[entities.Id]entities.PendingClearanceForPlace)}
}

func (f *fakeFlowClearanceRepo) AddPendingClearanceForPlaces(ctx context.Context, orgIDs []entities.Id, pending entities.PendingClearanceForPlace) (int, error) {
	n := 0
	for _, orgID := range orgIDs {
		if f.records[orgID] == nil {
			f.records[orgID] = make(map[entities.Id]entities.PendingClearanceForPlace)
		}
		if _, exists := f.records[orgID][pending.PlaceID]; exists {
			continue
		}
		f.records[orgID][pending.PlaceID] = pending
		n++
	}
	return n, nil
}

func (f *fakeFlowClearanceRepo) LoadPendingClearancesForPlaces(ctx context.Context, orgID entities.Id, placeIDs []entities.Id) ([]entities.PendingClearanceForPlace, error) {
	var out []entities.PendingClearanceForPlace
	for _, id := range placeIDs {
		if rec, ok := f.records[orgID][id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeFlowClearanceRepo) UpdatePendingClearancesForPlaces(ctx context.Context, orgID entities.Id, clearances []entities.ClearanceForPlace) (int, error) {
	n := 0
	for _, c := range clearances {
		rec, ok := f.records[orgID][c.PlaceID]
		if !ok {
			continue
		}
		rev := c.Revision
		rec.LastClearedRevision = &rev
		f.records[orgID][c.PlaceID] = rec
		n++
	}
	return n, nil
}

func (f *fakeFlowClearanceRepo) CleanupPendingClearancesForPlaces(ctx context.Context, orgID entities.Id) (int, error) {
	return 0, nil
}

func (f *fakeFlowClearanceRepo) CountPendingClearancesForPlaces(ctx context.Context, orgID entities.Id) (int, error) {
	return len(f.records[orgID]), nil
}

func (f *fakeFlowClearanceRepo) ListPendingClearancesForPlaces(ctx context.Context, orgID entities.Id, pagination entities.Pagination) ([]entities.PendingClearanceForPlace, error) {
	var out []entities.PendingClearanceForPlace
	for _, rec := range f.records[orgID] {
		out = append(out, rec)
	}
	return out, nil
}

func TestCreateOrUpdatePlaceRejectsModeratedTagAddByNonOwner(t *testing.T) {
	orgs := &fakeFlowOrgRepo{tags: []repositories.OrgModeratedTag{
		{OrganizationID: "org-1", Tag: entities.ModeratedTag{Label: "chain", ModerationFlags: entities.TagModerationNone}},
	}}
	p := &Places{Repo: newFakePlaceRepo(), Index: newFakePlaceIndex(), Orgs: orgs}

	place := entities.Place{
		ID:       "p1",
		Title:    "Cafe",
		Tags:     []string{"chain"},
		Location: entities.Location{Pos: entities.NewMapPoint(0, 0)},
	}
	_, err := p.CreateOrUpdatePlace(context.Background(), place, nil, 1000, gateways.PlaceAdded)
	if !errors.Is(err, usecases.ErrModeratedTag) {
		t.Fatalf("CreateOrUpdatePlace() error = %v; want ErrModeratedTag", err)
	}
}

func TestCreateOrUpdatePlaceAllowsModeratedTagByOwningOrg(t *testing.T) {
	const orgID entities.Id = "org-1"
	orgs := &fakeFlowOrgRepo{tags: []repositories.OrgModeratedTag{
		{OrganizationID: orgID, Tag: entities.ModeratedTag{Label: "chain", ModerationFlags: entities.TagModerationNone}},
	}}
	p := &Places{Repo: newFakePlaceRepo(), Index: newFakePlaceIndex(), Orgs: orgs}

	place := entities.Place{
		ID:       "p1",
		Title:    "Cafe",
		Tags:     []string{"chain"},
		Location: entities.Location{Pos: entities.NewMapPoint(0, 0)},
	}
	if _, err := p.CreateOrUpdatePlace(context.Background(), place, &orgID, 1000, gateways.PlaceAdded); err != nil {
		t.Fatalf("CreateOrUpdatePlace: %v", err)
	}
}

// TestCreateOrUpdatePlaceHidesPendingClearanceFromIndex walks spec.md
// §8 scenario 3: a place created under a RequireClearance tag is
// kept out of the index until its organization clears it.
func TestCreateOrUpdatePlaceHidesPendingClearanceFromIndex(t *testing.T) {
	const orgID entities.Id = "org-foo"
	orgs := &fakeFlowOrgRepo{tags: []repositories.OrgModeratedTag{
		{OrganizationID: orgID, Tag: entities.ModeratedTag{Label: "foo", ModerationFlags: entities.TagModerationAllowAdd | entities.TagModerationRequireClearance}},
	}}
	clearanceRepo := newFakeFlowClearanceRepo()
	repo := newFakePlaceRepo()
	idx := newFakePlaceIndex()
	engine := clearance.NewEngine(orgs, clearanceRepo, repo)
	p := &Places{Repo: repo, Index: idx, Orgs: orgs, Clearance: engine}

	place := entities.Place{
		ID:       "p1",
		Title:    "Cafe",
		Tags:     []string{"foo"},
		Location: entities.Location{Pos: entities.NewMapPoint(0, 0)},
	}
	if _, err := p.CreateOrUpdatePlace(context.Background(), place, nil, 1000, gateways.PlaceAdded); err != nil {
		t.Fatalf("CreateOrUpdatePlace: %v", err)
	}
	if _, ok := idx.docs["p1"]; ok {
		t.Fatal("place indexed before clearance; want hidden")
	}

	n, err := p.ApplyClearances(context.Background(), orgID, []entities.ClearanceForPlace{{PlaceID: "p1", Revision: 0}})
	if err != nil {
		t.Fatalf("ApplyClearances: %v", err)
	}
	if n != 1 {
		t.Fatalf("ApplyClearances() = %d; want 1", n)
	}
	if _, ok := idx.docs["p1"]; !ok {
		t.Fatal("place still hidden after clearance applied")
	}
}
