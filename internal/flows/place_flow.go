package flows

import (
	"context"
	"fmt"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/gateways"
	"github.com/geoplaces/core/internal/index"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/usecases"
)

// CreateOrUpdatePlace validates place (including, when orgs is wired,
// that every added/removed tag respects its moderating organization's
// AllowAdd/AllowRemove flags), persists it (insert if new, new
// revision if place.ID already exists), then best-effort triggers
// organization clearance, refreshes the search index, and notifies
// matching bbox subscribers. callerOrgID is the organization (if any)
// the caller is acting on behalf of; it exempts that organization's
// own moderated tags from the add/remove check. kind distinguishes
// the notification sent to subscribers (PlaceAdded vs PlaceUpdated);
// callers decide which applies based on whether place.ID already
// existed.
func (p *Places) CreateOrUpdatePlace(ctx context.Context, place entities.Place, callerOrgID *entities.Id, now entities.Timestamp, kind gateways.NotificationKind) (entities.Place, error) {
	if p.Geocoder != nil && place.Location.Address != nil {
		resolved, err := p.Geocoder.ResolveAddressLatLng(ctx, *place.Location.Address)
		if err != nil {
			return entities.Place{}, fmt.Errorf("resolve address: %w", err)
		}
		if resolved != nil {
			place.Location.Pos = *resolved
		}
	}

	validated, err := usecases.ValidatePlaceInput(place)
	if err != nil {
		return entities.Place{}, err
	}

	if p.Orgs != nil {
		previous, err := p.previousTags(ctx, validated.ID)
		if err != nil {
			return entities.Place{}, err
		}
		if err := usecases.ValidateTagModeration(ctx, p.Orgs, callerOrgID, previous, validated.Tags); err != nil {
			return entities.Place{}, err
		}
	}

	if err := p.Repo.CreateOrUpdatePlace(ctx, validated); err != nil {
		return entities.Place{}, err
	}

	log := p.logger()

	if p.Clearance != nil {
		bestEffort(ctx, log, "clearance.TriggerForPlace", func() error {
			return p.Clearance.TriggerForPlace(ctx, validated, now)
		})
	}

	if p.Index != nil {
		bestEffort(ctx, log, "index.AddOrUpdate", func() error {
			return p.indexPlaceRespectingClearance(ctx, repositories.PlaceWithStatus{Place: validated, Status: entities.Created})
		})
	}

	if p.Subs != nil {
		bestEffort(ctx, log, "subscriptions.NotifyPlaceChanged", func() error {
			return p.Subs.NotifyPlaceChanged(ctx, validated, kind)
		})
	}

	return validated, nil
}

// previousTags returns id's currently stored tag set, or nil if id
// does not exist yet (a brand new place has no previous tags to diff
// against).
func (p *Places) previousTags(ctx context.Context, id entities.Id) ([]string, error) {
	existing, err := p.Repo.GetPlace(ctx, id)
	if err != nil {
		if dberrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return existing.Place.Tags, nil
}

// Reindex rebuilds the search index from every stored place,
// replacing whatever it currently holds. Called once at startup
// (spec.md §5: "the kernel reindexes all places and events on boot")
// since the index itself is an in-memory, non-durable view.
func (p *Places) Reindex(ctx context.Context) (int, error) {
	if p.Index == nil {
		return 0, nil
	}
	if err := p.Index.FlushIndex(); err != nil {
		return 0, err
	}
	all, err := p.Repo.AllPlaces(ctx)
	if err != nil {
		return 0, err
	}
	for _, withStatus := range all {
		if err := p.indexPlaceRespectingClearance(ctx, withStatus); err != nil {
			return 0, err
		}
	}
	return len(all), nil
}

// indexPlaceRespectingClearance applies the clearance engine's read
// filter (spec.md §8 scenario 3: a place tagged with a
// RequireClearance tag is invisible until cleared) before indexing
// withStatus, so the search index never holds a revision no ordinary
// reader is allowed to see. A place that resolves to nil (never
// cleared) is removed from the index instead; one that resolves to a
// historical cleared revision is indexed under that revision.
func (p *Places) indexPlaceRespectingClearance(ctx context.Context, withStatus repositories.PlaceWithStatus) error {
	if p.Clearance == nil {
		return p.indexPlace(ctx, withStatus)
	}
	filtered, err := p.Clearance.FilterPlace(ctx, withStatus)
	if err != nil {
		return err
	}
	if filtered == nil {
		return p.Index.RemoveByID(withStatus.Place.ID)
	}
	return p.indexPlace(ctx, *filtered)
}

// indexPlace builds a PlaceDoc for withStatus, attaching its current
// average ratings when p.Ratings is wired, and upserts it.
func (p *Places) indexPlace(ctx context.Context, withStatus repositories.PlaceWithStatus) error {
	place := withStatus.Place
	doc := index.PlaceDoc{
		ID:          place.ID,
		Status:      withStatus.Status,
		Pos:         place.Location.Pos,
		Title:       place.Title,
		Description: place.Description,
		Tags:        place.Tags,
	}
	if p.Ratings != nil {
		ratings, err := p.Ratings.LoadRatingsOfPlace(ctx, place.ID)
		if err != nil {
			return err
		}
		doc.Ratings = entities.BuildAvgRatings(ratings)
	}
	return p.Index.AddOrUpdate(doc)
}
