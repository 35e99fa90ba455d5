// Package clearance implements the organization clearance protocol:
// tags an organization has flagged RequireClearance hide the places
// that carry them from ordinary reads until the organization reviews
// the new revision. Modeled on the teacher's internal/gate package —
// a small registry consulted by a filter function threaded through
// read paths — generalized from session hook gates to place-revision
// gates.
package clearance

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

// Engine triggers pending clearances on write and filters reads
// through them.
type Engine struct {
	orgs       repositories.OrganizationRepo
	clearances repositories.PlaceClearanceRepo
	places     repositories.PlaceRepo
}

// NewEngine wires an Engine to its three collaborating repositories.
func NewEngine(orgs repositories.OrganizationRepo, clearances repositories.PlaceClearanceRepo, places repositories.PlaceRepo) *Engine {
	return &Engine{orgs: orgs, clearances: clearances, places: places}
}

// TriggerForPlace registers a pending clearance for every organization
// that has claimed RequireClearance on one of place's tags. Existing
// records are left untouched by AddPendingClearanceForPlaces, so an
// organization's last_cleared_revision survives repeated edits under
// the same tag until it actively clears the new one.
func (e *Engine) TriggerForPlace(ctx context.Context, place entities.Place, now entities.Timestamp) error {
	orgIDs, err := e.clearanceOrgsForTags(ctx, place.Tags)
	if err != nil {
		return err
	}
	if len(orgIDs) == 0 {
		return nil
	}
	_, err = e.clearances.AddPendingClearanceForPlaces(ctx, orgIDs, entities.PendingClearanceForPlace{
		PlaceID:   place.ID,
		CreatedAt: now,
	})
	return err
}

func (e *Engine) clearanceOrgsForTags(ctx context.Context, tags []string) ([]entities.Id, error) {
	seen := make(map[entities.Id]bool)
	var out []entities.Id
	for _, tag := range tags {
		orgID, err := e.orgs.MapTagToClearanceOrgID(ctx, tag)
		if err != nil {
			return nil, err
		}
		if orgID == nil || seen[*orgID] {
			continue
		}
		seen[*orgID] = true
		out = append(out, *orgID)
	}
	return out, nil
}

// FilterPlace applies the clearance policy to one read result: a place
// carrying no clearance-requiring tag passes through unchanged. One
// that does is replaced by its last-cleared historical revision, or
// dropped entirely (nil, nil) if it has never been cleared, or if the
// clearing revision no longer carries the tag that triggered it.
func (e *Engine) FilterPlace(ctx context.Context, item repositories.PlaceWithStatus) (*repositories.PlaceWithStatus, error) {
	orgTag, orgID, err := e.firstClearanceTag(ctx, item.Place.Tags)
	if err != nil {
		return nil, err
	}
	if orgID == nil {
		return &item, nil
	}

	pending, err := e.clearances.LoadPendingClearancesForPlaces(ctx, *orgID, []entities.Id{item.Place.ID})
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return &item, nil
	}
	record := pending[0]
	if record.LastClearedRevision == nil {
		return nil, nil
	}

	historical, err := e.places.LoadPlaceRevision(ctx, item.Place.ID, *record.LastClearedRevision)
	if err != nil {
		return nil, err
	}
	if !containsTag(historical.Place.Tags, orgTag) {
		return nil, nil
	}
	return &historical, nil
}

func (e *Engine) firstClearanceTag(ctx context.Context, tags []string) (string, *entities.Id, error) {
	for _, tag := range tags {
		orgID, err := e.orgs.MapTagToClearanceOrgID(ctx, tag)
		if err != nil {
			return "", nil, err
		}
		if orgID != nil {
			return tag, orgID, nil
		}
	}
	return "", nil, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FilterPlaces applies FilterPlace across a batch, dropping the items
// that resolve to nil.
func (e *Engine) FilterPlaces(ctx context.Context, items []repositories.PlaceWithStatus) ([]repositories.PlaceWithStatus, error) {
	out := make([]repositories.PlaceWithStatus, 0, len(items))
	for _, item := range items {
		filtered, err := e.FilterPlace(ctx, item)
		if err != nil {
			return nil, err
		}
		if filtered != nil {
			out = append(out, *filtered)
		}
	}
	return out, nil
}

// Apply sets the supplied clearances' last-cleared revisions and then
// sweeps away any pending record that has caught up to the place's
// current revision, returning how many clearances were applied.
func (e *Engine) Apply(ctx context.Context, orgID entities.Id, clearances []entities.ClearanceForPlace) (int, error) {
	n, err := e.clearances.UpdatePendingClearancesForPlaces(ctx, orgID, clearances)
	if err != nil {
		return 0, err
	}
	if _, err := e.clearances.CleanupPendingClearancesForPlaces(ctx, orgID); err != nil {
		return 0, err
	}
	return n, nil
}

// CountPending returns how many places orgID still has pending.
func (e *Engine) CountPending(ctx context.Context, orgID entities.Id) (int, error) {
	return e.clearances.CountPendingClearancesForPlaces(ctx, orgID)
}

// ListPending returns orgID's pending clearances, paginated.
func (e *Engine) ListPending(ctx context.Context, orgID entities.Id, pagination entities.Pagination) ([]entities.PendingClearanceForPlace, error) {
	return e.clearances.ListPendingClearancesForPlaces(ctx, orgID, pagination)
}
