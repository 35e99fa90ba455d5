package flows

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
)

// ApplyClearances applies orgID's clearances (recording each
// clearance's revision as orgID's last-cleared revision of that
// place) and then best-effort
// re-indexes every affected place, so a place that was hidden pending
// clearance becomes searchable again immediately rather than waiting
// for the next full Reindex (spec.md §8 scenario 3's full round trip).
func (p *Places) ApplyClearances(ctx context.Context, orgID entities.Id, clearances []entities.ClearanceForPlace) (int, error) {
	if p.Clearance == nil {
		return 0, nil
	}
	n, err := p.Clearance.Apply(ctx, orgID, clearances)
	if err != nil {
		return 0, err
	}

	if p.Index != nil {
		log := p.logger()
		for _, c := range clearances {
			id := c.PlaceID
			bestEffort(ctx, log, "index.refreshClearedPlace", func() error {
				withStatus, err := p.Repo.GetPlace(ctx, id)
				if err != nil {
					return err
				}
				return p.indexPlaceRespectingClearance(ctx, withStatus)
			})
		}
	}

	return n, nil
}
