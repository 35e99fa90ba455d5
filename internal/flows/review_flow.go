package flows

import (
	"context"

	"github.com/geoplaces/core/internal/accounts"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

// ReviewPlaces transitions every listed place's current revision to
// status, provided reviewer holds at least RoleScout (spec.md §3.3),
// then refreshes the search index for every listed place:
// places that remain visible get their status updated in place, places
// that became invisible are removed. Archiving never cascades to a
// place's ratings or comments automatically — that is a deliberate,
// separately-triggered operation, not an implicit side effect of this
// flow (see DESIGN.md's open-question resolution).
func (p *Places) ReviewPlaces(ctx context.Context, reviewer entities.Role, ids []entities.Id, status entities.ReviewStatus, activity repositories.ActivityLogEntry) (int, error) {
	if reviewer < entities.RoleScout {
		return 0, accounts.ErrForbidden
	}

	n, err := p.Repo.ReviewPlaces(ctx, ids, status, activity)
	if err != nil {
		return 0, err
	}

	log := p.logger()
	if p.Index != nil {
		for _, id := range ids {
			id := id
			bestEffort(ctx, log, "index.refreshReviewedPlace", func() error {
				return p.refreshPlaceInIndex(ctx, id, status)
			})
		}
	}

	return n, nil
}

func (p *Places) refreshPlaceInIndex(ctx context.Context, id entities.Id, status entities.ReviewStatus) error {
	if !status.Visible() {
		return p.Index.RemoveByID(id)
	}
	withStatus, err := p.Repo.GetPlace(ctx, id)
	if err != nil {
		return err
	}
	return p.indexPlaceRespectingClearance(ctx, withStatus)
}
