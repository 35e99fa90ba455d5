// Package flows composes the single-aggregate repositories,
// clearance, search index, and notification gateway into the
// multi-step operations spec.md defines at the API boundary:
// creating/updating a place, reviewing places, rating a place,
// managing events, and account lifecycle notifications. Each
// operation's own-aggregate write is transactional at the repository
// layer (see internal/storage/sqlite); search-index refresh and
// notification dispatch run afterwards, best-effort, and never roll
// the commit back on failure. This mirrors spec.md §5's distinction
// between the transactional write and its post-commit side effects,
// rather than nesting every side effect inside one SQL transaction —
// see DESIGN.md for why.
package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/geoplaces/core/internal/clearance"
	"github.com/geoplaces/core/internal/gateways"
	"github.com/geoplaces/core/internal/index"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/subscriptions"
	"github.com/geoplaces/core/internal/usecases"
)

// Places bundles the repositories and collaborators a place-centric
// flow needs.
type Places struct {
	Repo        repositories.PlaceRepo
	Orgs        repositories.OrganizationRepo
	Ratings     repositories.RatingRepo
	Clearance   *clearance.Engine
	Index       index.PlaceIndex
	Subs        *subscriptions.Engine
	Notify      gateways.NotificationGateway
	Geocoder    gateways.GeoCodingGateway
	PopularTags *usecases.PopularTagsCache
	Log         *zap.Logger
}

// logger returns p.Log, or a no-op logger if unset.
func (p *Places) logger() *zap.Logger {
	if p.Log != nil {
		return p.Log
	}
	return zap.NewNop()
}

// bestEffort runs fn and logs, rather than returns, its error. Used
// for the post-commit steps (index refresh, notification dispatch)
// that must never unwind an already-committed write.
func bestEffort(ctx context.Context, log *zap.Logger, step string, fn func() error) {
	if err := fn(); err != nil {
		log.Error("post-commit step failed", zap.String("step", step), zap.Error(err))
	}
}
