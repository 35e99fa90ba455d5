// Package subscriptions implements the bbox-subscription notification
// engine (post-commit place-change fanout) and the stale-place
// reminder sweep, both built over internal/repositories and
// internal/gateways the same way internal/clearance is built over its
// own pair of repositories.
package subscriptions

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/gateways"
	"github.com/geoplaces/core/internal/repositories"
)

// Engine notifies bbox subscribers when a place is created or moved
// into their region. Call it after the owning flow commits; a failure
// here must never roll back the data transaction that already
// committed (spec.md §4.8).
type Engine struct {
	subs   repositories.SubscriptionRepo
	notify gateways.NotificationGateway
}

// NewEngine wires an Engine to its subscription store and
// notification gateway.
func NewEngine(subs repositories.SubscriptionRepo, notify gateways.NotificationGateway) *Engine {
	return &Engine{subs: subs, notify: notify}
}

// NotifyPlaceChanged emits kind (PlaceAdded or PlaceUpdated) to every
// subscriber whose bbox contains place's location. No subscribers
// means no call to the gateway.
func (e *Engine) NotifyPlaceChanged(ctx context.Context, place entities.Place, kind gateways.NotificationKind) error {
	all, err := e.subs.AllBboxSubscriptions(ctx)
	if err != nil {
		return err
	}
	recipients := matchingRecipients(all, place.Location.Pos)
	if len(recipients) == 0 {
		return nil
	}
	placeID := place.ID
	return e.notify.Notify(ctx, gateways.Notification{
		Kind:       kind,
		PlaceID:    &placeID,
		Recipients: recipients,
	})
}

func matchingRecipients(subs []entities.BboxSubscription, pos entities.MapPoint) []string {
	var out []string
	for _, s := range subs {
		if s.Bbox().ContainsPoint(pos) {
			out = append(out, s.UserEmail)
		}
	}
	return out
}
