package subscriptions

import (
	"context"
	"sync"
	"time"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/gateways"
	"github.com/geoplaces/core/internal/repositories"
)

// TargetContact selects who a reminder addresses.
type TargetContact int

const (
	// Owner addresses the place's own contact email.
	Owner TargetContact = iota
	// Scout addresses every user with RoleScout subscribed to a bbox
	// containing the place.
	Scout
)

// Reminder sweeps for places that have gone stale under review and
// emits a ReminderCreated notification per recipient group, skipping
// anything reminded within resendPeriod. The last-reminded timestamps
// it tracks are process-local: a restart resets the cooldown, which
// only risks an extra reminder rather than a missed one.
type Reminder struct {
	places repositories.PlaceRepo
	users  repositories.UserRepo
	subs   repositories.SubscriptionRepo
	notify gateways.NotificationGateway

	mu           sync.Mutex
	lastReminded map[entities.Id]entities.Timestamp
}

// NewReminder wires a Reminder to its repositories and gateway.
func NewReminder(places repositories.PlaceRepo, users repositories.UserRepo, subs repositories.SubscriptionRepo, notify gateways.NotificationGateway) *Reminder {
	return &Reminder{
		places:       places,
		users:        users,
		subs:         subs,
		notify:       notify,
		lastReminded: make(map[entities.Id]entities.Timestamp),
	}
}

// SendUpdateReminders finds places whose current revision is Confirmed
// and whose last activity predates unchangedSince, reminds target's
// recipients for each, and returns how many reminders were sent versus
// how many recipient lookups or notify calls failed. Per-item failures
// are aggregated rather than aborting the sweep, per spec.md §7.
func (r *Reminder) SendUpdateReminders(ctx context.Context, target TargetContact, unchangedSince, now entities.Timestamp, resendPeriod time.Duration) (sent, failed int, err error) {
	places, err := r.places.AllPlaces(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, p := range places {
		if p.Status != entities.Confirmed {
			continue
		}
		if !p.Place.Created.At.Before(unchangedSince) {
			continue
		}
		if r.remindedRecently(p.Place.ID, now, resendPeriod) {
			continue
		}

		recipients, rerr := r.recipientsFor(ctx, target, p.Place)
		if rerr != nil {
			failed++
			continue
		}
		if len(recipients) == 0 {
			continue
		}

		placeID := p.Place.ID
		if nerr := r.notify.Notify(ctx, gateways.Notification{
			Kind:       gateways.ReminderCreated,
			PlaceID:    &placeID,
			Recipients: recipients,
		}); nerr != nil {
			failed++
			continue
		}

		r.mu.Lock()
		r.lastReminded[p.Place.ID] = now
		r.mu.Unlock()
		sent++
	}
	return sent, failed, nil
}

func (r *Reminder) remindedRecently(id entities.Id, now entities.Timestamp, resendPeriod time.Duration) bool {
	r.mu.Lock()
	last, ok := r.lastReminded[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return time.Duration(int64(now)-int64(last))*time.Millisecond < resendPeriod
}

func (r *Reminder) recipientsFor(ctx context.Context, target TargetContact, place entities.Place) ([]string, error) {
	switch target {
	case Owner:
		if place.Contact == nil || place.Contact.Email == nil {
			return nil, nil
		}
		return []string{*place.Contact.Email}, nil

	case Scout:
		subs, err := r.subs.AllBboxSubscriptions(ctx)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool)
		var out []string
		for _, s := range subs {
			if seen[s.UserEmail] || !s.Bbox().ContainsPoint(place.Location.Pos) {
				continue
			}
			user, err := r.users.TryGetUserByEmail(ctx, s.UserEmail)
			if err != nil {
				return nil, err
			}
			if user == nil || user.Role != entities.RoleScout {
				continue
			}
			seen[s.UserEmail] = true
			out = append(out, s.UserEmail)
		}
		return out, nil

	default:
		return nil, nil
	}
}
