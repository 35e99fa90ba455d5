// Package gateways declares the external collaborator contracts the
// core depends on but does not implement: email delivery, push
// notifications, and address geocoding. How each is realized (SMTP,
// webhook, third-party API) is out of scope for the core; flows only
// see these interfaces.
package gateways

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
)

// EmailAddress is a recipient address, kept distinct from a bare
// string so a gateway signature can't be satisfied by an arbitrary
// text value by accident.
type EmailAddress string

// EmailMessage is the rendered content of one outgoing email.
type EmailMessage struct {
	Subject string
	Body    string
}

// EmailGateway sends a composed email to a set of recipients.
// Delivery is best-effort: its return value is logged by the caller,
// never propagated into flow state or used to roll back a commit.
type EmailGateway interface {
	ComposeAndSend(ctx context.Context, recipients []EmailAddress, msg EmailMessage) error
}

// NotificationKind identifies which domain event a Notification
// carries.
type NotificationKind int

const (
	PlaceAdded NotificationKind = iota
	PlaceUpdated
	EventAdded
	EventUpdated
	UserRegistered
	UserResetPasswordRequested
	ReminderCreated
)

func (k NotificationKind) String() string {
	switch k {
	case PlaceAdded:
		return "place_added"
	case PlaceUpdated:
		return "place_updated"
	case EventAdded:
		return "event_added"
	case EventUpdated:
		return "event_updated"
	case UserRegistered:
		return "user_registered"
	case UserResetPasswordRequested:
		return "user_reset_password_requested"
	case ReminderCreated:
		return "reminder_created"
	default:
		return "unknown"
	}
}

// Notification is one domain event headed for the notification
// gateway. Recipients and Data are populated according to Kind; not
// every field is meaningful for every kind (e.g. PlaceID is empty on
// UserRegistered).
type Notification struct {
	Kind       NotificationKind
	PlaceID    *entities.Id
	EventID    *entities.Id
	Recipients []string
	Data       map[string]string
}

// NotificationGateway receives domain events and decides, on its own
// side, which to act on. The core additionally filters by a
// configured allowed-set before a Notification ever reaches here (see
// Filter).
type NotificationGateway interface {
	Notify(ctx context.Context, n Notification) error
}

// GeoCodingGateway resolves a free-text address to coordinates. It is
// optional: when absent, place/event creation must be supplied
// lat/lng directly.
type GeoCodingGateway interface {
	ResolveAddressLatLng(ctx context.Context, address entities.Address) (*entities.MapPoint, error)
}
