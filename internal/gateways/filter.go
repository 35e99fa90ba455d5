package gateways

import (
	"context"
	"errors"
)

// Filter wraps a NotificationGateway and drops any Notification whose
// Kind is not in the configured allowed set, so operators can silence
// notification types (e.g. ReminderCreated) without the gateway
// implementation itself needing to know about configuration.
type Filter struct {
	next    NotificationGateway
	allowed map[NotificationKind]bool
}

// NewFilter wraps next, allowing only the listed kinds through.
func NewFilter(next NotificationGateway, allowed ...NotificationKind) *Filter {
	set := make(map[NotificationKind]bool, len(allowed))
	for _, k := range allowed {
		set[k] = true
	}
	return &Filter{next: next, allowed: set}
}

func (f *Filter) Notify(ctx context.Context, n Notification) error {
	if !f.allowed[n.Kind] {
		return nil
	}
	return f.next.Notify(ctx, n)
}

var _ NotificationGateway = (*Filter)(nil)

// Broadcast fans one Notification out to every wrapped gateway,
// running each in turn and joining their errors rather than stopping
// at the first failure, so one channel being down (e.g. SMTP) doesn't
// suppress delivery on the others (e.g. a webhook).
type Broadcast []NotificationGateway

func (b Broadcast) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, g := range b {
		if err := g.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ NotificationGateway = (Broadcast)(nil)
