// Package emailnotify adapts a gateways.EmailGateway into a
// gateways.NotificationGateway, the way the teacher's
// internal/notification.Dispatcher fans one DecisionPayload out to
// several channels keyed by routes: here the "route" is simply which
// NotificationKind carries an email-worthy payload (account lifecycle
// tokens) versus one that doesn't (place/event changes, which this
// gateway silently drops).
package emailnotify

import (
	"context"
	"fmt"

	"github.com/geoplaces/core/internal/gateways"
)

// Gateway renders account-lifecycle notifications as plain-text email
// and sends them through an underlying EmailGateway. Notifications
// whose Kind has no email rendering are dropped, not errored, so a
// Gateway can sit behind a Filter or be chained with other gateways
// without special-casing kinds it doesn't own.
type Gateway struct {
	email gateways.EmailGateway
}

// New wraps email as a NotificationGateway.
func New(email gateways.EmailGateway) *Gateway {
	return &Gateway{email: email}
}

func (g *Gateway) Notify(ctx context.Context, n gateways.Notification) error {
	msg, ok := render(n)
	if !ok {
		return nil
	}
	recipients := make([]gateways.EmailAddress, len(n.Recipients))
	for i, r := range n.Recipients {
		recipients[i] = gateways.EmailAddress(r)
	}
	return g.email.ComposeAndSend(ctx, recipients, msg)
}

func render(n gateways.Notification) (gateways.EmailMessage, bool) {
	switch n.Kind {
	case gateways.UserRegistered:
		return gateways.EmailMessage{
			Subject: "Confirm your geoplaces account",
			Body:    fmt.Sprintf("Confirm your email with this code: %s", n.Data["confirmation_token"]),
		}, true
	case gateways.UserResetPasswordRequested:
		return gateways.EmailMessage{
			Subject: "Reset your geoplaces password",
			Body:    fmt.Sprintf("Reset your password with this code: %s", n.Data["reset_token"]),
		}, true
	default:
		return gateways.EmailMessage{}, false
	}
}

var _ gateways.NotificationGateway = (*Gateway)(nil)
