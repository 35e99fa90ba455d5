package emailnotify

import (
	"context"
	"testing"

	"github.com/geoplaces/core/internal/gateways"
)

type fakeEmailGateway struct {
	recipients []gateways.EmailAddress
	msg        gateways.EmailMessage
	calls      int
}

func (f *fakeEmailGateway) ComposeAndSend(ctx context.Context, recipients []gateways.EmailAddress, msg gateways.EmailMessage) error {
	f.recipients = recipients
	f.msg = msg
	f.calls++
	return nil
}

func TestNotifyRendersUserRegistered(t *testing.T) {
	email := &fakeEmailGateway{}
	g := New(email)

	err := g.Notify(context.Background(), gateways.Notification{
		Kind:       gateways.UserRegistered,
		Recipients: []string{"a@example.com"},
		Data:       map[string]string{"confirmation_token": "abc123"},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if email.calls != 1 {
		t.Fatalf("calls = %d; want 1", email.calls)
	}
	if len(email.recipients) != 1 || email.recipients[0] != "a@example.com" {
		t.Fatalf("recipients = %v", email.recipients)
	}
}

func TestNotifyDropsUnrenderedKinds(t *testing.T) {
	email := &fakeEmailGateway{}
	g := New(email)

	err := g.Notify(context.Background(), gateways.Notification{Kind: gateways.PlaceAdded})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if email.calls != 0 {
		t.Fatalf("calls = %d; want 0", email.calls)
	}
}
