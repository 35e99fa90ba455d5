// Package smtpmail implements gateways.EmailGateway over net/smtp.
// Subject/body composition mirrors the teacher's text/template
// rendering for outgoing notifications (internal/notification/email.go),
// adapted here to a single plain-text body instead of an HTML+text
// pair since outgoing mail in this domain is a short transactional
// link, not a rich decision summary. No SMTP client library appears
// anywhere in the retrieved corpus (see DESIGN.md), so this one
// concern is built on the standard library.
package smtpmail

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/geoplaces/core/internal/gateways"
)

// Gateway sends mail through a single SMTP relay.
type Gateway struct {
	addr string
	auth smtp.Auth
	from string
}

// New builds a Gateway that dials addr (host:port) and authenticates
// with auth, sending mail as from.
func New(addr string, auth smtp.Auth, from string) *Gateway {
	return &Gateway{addr: addr, auth: auth, from: from}
}

var bodyTemplate = template.Must(template.New("body").Parse(
	"{{.Body}}\n"))

// ComposeAndSend renders msg and sends it to recipients. Callers treat
// failures as best-effort: the error is returned for logging, never
// for rolling back the flow that triggered it.
func (g *Gateway) ComposeAndSend(ctx context.Context, recipients []gateways.EmailAddress, msg gateways.EmailMessage) error {
	if len(recipients) == 0 {
		return nil
	}
	var body bytes.Buffer
	if err := bodyTemplate.Execute(&body, msg); err != nil {
		return fmt.Errorf("render email body: %w", err)
	}

	to := make([]string, len(recipients))
	for i, r := range recipients {
		to[i] = string(r)
	}

	data := fmt.Sprintf("From: %s\r\nSubject: %s\r\n\r\n%s", g.from, msg.Subject, body.String())
	return smtp.SendMail(g.addr, g.auth, g.from, to, []byte(data))
}

var _ gateways.EmailGateway = (*Gateway)(nil)
