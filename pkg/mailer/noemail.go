package mailer

import "context"

// NoEmail accepts and drops every message; used when no relay is configured.
type NoEmail struct{}

func (NoEmail) Send(ctx context.Context, to, subject, body string) error {
	return ctx.Err()
}

func (NoEmail) From() string {
	return ""
}
