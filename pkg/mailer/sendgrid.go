package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGrid struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func newSendGrid(apiKey, from string) *SendGrid {
	name, address := parseFrom(from)

	return &SendGrid{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  name,
		fromEmail: address,
	}
}

func (s *SendGrid) From() string {
	return s.fromEmail
}

func (s *SendGrid) Send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, "")

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", to, err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", to, response.StatusCode, response.Body)
	}

	return nil
}
