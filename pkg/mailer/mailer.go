package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDriver = errors.New("unknown mailer driver")

const (
	DriverSMTP     = "smtp"
	DriverSendGrid = "sendgrid"
	DriverNone     = "none"
)

// Mailer sends plain-text messages through a single outbound channel.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
	From() string
}

type Config struct {
	Driver             string
	Host               string
	Port               int
	Username           string
	Password           string
	From               string // "Name <no-reply@example.com>" or just "no-reply@example.com"
	UseTLS             bool   // true = implicit TLS (465); false = STARTTLS when offered
	InsecureSkipVerify bool
	SendGridAPIKey     string
}

// New builds the mailer for cfg.Driver. An empty From falls back to the account username.
func New(cfg *Config) (Mailer, error) {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	switch cfg.Driver {
	case DriverSMTP, "":
		return newSMTP(cfg, from), nil
	case DriverSendGrid:
		return newSendGrid(cfg.SendGridAPIKey, from), nil
	case DriverNone:
		return NoEmail{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// parseFrom splits "Name <addr>" into its parts.
func parseFrom(from string) (name, address string) {
	if i := strings.Index(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			return strings.TrimSpace(from[:i]), strings.TrimSpace(from[i+1 : i+j])
		}
	}

	return "", strings.TrimSpace(from)
}
