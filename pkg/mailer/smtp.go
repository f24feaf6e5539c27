package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

const dialTimeout = 10 * time.Second

// SMTP delivers through one relay account. Sends are serialized so the credential is
// never used by more than one in-flight session.
type SMTP struct {
	sem       chan struct{}
	addr      string
	host      string
	username  string
	password  string
	useTLS    bool
	tlsConfig *tls.Config
	dialer    *net.Dialer
	from      string
}

func newSMTP(cfg *Config, from string) *SMTP {
	return &SMTP{
		sem:      make(chan struct{}, 1),
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:     cfg.Host,
		username: cfg.Username,
		password: cfg.Password,
		useTLS:   cfg.UseTLS,
		tlsConfig: &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for relays with self-signed certificates
		},
		dialer: &net.Dialer{Timeout: dialTimeout},
		from:   from,
	}
}

func (s *SMTP) From() string {
	return s.from
}

// Send runs one SMTP session bounded by ctx: the connection deadline follows ctx, so a
// stalled relay releases the account when ctx expires.
func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
	defer func() { <-s.sem }()

	if err := s.send(ctx, to, s.compose(to, subject, body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	return nil
}

func (s *SMTP) send(ctx context.Context, to string, m *gomail.Message) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return sessionErr(ctx, "dial", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return sessionErr(ctx, "greeting", err)
	}
	defer func() {
		_ = c.Close()
	}()

	secure := s.useTLS

	if !secure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig); err != nil {
				return sessionErr(ctx, "starttls", err)
			}

			secure = true
		}
	}

	// PLAIN credentials only travel over TLS.
	if secure && s.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
				return sessionErr(ctx, "auth", err)
			}
		}
	}

	_, fromAddr := parseFrom(s.from)

	if err := c.Mail(fromAddr); err != nil {
		return sessionErr(ctx, "mail from", err)
	}

	if err := c.Rcpt(to); err != nil {
		return sessionErr(ctx, "rcpt to", err)
	}

	w, err := c.Data()
	if err != nil {
		return sessionErr(ctx, "data", err)
	}

	if _, err := m.WriteTo(w); err != nil {
		return sessionErr(ctx, "write", err)
	}

	if err := w.Close(); err != nil {
		return sessionErr(ctx, "data end", err)
	}

	if err := c.Quit(); err != nil {
		return sessionErr(ctx, "quit", err)
	}

	return nil
}

func (s *SMTP) dial(ctx context.Context) (net.Conn, error) {
	if s.useTLS {
		d := &tls.Dialer{NetDialer: s.dialer, Config: s.tlsConfig}
		return d.DialContext(ctx, "tcp", s.addr)
	}

	return s.dialer.DialContext(ctx, "tcp", s.addr)
}

func (s *SMTP) compose(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return m
}

// sessionErr reports ctx's error instead of the i/o timeout it caused.
func sessionErr(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", step, ctxErr)
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%s: %w", step, context.DeadlineExceeded)
	}

	return fmt.Errorf("%s: %w", step, err)
}
