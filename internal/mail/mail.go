// Package mail renders and delivers the site's transactional emails.
package mail

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a Disabled sender.
var ErrNotConfigured = errors.New("email not configured")

// Message is one rendered email to a single recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP settings.
type Config struct {
	Host      string
	Port      int
	User      string
	Pass      string
	FromEmail string
	FromName  string
}

// Configured reports whether enough settings are present to send mail.
func (c Config) Configured() bool {
	return c.Host != "" && c.User != "" && c.Pass != ""
}

// From returns the sender address, falling back to the SMTP user.
func (c Config) From() string {
	if c.FromEmail != "" {
		return c.FromEmail
	}
	return c.User
}

// New returns an SMTP sender when cfg is complete and a Disabled sender otherwise.
func New(cfg Config) Sender {
	if !cfg.Configured() {
		return Disabled{}
	}
	return NewSMTPSender(cfg)
}

// Disabled rejects every message with ErrNotConfigured.
type Disabled struct{}

// Send implements Sender.
func (Disabled) Send(ctx context.Context, msg Message) error {
	return ErrNotConfigured
}
