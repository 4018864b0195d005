package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSender delivers mail through gomail, dialing once per Send.
type SMTPSender struct {
	cfg    Config
	dialer *gomail.Dialer
}

// NewSMTPSender creates a sender for cfg. Port 465 uses implicit TLS.
func NewSMTPSender(cfg Config) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.SSL = cfg.Port == 465
	return &SMTPSender{cfg: cfg, dialer: d}
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.compose(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// Open dials the server and authenticates, returning a Session that reuses
// the connection. A failing Open means the SMTP settings are unusable.
func (s *SMTPSender) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := s.dialer.Dial()
	if err != nil {
		return nil, fmt.Errorf("connect to smtp server %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	return &Session{sender: s, conn: conn}, nil
}

func (s *SMTPSender) compose(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From(), s.cfg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	return m
}

// Session sends many messages over one SMTP connection.
// It is not safe for concurrent use.
type Session struct {
	sender *SMTPSender
	conn   gomail.SendCloser
}

// Send implements Sender. A failed send drops the connection, since a
// refused recipient leaves the server mid-transaction; the next Send dials
// a fresh one.
func (s *Session) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.conn == nil {
		conn, err := s.sender.dialer.Dial()
		if err != nil {
			return fmt.Errorf("reconnect to smtp server %s:%d: %w", s.sender.cfg.Host, s.sender.cfg.Port, err)
		}
		s.conn = conn
	}
	if err := gomail.Send(s.conn, s.sender.compose(msg)); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// Close ends the SMTP session.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
