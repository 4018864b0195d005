// Package notify mails a site update to every subscriber.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sitekit/sitekit/internal/mail"
	"github.com/sitekit/sitekit/internal/model"
)

// Defaults used when the command is run without arguments.
const (
	DefaultSubject = "Website Update"
	DefaultMessage = "I've updated my website with new content! Check it out!"
)

// Content is the update announced to subscribers.
type Content struct {
	Subject string
	Message string
}

// Summary counts the outcome of a run.
type Summary struct {
	Total  int
	Sent   int
	Failed int
}

// Options configures a Notifier.
type Options struct {
	// Delay is the pause after one send completes and before the next starts.
	// Zero sends back to back.
	Delay      time.Duration
	WebsiteURL string
	FromName   string
	FromEmail  string
}

// Notifier sends one notification email per recipient, serially.
// Failed sends are counted and logged, never retried.
type Notifier struct {
	sender   mail.Sender
	renderer *mail.Renderer
	opts     Options
	logger   *slog.Logger
}

// New creates a Notifier. A nil renderer uses the embedded templates.
func New(sender mail.Sender, renderer *mail.Renderer, opts Options, logger *slog.Logger) *Notifier {
	if renderer == nil {
		renderer = mail.MustRenderer()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		sender:   sender,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// Run mails content to every recipient. It stops early only when ctx is
// done, returning the partial summary with ctx's error.
func (n *Notifier) Run(ctx context.Context, recipients []string, content Content) (Summary, error) {
	summary := Summary{Total: len(recipients)}

	for i, to := range recipients {
		if i > 0 {
			if err := pause(ctx, n.opts.Delay); err != nil {
				return summary, err
			}
		}

		if err := n.send(ctx, to, content); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed++
			n.logger.Error("failed to send notification", "to", to, "error", err)
			continue
		}
		summary.Sent++
		n.logger.Info("notification sent", "to", to)
	}

	return summary, nil
}

// pause waits d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (n *Notifier) send(ctx context.Context, to string, content Content) error {
	msg, err := n.renderer.Notification(to, mail.NotificationData{
		Subject:    content.Subject,
		Message:    content.Message,
		WebsiteURL: n.opts.WebsiteURL,
		FromName:   n.opts.FromName,
		FromEmail:  n.opts.FromEmail,
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

// LoadRecipients reads a JSON array of emails, as written by the
// fetch-subscribers script. Entries are normalized; invalid and repeated
// addresses are dropped.
func LoadRecipients(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subscribers file: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse subscribers file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, email := range raw {
		email = model.NormalizeEmail(email)
		if !model.ValidEmail(email) {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out, nil
}
