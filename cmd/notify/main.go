// Package main is the entrypoint for the subscriber notification command.
//
// Usage:
//
//	notify [subject] [message]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sitekit/sitekit/internal/bootstrap"
	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/mail"
	"github.com/sitekit/sitekit/internal/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.LoadNotify(".env")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := bootstrap.NewLogger(os.Stderr, cfg.LogLevel, "text")

	content := notify.Content{Subject: notify.DefaultSubject, Message: notify.DefaultMessage}
	if len(args) > 0 {
		content.Subject = args[0]
	}
	if len(args) > 1 {
		content.Message = args[1]
	}

	recipients, err := loadRecipients(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		fmt.Println("No subscribers found.")
		return nil
	}

	smtpCfg := cfg.Mail.SMTP()
	session, err := mail.NewSMTPSender(smtpCfg).Open(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Sending %q to %d subscribers...\n", content.Subject, len(recipients))

	n := notify.New(session, nil, notify.Options{
		Delay:      cfg.Delay,
		WebsiteURL: cfg.Site.WebsiteURL,
		FromName:   smtpCfg.FromName,
		FromEmail:  smtpCfg.From(),
	}, logger)

	summary, err := n.Run(ctx, recipients, content)
	fmt.Printf("Done. Sent: %d, Failed: %d, Total: %d\n", summary.Sent, summary.Failed, summary.Total)
	return err
}

func loadRecipients(ctx context.Context, cfg *config.Notify, logger *slog.Logger) ([]string, error) {
	if cfg.SubscribersFile != "" {
		return notify.LoadRecipients(cfg.SubscribersFile)
	}

	backends, err := bootstrap.OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	defer backends.Close()

	if backends.Subscribers == nil {
		return nil, errors.New("storage not configured: set STORAGE_BACKEND or SUBSCRIBERS_FILE")
	}
	return backends.Subscribers.List(ctx)
}
