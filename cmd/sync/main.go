// Package main is the entrypoint for the content sync command.
//
// Usage:
//
//	sync [thoughts|gallery|all]
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sitekit/sitekit/internal/bootstrap"
	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/content"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := "all"
	if len(os.Args) > 1 {
		target = os.Args[1]
	}

	if err := run(ctx, target); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, target string) error {
	var thoughts, gallery bool
	switch target {
	case "thoughts":
		thoughts = true
	case "gallery":
		gallery = true
	case "all":
		thoughts, gallery = true, true
	default:
		return fmt.Errorf("unknown target %q (want thoughts, gallery or all)", target)
	}

	cfg, err := config.LoadSync(".env")
	if err != nil {
		return err
	}
	if err := cfg.Validate(thoughts, gallery); err != nil {
		return err
	}

	logger := bootstrap.NewLogger(os.Stderr, cfg.LogLevel, "text")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	opts := content.Options{
		SiteDir:    cfg.SiteDir,
		HTTPClient: httpClient,
		Logger:     logger,
	}
	if gallery && cfg.S3.Enabled() {
		mirror, err := content.NewS3Mirror(ctx, content.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			return err
		}
		opts.Mirror = mirror
	}

	source := content.NewNotionSource(cfg.NotionToken, cfg.NotionDatabaseID, cfg.NotionGalleryDatabaseID, httpClient)
	syncer := content.NewSyncer(source, opts)

	if thoughts {
		result, err := syncer.SyncThoughts(ctx)
		if err != nil {
			return fmt.Errorf("sync thoughts: %w", err)
		}
		fmt.Printf("✓ Synced %d thoughts from Notion\n", result.Rendered)
	}

	if gallery {
		result, err := syncer.SyncGallery(ctx)
		if err != nil {
			return fmt.Errorf("sync gallery: %w", err)
		}
		fmt.Printf("✓ Synced %d images from Notion (%d new downloads)\n", result.Rendered, result.Downloaded)
		if opts.Mirror != nil {
			fmt.Printf("✓ Mirrored %d images to s3://%s/%s\n", result.Mirrored, cfg.S3.Bucket, cfg.S3.Prefix)
		}
	}

	return nil
}
