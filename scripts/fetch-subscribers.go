// fetch-subscribers downloads the mailing list from a running site and saves
// it as a JSON array for the notify command's SUBSCRIBERS_FILE.
//
// Usage:
//
//	go run ./scripts/fetch-subscribers.go [-out subscribers.json] [-database-url URL] [website-url]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sitekit/sitekit/internal/middleware"
	"github.com/sitekit/sitekit/internal/model"
	"github.com/sitekit/sitekit/internal/repository"
)

func main() {
	var (
		out          = flag.String("out", "subscribers.json", "Output file")
		databaseURL  = flag.String("database-url", "", "Also import the list into this PostgreSQL database")
		exportSecret = flag.String("export-secret", os.Getenv("EXPORT_SECRET"), "Value for the export secret header, if the site requires one")
	)
	flag.Parse()

	websiteURL := flag.Arg(0)
	if websiteURL == "" {
		websiteURL = os.Getenv("WEBSITE_URL")
	}
	if websiteURL == "" {
		websiteURL = "http://localhost:8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Printf("Fetching subscribers from %s...\n", websiteURL)

	subscribers, err := fetchSubscribers(ctx, websiteURL, *exportSecret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error fetching subscribers:", err)
		os.Exit(1)
	}
	if len(subscribers) == 0 {
		fmt.Println("No subscribers found.")
		return
	}

	data, err := json.MarshalIndent(subscribers, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode subscribers:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "write subscribers:", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Successfully fetched %d subscribers\n", len(subscribers))
	fmt.Printf("✓ Saved to %s\n", *out)

	if *databaseURL != "" {
		inserted, err := importSubscribers(ctx, *databaseURL, subscribers)
		if err != nil {
			fmt.Fprintln(os.Stderr, "import subscribers:", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Imported %d new subscribers into PostgreSQL\n", inserted)
	}

	fmt.Println("\nSubscribers:")
	for i, email := range subscribers {
		fmt.Printf("  %d. %s\n", i+1, email)
	}

	fmt.Println("\nYou can now send notifications using:")
	fmt.Printf("  SUBSCRIBERS_FILE=%s go run ./cmd/notify \"Subject\" \"Message\"\n", *out)
}

func fetchSubscribers(ctx context.Context, websiteURL, secret string) ([]string, error) {
	endpoint := strings.TrimRight(websiteURL, "/") + "/api/export-subscribers"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if secret != "" {
		req.Header.Set(middleware.ExportSecretHeader, secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var export model.SubscriberExport
	if err := json.Unmarshal(body, &export); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if export.Subscribers == nil {
		return []string{}, nil
	}
	return export.Subscribers, nil
}

func importSubscribers(ctx context.Context, databaseURL string, emails []string) (int64, error) {
	repo, err := repository.New(ctx, databaseURL)
	if err != nil {
		return 0, err
	}
	defer repo.Close()

	subs := repo.Subscribers()
	if err := subs.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	return subs.Import(ctx, emails)
}
