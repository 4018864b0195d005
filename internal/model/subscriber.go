// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// NormalizeEmail returns the canonical form of an email: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether a normalized email is acceptable.
// The check is intentionally loose: non-empty and containing '@'.
func ValidEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}

// SubscriberExport is the payload returned by the export endpoint.
type SubscriberExport struct {
	Subscribers []string  `json:"subscribers"`
	Count       int       `json:"count"`
	ExportedAt  time.Time `json:"exported_at"`
}
