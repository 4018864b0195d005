// Package content regenerates the static site pages from a Notion workspace.
//
// Each page carries a pair of HTML comment markers; everything between them
// is replaced on every sync, everything outside is left byte for byte.
package content

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Marker pairs delimiting the generated regions.
const (
	ThoughtsStart = "<!-- THOUGHTS_START -->"
	ThoughtsEnd   = "<!-- THOUGHTS_END -->"
	GalleryStart  = "<!-- GALLERY_START -->"
	GalleryEnd    = "<!-- GALLERY_END -->"
)

// ErrMarkersNotFound is returned when a page lacks its start or end marker.
var ErrMarkersNotFound = errors.New("markers not found")

// Thought is a short dated note.
type Thought struct {
	ID      string
	Content string
	Date    time.Time
}

// Photo is a captioned gallery image.
type Photo struct {
	ID       string
	Caption  string
	ImageURL string
	Date     time.Time
}

// Source lists content newest first.
type Source interface {
	Thoughts(ctx context.Context) ([]Thought, error)
	Photos(ctx context.Context) ([]Photo, error)
}

// Splice replaces the text between startMarker and endMarker with fragment.
// The markers stay in place and the closing marker keeps its indentation.
func Splice(page, startMarker, endMarker, fragment string) (string, error) {
	start := strings.Index(page, startMarker)
	end := strings.Index(page, endMarker)
	if start == -1 || end == -1 || end < start+len(startMarker) {
		return "", ErrMarkersNotFound
	}

	before := page[:start+len(startMarker)]
	after := page[end:]
	return before + "\n" + fragment + "\n        " + after, nil
}
