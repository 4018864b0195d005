package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// Notion property names read from the databases.
const (
	propContent = "Content"
	propDate    = "Date"
	propCaption = "Caption"
	propImage   = "Image"
)

// DatabaseQuerier is the part of the Notion client the source needs.
type DatabaseQuerier interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// NotionSource reads thoughts and photos from two Notion databases.
type NotionSource struct {
	db         DatabaseQuerier
	thoughtsDB notionapi.DatabaseID
	galleryDB  notionapi.DatabaseID
}

// NewNotionSource creates a source authenticated with token.
// Either database id may be empty when that page is not synced.
func NewNotionSource(token, thoughtsDB, galleryDB string, httpClient *http.Client) *NotionSource {
	opts := []notionapi.ClientOption{}
	if httpClient != nil {
		opts = append(opts, notionapi.WithHTTPClient(httpClient))
	}
	client := notionapi.NewClient(notionapi.Token(token), opts...)
	return NewNotionSourceFromQuerier(client.Database, thoughtsDB, galleryDB)
}

// NewNotionSourceFromQuerier creates a source on an existing database client.
func NewNotionSourceFromQuerier(db DatabaseQuerier, thoughtsDB, galleryDB string) *NotionSource {
	return &NotionSource{
		db:         db,
		thoughtsDB: notionapi.DatabaseID(thoughtsDB),
		galleryDB:  notionapi.DatabaseID(galleryDB),
	}
}

// Thoughts implements Source.
func (s *NotionSource) Thoughts(ctx context.Context) ([]Thought, error) {
	pages, err := s.queryAll(ctx, s.thoughtsDB)
	if err != nil {
		return nil, err
	}

	thoughts := make([]Thought, 0, len(pages))
	for _, p := range pages {
		thoughts = append(thoughts, Thought{
			ID:      p.ID.String(),
			Content: richText(p.Properties[propContent]),
			Date:    date(p.Properties[propDate]),
		})
	}
	return thoughts, nil
}

// Photos implements Source.
func (s *NotionSource) Photos(ctx context.Context) ([]Photo, error) {
	pages, err := s.queryAll(ctx, s.galleryDB)
	if err != nil {
		return nil, err
	}

	photos := make([]Photo, 0, len(pages))
	for _, p := range pages {
		photos = append(photos, Photo{
			ID:       p.ID.String(),
			Caption:  richText(p.Properties[propCaption]),
			ImageURL: fileURL(p.Properties[propImage]),
			Date:     date(p.Properties[propDate]),
		})
	}
	return photos, nil
}

// queryAll fetches every page of a database sorted by Date, newest first.
func (s *NotionSource) queryAll(ctx context.Context, id notionapi.DatabaseID) ([]notionapi.Page, error) {
	if id == "" {
		return nil, errors.New("notion database id is empty")
	}

	var pages []notionapi.Page
	var cursor notionapi.Cursor
	for {
		resp, err := s.db.Query(ctx, id, &notionapi.DatabaseQueryRequest{
			Sorts: []notionapi.SortObject{
				{Property: propDate, Direction: notionapi.SortOrderDESC},
			},
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, fmt.Errorf("query notion database %s: %w", id, err)
		}

		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}

func richText(prop notionapi.Property) string {
	var parts []notionapi.RichText
	switch p := prop.(type) {
	case *notionapi.RichTextProperty:
		parts = p.RichText
	case *notionapi.TitleProperty:
		parts = p.Title
	default:
		return ""
	}

	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

func date(prop notionapi.Property) time.Time {
	p, ok := prop.(*notionapi.DateProperty)
	if !ok || p.Date == nil || p.Date.Start == nil {
		return time.Time{}
	}
	return time.Time(*p.Date.Start)
}

// fileURL returns the first file's URL, uploaded or external.
func fileURL(prop notionapi.Property) string {
	p, ok := prop.(*notionapi.FilesProperty)
	if !ok || len(p.Files) == 0 {
		return ""
	}

	f := p.Files[0]
	switch {
	case f.Type == notionapi.FileTypeFile && f.File != nil:
		return f.File.URL
	case f.Type == notionapi.FileTypeExternal && f.External != nil:
		return f.External.URL
	default:
		return ""
	}
}
