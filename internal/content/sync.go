package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Page files and the image directory, relative to the site root.
const (
	ThoughtsPage = "thoughts.html"
	GalleryPage  = "gallery.html"
	GalleryDir   = "assets/gallery"
)

// Options configures a Syncer.
type Options struct {
	// SiteDir holds the pages and the assets directory.
	SiteDir string
	// HTTPClient downloads gallery images. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Mirror optionally copies downloaded images elsewhere.
	Mirror Mirror
	Logger *slog.Logger
}

// ThoughtsResult reports a thoughts sync.
type ThoughtsResult struct {
	Fetched  int
	Rendered int
}

// GalleryResult reports a gallery sync.
type GalleryResult struct {
	Fetched    int
	Rendered   int
	Downloaded int
	Mirrored   int
}

// Syncer regenerates the site pages from a Source.
type Syncer struct {
	source Source
	opts   Options
	logger *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(source Source, opts Options) *Syncer {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{source: source, opts: opts, logger: logger}
}

// SyncThoughts rewrites the thoughts region of thoughts.html.
func (s *Syncer) SyncThoughts(ctx context.Context) (ThoughtsResult, error) {
	thoughts, err := s.source.Thoughts(ctx)
	if err != nil {
		return ThoughtsResult{}, err
	}

	fragment, rendered, err := RenderThoughts(thoughts)
	if err != nil {
		return ThoughtsResult{}, err
	}

	result := ThoughtsResult{Fetched: len(thoughts), Rendered: rendered}
	if err := s.splicePage(ThoughtsPage, ThoughtsStart, ThoughtsEnd, fragment); err != nil {
		return result, err
	}
	return result, nil
}

// SyncGallery downloads new images and rewrites the gallery region of gallery.html.
// Photos without a caption or image are skipped, as are images that fail to download.
func (s *Syncer) SyncGallery(ctx context.Context) (GalleryResult, error) {
	photos, err := s.source.Photos(ctx)
	if err != nil {
		return GalleryResult{}, err
	}
	result := GalleryResult{Fetched: len(photos)}

	dir := filepath.Join(s.opts.SiteDir, filepath.FromSlash(GalleryDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("create gallery dir: %w", err)
	}

	figures := make([]Figure, 0, len(photos))
	for _, p := range photos {
		if p.Caption == "" || p.ImageURL == "" {
			continue
		}

		name := ImageFilename(p.ID, p.ImageURL)
		local := filepath.Join(dir, name)

		downloaded, err := s.ensureImage(ctx, p.ImageURL, local)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Error("failed to download image", "file", name, "error", err)
			continue
		}
		if downloaded {
			result.Downloaded++
			s.logger.Info("downloaded image", "file", name)
		}

		if s.opts.Mirror != nil {
			uploaded, err := s.opts.Mirror.Put(ctx, name, local)
			if err != nil {
				s.logger.Warn("failed to mirror image", "file", name, "error", err)
			} else if uploaded {
				result.Mirrored++
			}
		}

		figures = append(figures, Figure{Src: path.Join(GalleryDir, name), Caption: p.Caption})
	}

	result.Rendered = len(figures)
	if err := s.splicePage(GalleryPage, GalleryStart, GalleryEnd, RenderGallery(figures)); err != nil {
		return result, err
	}
	return result, nil
}

// ImageFilename names a gallery image after the first 8 characters of its
// page id (dashes removed) and the extension of its URL path, .jpg by default.
func ImageFilename(pageID, imageURL string) string {
	id := strings.ReplaceAll(pageID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}

	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	ext := path.Ext(p)
	if ext == "" {
		ext = ".jpg"
	}
	return id + ext
}

// ensureImage downloads src to dst unless dst exists.
func (s *Syncer) ensureImage(ctx context.Context, src, dst string) (bool, error) {
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return false, err
	}
	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("failed to download image: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Syncer) splicePage(name, start, end, fragment string) error {
	p := filepath.Join(s.opts.SiteDir, name)

	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	updated, err := Splice(string(data), start, end, fragment)
	if err != nil {
		return fmt.Errorf("%w in %s", err, name)
	}

	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
