package content

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSplice(t *testing.T) {
	t.Parallel()

	page := "<main>\n        " + ThoughtsStart + "\n          old\n        " + ThoughtsEnd + "\n</main>\n"

	got, err := Splice(page, ThoughtsStart, ThoughtsEnd, "          new")
	if err != nil {
		t.Fatalf("Splice failed: %v", err)
	}
	want := "<main>\n        " + ThoughtsStart + "\n          new\n        " + ThoughtsEnd + "\n</main>\n"
	if got != want {
		t.Errorf("unexpected result:\n%q\nwant:\n%q", got, want)
	}

	again, err := Splice(got, ThoughtsStart, ThoughtsEnd, "          new")
	if err != nil {
		t.Fatalf("second Splice failed: %v", err)
	}
	if again != got {
		t.Errorf("splicing the same fragment twice should be stable:\n%q\n%q", got, again)
	}
}

func TestSplice_EmptyFragment(t *testing.T) {
	t.Parallel()

	got, err := Splice("a"+GalleryStart+"x"+GalleryEnd+"b", GalleryStart, GalleryEnd, "")
	if err != nil {
		t.Fatalf("Splice failed: %v", err)
	}
	want := "a" + GalleryStart + "\n\n        " + GalleryEnd + "b"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplice_MissingMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page string
	}{
		{"no markers", "<html></html>"},
		{"start only", ThoughtsStart},
		{"end only", ThoughtsEnd},
		{"reversed", ThoughtsEnd + ThoughtsStart},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Splice(tt.page, ThoughtsStart, ThoughtsEnd, "x"); !errors.Is(err, ErrMarkersNotFound) {
				t.Errorf("expected ErrMarkersNotFound, got %v", err)
			}
		})
	}
}

func TestRenderThoughts(t *testing.T) {
	t.Parallel()

	thoughts := []Thought{
		{ID: "1", Content: "Hello **world**", Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Content: "   "},
		{ID: "3", Content: "<script>alert(1)</script>plain", Date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	got, n, err := RenderThoughts(thoughts)
	if err != nil {
		t.Fatalf("RenderThoughts failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rendered thoughts, got %d", n)
	}

	wantFirst := "          <hr>\n" +
		"          <p>Hello <strong>world</strong></p>\n" +
		`          <p class="timestamp">March 5, 2024</p>`
	if !strings.HasPrefix(got, wantFirst) {
		t.Errorf("unexpected first block:\n%s", got)
	}
	if !strings.Contains(got, `<p class="timestamp">December 31, 2023</p>`) {
		t.Errorf("missing second timestamp:\n%s", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should not pass through:\n%s", got)
	}
	if strings.Count(got, "<hr>") != 2 {
		t.Errorf("expected one <hr> per rendered thought:\n%s", got)
	}
}

func TestRenderThoughts_Empty(t *testing.T) {
	t.Parallel()

	got, n, err := RenderThoughts(nil)
	if err != nil {
		t.Fatalf("RenderThoughts failed: %v", err)
	}
	if got != "" || n != 0 {
		t.Errorf("expected empty output, got %q (%d)", got, n)
	}
}

func TestRenderGallery(t *testing.T) {
	t.Parallel()

	got := RenderGallery([]Figure{
		{Src: "assets/gallery/abcd1234.png", Caption: `Sunset "over" the bay`},
	})

	want := "            <figure>\n" +
		`              <img src="assets/gallery/abcd1234.png" alt="Sunset &#34;over&#34; the bay" />` + "\n" +
		"              <figcaption>Sunset &#34;over&#34; the bay</figcaption>\n" +
		"            </figure>"
	if got != want {
		t.Errorf("unexpected gallery:\n%s\nwant:\n%s", got, want)
	}
}

func TestImageFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		url  string
		want string
	}{
		{"1a2b3c4d-5e6f-7081-92a3-b4c5d6e7f809", "https://files.example.com/img/photo.png?X-Amz-Signature=abc", "1a2b3c4d.png"},
		{"1a2b-3c4d-5e6f", "https://example.com/photo", "1a2b3c4d.jpg"},
		{"abc", "https://example.com/a.webp", "abc.webp"},
	}

	for _, tt := range tests {
		tt := tt
		if got := ImageFilename(tt.id, tt.url); got != tt.want {
			t.Errorf("ImageFilename(%q, %q) = %q, want %q", tt.id, tt.url, got, tt.want)
		}
	}
}
