package content

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

const timestampLayout = "January 2, 2006"

// Raw HTML in a note is dropped; goldmark escapes it unless WithUnsafe is set.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

// RenderThoughts builds the thoughts fragment. Notes without content are skipped.
func RenderThoughts(thoughts []Thought) (string, int, error) {
	blocks := make([]string, 0, len(thoughts))
	for _, t := range thoughts {
		text := strings.TrimSpace(t.Content)
		if text == "" {
			continue
		}

		var buf bytes.Buffer
		if err := markdown.Convert([]byte(text), &buf); err != nil {
			return "", 0, fmt.Errorf("render thought %s: %w", t.ID, err)
		}

		// Only the first line of the rendered note is indented so code blocks keep their text.
		lines := []string{"<hr>", strings.TrimSpace(buf.String())}
		if !t.Date.IsZero() {
			lines = append(lines, `<p class="timestamp">`+t.Date.Format(timestampLayout)+`</p>`)
		}
		blocks = append(blocks, indent(lines, 10))
	}
	return strings.Join(blocks, "\n"), len(blocks), nil
}

// Figure is a rendered gallery entry.
type Figure struct {
	Src     string
	Caption string
}

// RenderGallery builds the gallery fragment.
func RenderGallery(figures []Figure) string {
	blocks := make([]string, 0, len(figures))
	for _, f := range figures {
		src := html.EscapeString(f.Src)
		caption := html.EscapeString(f.Caption)
		blocks = append(blocks, indent([]string{"<figure>"}, 12)+"\n"+
			indent([]string{
				fmt.Sprintf(`<img src="%s" alt="%s" />`, src, caption),
				"<figcaption>" + caption + "</figcaption>",
			}, 14)+"\n"+
			indent([]string{"</figure>"}, 12))
	}
	return strings.Join(blocks, "\n")
}

func indent(lines []string, n int) string {
	pad := strings.Repeat(" ", n)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = pad + l
	}
	return strings.Join(out, "\n")
}
