package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/render"
)

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Heading}}</title>
  </head>
  <body style="font-family: Arial, sans-serif; padding: 40px; text-align: center;">
    <h2{{with .Color}} style="color: {{.}};"{{end}}>{{.Heading}}</h2>
    {{- with .Email}}
    <p>{{$.Before}} <strong>{{.}}</strong>{{$.After}}</p>
    {{- end}}
    {{- range .Lines}}
    <p>{{.}}</p>
    {{- end}}
    {{- with .Note}}
    <p style="color: #666; margin-top: 30px;">{{.}}</p>
    {{- end}}
  </body>
</html>
`))

// page is the data of the small HTML pages shown after following an
// approve or reject link.
type page struct {
	Heading string
	Color   string
	Before  string
	Email   string
	After   string
	Lines   []string
	Note    string
}

var (
	pageMissingToken = page{
		Heading: "Invalid Request",
		Lines:   []string{"Missing approval token."},
	}
	pageInvalidApproval = page{
		Heading: "Invalid or Expired Link",
		Lines:   []string{"This approval link is invalid or has expired."},
	}
	pageInvalidRejection = page{
		Heading: "Invalid or Expired Link",
		Lines:   []string{"This rejection link is invalid or has expired."},
	}
)

func pageApproved(email string) page {
	return page{
		Heading: "✓ Request Approved",
		Color:   "#28a745",
		Before:  "Token has been sent to",
		Email:   email,
		Note:    "You can close this page.",
	}
}

func pageApprovedMailFailed() page {
	return page{
		Heading: "⚠ Request Approved",
		Color:   "#ffc107",
		Lines:   []string{"Token generated but email sending failed."},
		Note:    "Please check the server logs.",
	}
}

func pageRejected(email string) page {
	return page{
		Heading: "✗ Request Rejected",
		Color:   "#dc3545",
		Before:  "Request from",
		Email:   email,
		After:   " has been rejected.",
		Note:    "You can close this page.",
	}
}

// writePage renders p with the given status.
func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, status int, p page) {
	var buf bytes.Buffer
	if err := resultPage.Execute(&buf, p); err != nil {
		h.internalError(w, r, "render page", err)
		return
	}
	render.Status(r, status)
	render.HTML(w, r, buf.String())
}
