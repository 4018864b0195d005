package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	tmplApprovalRequest = "approval_request"
	tmplAccessToken     = "access_token"
	tmplRejection       = "rejection"
	tmplNotification    = "notification"
)

// ApprovalRequestData fills the admin's approve/reject email.
type ApprovalRequestData struct {
	Email       string
	RequestedAt time.Time
	ApproveURL  string
	RejectURL   string
	ExpiresIn   string
}

// AccessTokenData fills the email carrying a newly issued access token.
type AccessTokenData struct {
	Token     string
	AccessURL string
}

// NotificationData fills the subscriber update email.
type NotificationData struct {
	Subject    string
	Message    string
	WebsiteURL string
	FromName   string
	FromEmail  string
}

// Lines splits the message for the HTML body, which renders newlines as <br>.
func (d NotificationData) Lines() []string {
	return strings.Split(d.Message, "\n")
}

// Renderer builds Messages from the embedded templates.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	h, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	t, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &Renderer{html: h, text: t}, nil
}

// MustRenderer is NewRenderer for package-level setup; the templates are
// compiled into the binary so a parse failure is a programming error.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// ApprovalRequest renders the email asking the admin to approve a token request.
func (r *Renderer) ApprovalRequest(to string, data ApprovalRequestData) (Message, error) {
	if data.ExpiresIn == "" {
		data.ExpiresIn = "24 hours"
	}
	return r.render(to, "Token Request from "+data.Email, tmplApprovalRequest, data)
}

// AccessToken renders the email delivering an approved access token.
func (r *Renderer) AccessToken(to string, data AccessTokenData) (Message, error) {
	return r.render(to, "Your Access Token Request Has Been Approved", tmplAccessToken, data)
}

// Rejection renders the notice sent when a token request is rejected.
func (r *Renderer) Rejection(to string) (Message, error) {
	return r.render(to, "Token Request Status", tmplRejection, nil)
}

// Notification renders one subscriber update email.
func (r *Renderer) Notification(to string, data NotificationData) (Message, error) {
	return r.render(to, data.Subject, tmplNotification, data)
}

func (r *Renderer) render(to, subject, name string, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := r.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", name, err)
	}
	return Message{
		To:      to,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
