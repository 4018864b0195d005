// Package access implements the token gate protecting private pages.
//
// A visitor requests access with an email. The admin receives single-use
// approve/reject links; approving issues a permanent access token that the
// site later checks with Verify.
package access

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sitekit/sitekit/internal/auth"
	"github.com/sitekit/sitekit/internal/mail"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/model"
	"github.com/sitekit/sitekit/internal/store"
)

// Store keys.
const (
	TokensKey      = "user_tokens:map"
	PendingKey     = "token_requests:pending"
	approvalPrefix = "approval:"
)

// ApprovalTTL is how long approve/reject links stay valid.
const ApprovalTTL = 24 * time.Hour

// Gate errors.
var (
	ErrInvalidEmail    = errors.New("valid email is required")
	ErrHasToken        = errors.New("access token already issued")
	ErrPending         = errors.New("access request already pending")
	ErrMissingToken    = errors.New("approval token is required")
	ErrInvalidApproval = errors.New("approval token is invalid or expired")
)

// Config holds the addresses the gate links to and mails.
type Config struct {
	AdminEmail string
	// WebsiteURL is the base of the approve/reject links.
	WebsiteURL string
	// PrivateURL is the page linked from the access token email.
	PrivateURL string
}

// Approval is the outcome of approving a request.
type Approval struct {
	Email     string
	EmailSent bool
}

// Rejection is the outcome of rejecting a request.
type Rejection struct {
	Email     string
	EmailSent bool
}

// Gate runs the request, approve/reject, verify lifecycle.
type Gate struct {
	store    store.Store
	mailer   mail.Sender
	renderer *mail.Renderer
	cfg      Config
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewGate creates a new Gate.
func NewGate(s store.Store, sender mail.Sender, renderer *mail.Renderer, cfg Config, recorder metrics.Recorder) *Gate {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if sender == nil {
		sender = mail.Disabled{}
	}
	if renderer == nil {
		renderer = mail.MustRenderer()
	}
	cfg.WebsiteURL = strings.TrimSuffix(cfg.WebsiteURL, "/")
	return &Gate{
		store:    s,
		mailer:   sender,
		renderer: renderer,
		cfg:      cfg,
		metrics:  recorder,
		now:      time.Now,
	}
}

// Request records a pending access request for email and mails the admin
// approve/reject links. A failed admin email is logged, not returned.
func (g *Gate) Request(ctx context.Context, email string) (model.PendingRequest, error) {
	email = model.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return model.PendingRequest{}, ErrInvalidEmail
	}

	tokens, err := g.tokens(ctx)
	if err != nil {
		return model.PendingRequest{}, err
	}
	if tokens.HasToken(email) {
		return model.PendingRequest{}, ErrHasToken
	}

	// The approval link is stored before the pending entry so a request is
	// never left pending without a way to approve it.
	approvalToken, err := auth.GenerateApprovalToken()
	if err != nil {
		return model.PendingRequest{}, err
	}
	approvalKey := approvalPrefix + approvalToken
	if err := store.SetJSON(ctx, g.store, approvalKey, email, ApprovalTTL); err != nil {
		return model.PendingRequest{}, fmt.Errorf("save approval token: %w", err)
	}

	req := model.NewPendingRequest(email, g.now())
	_, err = store.UpdateJSON(ctx, g.store, PendingKey, func(list *model.PendingList) (bool, error) {
		if list.Contains(email) {
			return false, ErrPending
		}
		*list = append(*list, req)
		return true, nil
	})
	if err != nil {
		if derr := g.store.Delete(ctx, approvalKey); derr != nil {
			slog.ErrorContext(ctx, "failed to discard unused approval token", "error", derr)
		}
		if errors.Is(err, ErrPending) {
			return model.PendingRequest{}, err
		}
		return model.PendingRequest{}, fmt.Errorf("record pending request: %w", err)
	}

	g.metrics.IncTokenRequested()
	slog.InfoContext(ctx, "access requested", "request_id", req.ID)

	if err := g.sendApprovalRequest(ctx, req, approvalToken); err != nil {
		g.metrics.IncMailFailed("approval_request")
		slog.ErrorContext(ctx, "failed to send approval request email",
			"request_id", req.ID,
			"error", err,
		)
	}

	return req, nil
}

func (g *Gate) sendApprovalRequest(ctx context.Context, req model.PendingRequest, approvalToken string) error {
	if g.cfg.AdminEmail == "" {
		return errors.New("admin email not configured")
	}
	q := url.Values{"token": {approvalToken}}.Encode()
	msg, err := g.renderer.ApprovalRequest(g.cfg.AdminEmail, mail.ApprovalRequestData{
		Email:       req.Email,
		RequestedAt: req.RequestedAt(),
		ApproveURL:  g.cfg.WebsiteURL + "/api/approve-token?" + q,
		RejectURL:   g.cfg.WebsiteURL + "/api/reject-token?" + q,
	})
	if err != nil {
		return err
	}
	return g.mailer.Send(ctx, msg)
}

// Approve consumes approvalToken, issues an access token for its email and
// mails it. The token is issued even if the email fails.
func (g *Gate) Approve(ctx context.Context, approvalToken string) (Approval, error) {
	email, err := g.consume(ctx, approvalToken)
	if err != nil {
		return Approval{}, err
	}

	candidate, err := auth.GenerateAccessToken()
	if err != nil {
		return Approval{}, err
	}

	// An email keeps the first token it was issued.
	tokens, err := store.UpdateJSON(ctx, g.store, TokensKey, func(m *model.TokenMap) (bool, error) {
		if *m == nil {
			*m = model.TokenMap{}
		}
		if m.HasToken(email) {
			return false, nil
		}
		(*m)[email] = candidate
		return true, nil
	})
	if err != nil {
		return Approval{}, fmt.Errorf("save access token: %w", err)
	}
	token := tokens[email]

	g.metrics.IncTokenApproved()
	slog.InfoContext(ctx, "access approved")

	result := Approval{Email: email}
	msg, err := g.renderer.AccessToken(email, mail.AccessTokenData{
		Token:     token,
		AccessURL: g.cfg.PrivateURL,
	})
	if err == nil {
		err = g.mailer.Send(ctx, msg)
	}
	if err != nil {
		g.metrics.IncMailFailed("access_token")
		slog.ErrorContext(ctx, "failed to send access token email", "error", err)
		return result, nil
	}

	result.EmailSent = true
	return result, nil
}

// Reject consumes approvalToken and notifies the requester. The notice is best-effort.
func (g *Gate) Reject(ctx context.Context, approvalToken string) (Rejection, error) {
	email, err := g.consume(ctx, approvalToken)
	if err != nil {
		return Rejection{}, err
	}

	g.metrics.IncTokenRejected()
	slog.InfoContext(ctx, "access rejected")

	result := Rejection{Email: email}
	msg, err := g.renderer.Rejection(email)
	if err == nil {
		err = g.mailer.Send(ctx, msg)
	}
	if err != nil {
		if !errors.Is(err, mail.ErrNotConfigured) {
			g.metrics.IncMailFailed("rejection")
		}
		slog.WarnContext(ctx, "rejection notice not sent", "error", err)
		return result, nil
	}

	result.EmailSent = true
	return result, nil
}

// consume takes the approval token and drops the matching pending request.
func (g *Gate) consume(ctx context.Context, approvalToken string) (string, error) {
	approvalToken = strings.TrimSpace(approvalToken)
	if approvalToken == "" {
		return "", ErrMissingToken
	}
	if !auth.ValidApprovalTokenFormat(approvalToken) {
		return "", ErrInvalidApproval
	}

	data, err := g.store.Take(ctx, approvalPrefix+approvalToken)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidApproval
	}
	if err != nil {
		return "", fmt.Errorf("take approval token: %w", err)
	}

	email, err := decodeEmail(data)
	if err != nil {
		return "", err
	}

	_, err = store.UpdateJSON(ctx, g.store, PendingKey, func(list *model.PendingList) (bool, error) {
		return list.Remove(email), nil
	})
	if err != nil {
		return "", fmt.Errorf("remove pending request: %w", err)
	}
	return email, nil
}

// Verify reports whether token was issued to anyone. Empty input is never valid.
func (g *Gate) Verify(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		g.metrics.IncTokenVerified(metrics.OutcomeInvalid)
		return false, nil
	}

	tokens, err := g.tokens(ctx)
	if err != nil {
		return false, err
	}

	valid := tokens.Contains(token)
	if valid {
		g.metrics.IncTokenVerified(metrics.OutcomeValid)
	} else {
		g.metrics.IncTokenVerified(metrics.OutcomeInvalid)
	}
	return valid, nil
}

// decodeEmail accepts a JSON string or, for values written by other tools, a bare one.
func decodeEmail(data []byte) (string, error) {
	var email string
	if err := json.Unmarshal(data, &email); err != nil {
		email = string(data)
	}
	email = model.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return "", ErrInvalidApproval
	}
	return email, nil
}

func (g *Gate) tokens(ctx context.Context) (model.TokenMap, error) {
	tokens := model.TokenMap{}
	err := store.GetJSON(ctx, g.store, TokensKey, &tokens)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load access tokens: %w", err)
	}
	return tokens, nil
}
