// Package handler provides HTTP request handlers.
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sitekit/sitekit/internal/access"
	"github.com/sitekit/sitekit/internal/handler/dto"
	"github.com/sitekit/sitekit/internal/subscriber"
)

// Error messages shared by several endpoints.
const (
	msgNotConfigured = "Database not configured"
	msgInternal      = "Internal server error"
	msgInvalidBody   = "Invalid request body"
)

// Deps are the handles a Handler serves from. Nil Subscribers or Gate means
// storage is not configured and the matching endpoints answer 500.
type Deps struct {
	Subscribers *subscriber.Service
	Gate        *access.Gate
	Logger      *slog.Logger

	// RateLimit wraps the public POST endpoints.
	RateLimit func(http.Handler) http.Handler
	// ExportGuard wraps the subscriber export.
	ExportGuard func(http.Handler) http.Handler
}

// Handler serves the site API.
type Handler struct {
	subscribers *subscriber.Service
	gate        *access.Gate
	logger      *slog.Logger
	rateLimit   func(http.Handler) http.Handler
	exportGuard func(http.Handler) http.Handler
}

// New creates a new Handler instance.
func New(deps Deps) *Handler {
	passthrough := func(next http.Handler) http.Handler { return next }

	h := &Handler{
		subscribers: deps.Subscribers,
		gate:        deps.Gate,
		logger:      deps.Logger,
		rateLimit:   deps.RateLimit,
		exportGuard: deps.ExportGuard,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.rateLimit == nil {
		h.rateLimit = passthrough
	}
	if h.exportGuard == nil {
		h.exportGuard = passthrough
	}
	return h
}

// Routes registers the site endpoints on r. It is mounted both at the root
// and under /api, since emailed links use the /api form.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Post("/subscribe", h.Subscribe)
		r.Post("/unsubscribe", h.Unsubscribe)
		r.Post("/request-token", h.RequestToken)
		r.Post("/verify-token", h.VerifyToken)
	})

	r.With(h.exportGuard).Get("/export-subscribers", h.ExportSubscribers)

	r.Get("/approve-token", h.ApproveToken)
	r.Post("/approve-token", h.ApproveToken)
	r.Get("/reject-token", h.RejectToken)
	r.Post("/reject-token", h.RejectToken)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

// internalError logs err and answers 500.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op+" failed", slog.String("error", err.Error()))
	writeError(w, r, http.StatusInternalServerError, msgInternal)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: message})
}

// decodeJSON decodes an optional JSON body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := render.DecodeJSON(r.Body, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
