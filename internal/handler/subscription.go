package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sitekit/sitekit/internal/handler/dto"
	"github.com/sitekit/sitekit/internal/subscriber"
)

// Subscribe adds an email to the mailing list.
// POST /subscribe
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.changeSubscription(w, r, "subscribe", func(svc *subscriber.Service) subscriptionFunc {
		return svc.Subscribe
	})
}

// Unsubscribe removes an email from the mailing list.
// POST /unsubscribe
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.changeSubscription(w, r, "unsubscribe", func(svc *subscriber.Service) subscriptionFunc {
		return svc.Unsubscribe
	})
}

type subscriptionFunc func(ctx context.Context, email string) (subscriber.Result, error)

func (h *Handler) changeSubscription(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	pick func(svc *subscriber.Service) subscriptionFunc,
) {
	if h.subscribers == nil {
		writeError(w, r, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	var req dto.EmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := pick(h.subscribers)(r.Context(), req.Email)
	if errors.Is(err, subscriber.ErrInvalidEmail) {
		writeError(w, r, http.StatusBadRequest, "Valid email is required")
		return
	}
	if err != nil {
		h.internalError(w, r, op, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SubscriptionResponse{
		Message:             result.Message,
		Total:               result.Total,
		AlreadyUnsubscribed: result.AlreadyUnsubscribed,
	})
}

// ExportSubscribers returns the whole mailing list.
// GET /export-subscribers
func (h *Handler) ExportSubscribers(w http.ResponseWriter, r *http.Request) {
	if h.subscribers == nil {
		writeError(w, r, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	export, err := h.subscribers.Export(r.Context())
	if err != nil {
		h.internalError(w, r, "export subscribers", err)
		return
	}
	writeJSON(w, r, http.StatusOK, export)
}
