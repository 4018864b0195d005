package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sitekit/sitekit/internal/access"
	"github.com/sitekit/sitekit/internal/handler/dto"
)

// Messages returned by the token endpoints.
const (
	msgRequestSubmitted = "Your request has been submitted. You will receive an email with your access token once approved."
	msgHasToken         = "You already have a token. Please use your existing token to access. If you lost it, contact the administrator."
	msgPending          = "You already have a pending request. Please wait for approval."
	msgTokenRequired    = "Token is required"
	msgTokenValid       = "Token is valid"
	msgTokenInvalid     = "Invalid token"
)

// RequestToken records an access request and notifies the admin.
// POST /request-token
func (h *Handler) RequestToken(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		writeError(w, r, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	var req dto.EmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	_, err := h.gate.Request(r.Context(), req.Email)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, dto.RequestTokenResponse{
			Message: msgRequestSubmitted,
			Pending: true,
		})
	case errors.Is(err, access.ErrInvalidEmail):
		writeError(w, r, http.StatusBadRequest, "Valid email is required")
	case errors.Is(err, access.ErrHasToken):
		writeJSON(w, r, http.StatusBadRequest, dto.RequestTokenError{
			Error:            msgHasToken,
			HasExistingToken: true,
		})
	case errors.Is(err, access.ErrPending):
		writeJSON(w, r, http.StatusBadRequest, dto.RequestTokenError{
			Error:             msgPending,
			HasPendingRequest: true,
		})
	default:
		h.internalError(w, r, "request token", err)
	}
}

// ApproveToken issues an access token for the request behind an approval link.
// GET|POST /approve-token?token=
func (h *Handler) ApproveToken(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		writeError(w, r, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	approval, err := h.gate.Approve(r.Context(), approvalToken(r))
	switch {
	case err == nil && approval.EmailSent:
		h.writePage(w, r, http.StatusOK, pageApproved(approval.Email))
	case err == nil:
		h.writePage(w, r, http.StatusOK, pageApprovedMailFailed())
	case errors.Is(err, access.ErrMissingToken):
		h.writePage(w, r, http.StatusBadRequest, pageMissingToken)
	case errors.Is(err, access.ErrInvalidApproval):
		h.writePage(w, r, http.StatusBadRequest, pageInvalidApproval)
	default:
		h.internalError(w, r, "approve token", err)
	}
}

// RejectToken discards the request behind an approval link.
// GET|POST /reject-token?token=
func (h *Handler) RejectToken(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		writeError(w, r, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	rejection, err := h.gate.Reject(r.Context(), approvalToken(r))
	switch {
	case err == nil:
		h.writePage(w, r, http.StatusOK, pageRejected(rejection.Email))
	case errors.Is(err, access.ErrMissingToken):
		h.writePage(w, r, http.StatusBadRequest, pageMissingToken)
	case errors.Is(err, access.ErrInvalidApproval):
		h.writePage(w, r, http.StatusBadRequest, pageInvalidRejection)
	default:
		h.internalError(w, r, "reject token", err)
	}
}

// VerifyToken checks an access token.
// POST /verify-token
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		writeError(w, r, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Token) == "" {
		writeJSON(w, r, http.StatusBadRequest, dto.VerifyTokenResponse{Error: msgTokenRequired})
		return
	}

	valid, err := h.gate.Verify(r.Context(), req.Token)
	if err != nil {
		h.internalError(w, r, "verify token", err)
		return
	}
	if !valid {
		writeJSON(w, r, http.StatusUnauthorized, dto.VerifyTokenResponse{Error: msgTokenInvalid})
		return
	}
	writeJSON(w, r, http.StatusOK, dto.VerifyTokenResponse{Valid: true, Message: msgTokenValid})
}

// approvalToken reads the token from the query string, falling back to a JSON body.
func approvalToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if r.Method != http.MethodPost {
		return ""
	}
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		return ""
	}
	return req.Token
}
