// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// EmailRequest is the body of subscribe, unsubscribe and request-token.
type EmailRequest struct {
	Email string `json:"email"`
}

// TokenRequest is the body of verify-token and, optionally, approve/reject-token.
type TokenRequest struct {
	Token string `json:"token"`
}

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubscriptionResponse is returned by subscribe and unsubscribe.
type SubscriptionResponse struct {
	Message             string `json:"message"`
	Total               int    `json:"total"`
	AlreadyUnsubscribed bool   `json:"alreadyUnsubscribed,omitempty"`
}

// RequestTokenResponse is returned when an access request is recorded.
type RequestTokenResponse struct {
	Message string `json:"message"`
	Pending bool   `json:"pending"`
}

// RequestTokenError explains why an access request was refused.
type RequestTokenError struct {
	Error             string `json:"error"`
	HasExistingToken  bool   `json:"has_existing_token,omitempty"`
	HasPendingRequest bool   `json:"has_pending_request,omitempty"`
}

// VerifyTokenResponse is returned by verify-token.
type VerifyTokenResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
