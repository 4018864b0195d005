package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestStatus is the state of a pending access request.
type RequestStatus string

// RequestStatusPending marks a request awaiting approval. Decided requests
// are removed from the list rather than relabeled.
const RequestStatusPending RequestStatus = "pending"

// PendingRequest is an access request awaiting an admin decision.
// Timestamp is Unix milliseconds.
type PendingRequest struct {
	ID        string        `json:"id,omitempty"`
	Email     string        `json:"email"`
	Timestamp int64         `json:"timestamp"`
	Status    RequestStatus `json:"status"`
}

// NewPendingRequest creates a pending request for a normalized email.
func NewPendingRequest(email string, now time.Time) PendingRequest {
	return PendingRequest{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Email:     email,
		Timestamp: now.UnixMilli(),
		Status:    RequestStatusPending,
	}
}

// RequestedAt returns the request time.
func (p PendingRequest) RequestedAt() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// PendingList is the stored list of pending requests.
type PendingList []PendingRequest

// Contains reports whether email has a pending request.
func (l PendingList) Contains(email string) bool {
	return l.index(email) >= 0
}

// Remove deletes the request for email and reports whether one was found.
func (l *PendingList) Remove(email string) bool {
	i := l.index(email)
	if i < 0 {
		return false
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
	return true
}

func (l PendingList) index(email string) int {
	for i, req := range l {
		if req.Email == email {
			return i
		}
	}
	return -1
}

// TokenMap maps a normalized email to its access token.
type TokenMap map[string]string

// HasToken reports whether email has been issued a token.
func (m TokenMap) HasToken(email string) bool {
	_, ok := m[email]
	return ok
}

// Contains reports whether token was issued to anyone.
func (m TokenMap) Contains(token string) bool {
	if token == "" {
		return false
	}
	for _, t := range m {
		if t == token {
			return true
		}
	}
	return false
}
