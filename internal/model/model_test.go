package model

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user@example.com"},
		{"  User@Example.COM ", "user@example.com"},
		{"\tMIXED@case.org\n", "mixed@case.org"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"a@b", true},
		{"", false},
		{"no-at-sign", false},
	}

	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestNewPendingRequest(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	req := NewPendingRequest("a@example.com", now)

	if req.Status != RequestStatusPending {
		t.Errorf("expected pending status, got %s", req.Status)
	}
	if req.Timestamp != now.UnixMilli() {
		t.Errorf("expected timestamp %d, got %d", now.UnixMilli(), req.Timestamp)
	}
	if !req.RequestedAt().Equal(now) {
		t.Errorf("RequestedAt = %v, want %v", req.RequestedAt(), now)
	}
	if len(req.ID) != 26 {
		t.Errorf("expected 26-char ULID, got %q", req.ID)
	}
}

func TestPendingList_Remove(t *testing.T) {
	t.Parallel()

	list := PendingList{
		{Email: "a@example.com"},
		{Email: "b@example.com"},
		{Email: "c@example.com"},
	}

	if !list.Remove("b@example.com") {
		t.Fatal("expected Remove to report a removal")
	}
	if len(list) != 2 || list.Contains("b@example.com") {
		t.Errorf("unexpected list after remove: %+v", list)
	}
	if list.Remove("b@example.com") {
		t.Error("second Remove should report nothing removed")
	}
	if !list.Contains("a@example.com") || !list.Contains("c@example.com") {
		t.Errorf("other entries should remain: %+v", list)
	}
}

func TestTokenMap(t *testing.T) {
	t.Parallel()

	m := TokenMap{"a@example.com": "tokenA", "b@example.com": "tokenB"}

	if !m.HasToken("a@example.com") {
		t.Error("expected a@example.com to have a token")
	}
	if m.HasToken("c@example.com") {
		t.Error("did not expect c@example.com to have a token")
	}
	if !m.Contains("tokenB") {
		t.Error("expected tokenB to be valid")
	}
	if m.Contains("tokenC") || m.Contains("") {
		t.Error("unknown or empty token must not be valid")
	}

	var empty TokenMap
	if empty.Contains("tokenA") || empty.HasToken("a@example.com") {
		t.Error("nil map must contain nothing")
	}
}
