package auth

import (
	"testing"
)

func TestGenerateAccessToken_Format(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		token, err := GenerateAccessToken()
		if err != nil {
			t.Fatalf("GenerateAccessToken failed: %v", err)
		}
		if len(token) != AccessTokenLen {
			t.Fatalf("expected %d chars, got %d (%q)", AccessTokenLen, len(token), token)
		}
		if !ValidAccessTokenFormat(token) {
			t.Fatalf("token %q is not alphanumeric", token)
		}
	}
}

func TestGenerateAccessToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		token, err := GenerateAccessToken()
		if err != nil {
			t.Fatalf("GenerateAccessToken failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestGenerateApprovalToken(t *testing.T) {
	t.Parallel()

	a, err := GenerateApprovalToken()
	if err != nil {
		t.Fatalf("GenerateApprovalToken failed: %v", err)
	}
	b, err := GenerateApprovalToken()
	if err != nil {
		t.Fatalf("GenerateApprovalToken failed: %v", err)
	}

	if !ValidApprovalTokenFormat(a) || !ValidApprovalTokenFormat(b) {
		t.Errorf("unexpected approval token format: %q %q", a, b)
	}
	if a == b {
		t.Error("approval tokens should differ")
	}
}

func TestValidAccessTokenFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid", "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdef", true},
		{"too short", "abc", false},
		{"too long", "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefg", false},
		{"symbols", "ABCDEFGHIJKLMNOPQRSTUVWXYZabcde!", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidAccessTokenFormat(tt.token); got != tt.want {
				t.Errorf("ValidAccessTokenFormat(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
