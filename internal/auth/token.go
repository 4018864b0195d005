// Package auth generates and checks the credentials used by the access gate.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// AccessTokenLen is the length of an access token.
	AccessTokenLen = 32
	// ApprovalTokenLen is the length of an approval token (hex encoded 16 bytes).
	ApprovalTokenLen = 32

	accessTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	accessTokenRegex   = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)
	approvalTokenRegex = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// GenerateAccessToken returns a random 32-character alphanumeric token.
func GenerateAccessToken() (string, error) {
	token, err := gonanoid.Generate(accessTokenAlphabet, AccessTokenLen)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return token, nil
}

// GenerateApprovalToken returns a random 32-character hex token for admin links.
func GenerateApprovalToken() (string, error) {
	b := make([]byte, ApprovalTokenLen/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate approval token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidAccessTokenFormat reports whether token looks like an access token.
func ValidAccessTokenFormat(token string) bool {
	return accessTokenRegex.MatchString(token)
}

// ValidApprovalTokenFormat reports whether token looks like an approval token.
func ValidApprovalTokenFormat(token string) bool {
	return approvalTokenRegex.MatchString(token)
}
