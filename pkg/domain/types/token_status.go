package types

import "fmt"

// TokenStatus represents the last known token state of a user
type TokenStatus string

const (
	TokenStatusUnknown     TokenStatus = "unknown"
	TokenStatusActive      TokenStatus = "active"
	TokenStatusUnavailable TokenStatus = "unavailable"
)

// AllTokenStatuses returns all valid token statuses
func AllTokenStatuses() []TokenStatus {
	return []TokenStatus{
		TokenStatusUnknown,
		TokenStatusActive,
		TokenStatusUnavailable,
	}
}

// IsValid checks if the token status is valid
func (s TokenStatus) IsValid() bool {
	switch s {
	case TokenStatusUnknown, TokenStatusActive, TokenStatusUnavailable:
		return true
	default:
		return false
	}
}

// String returns the string representation of the token status
func (s TokenStatus) String() string {
	return string(s)
}

// ParseTokenStatus parses a string into a TokenStatus
func ParseTokenStatus(s string) (TokenStatus, error) {
	status := TokenStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid token status: %s", s)
	}
	return status, nil
}
