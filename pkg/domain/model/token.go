package model

import (
	"log/slog"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
)

// TokenResult is the tagged outcome of a token acquisition attempt. It is
// transient and never persisted.
type TokenResult struct {
	// Success fields
	Token          string
	Expiration     time.Time
	ConnectionName string
	ChannelID      string

	// Failure fields
	Kind    types.ErrKind
	Message string
	cause   error
}

// NewTokenSuccess builds a successful acquisition result
func NewTokenSuccess(token string, expiration time.Time, connectionName, channelID string) *TokenResult {
	return &TokenResult{
		Token:          token,
		Expiration:     expiration,
		ConnectionName: connectionName,
		ChannelID:      channelID,
	}
}

// NewTokenFailure builds a failed acquisition result. cause may be nil.
func NewTokenFailure(kind types.ErrKind, message string, cause error) *TokenResult {
	return &TokenResult{
		Kind:    kind,
		Message: message,
		cause:   cause,
	}
}

// OK reports whether the acquisition succeeded
func (r *TokenResult) OK() bool {
	return r != nil && r.Token != ""
}

// Cause returns the underlying error of a failure, if any
func (r *TokenResult) Cause() error {
	return r.cause
}

// LogValue keeps raw tokens out of log output
func (r *TokenResult) LogValue() slog.Value {
	if r.OK() {
		return slog.GroupValue(
			slog.Bool("ok", true),
			slog.Int("token.len", len(r.Token)),
			slog.Time("expiration", r.Expiration),
			slog.String("connection", r.ConnectionName),
		)
	}
	return slog.GroupValue(
		slog.Bool("ok", false),
		slog.String("kind", r.Kind.String()),
		slog.String("message", r.Message),
	)
}
