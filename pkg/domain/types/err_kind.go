package types

// ErrKind classifies token acquisition and proactive session failures.
// Callers use it to pick a user-facing or API-facing message.
type ErrKind string

const (
	// ErrKindNoContext means the user has never interacted with the bot,
	// so there is no conversation reference to reopen.
	ErrKindNoContext ErrKind = "no-context"

	// ErrKindSessionOpenFailed means the stored conversation channel could
	// not be reopened (deleted conversation, unreachable service URL).
	ErrKindSessionOpenFailed ErrKind = "session-open-failed"

	// ErrKindUnavailable means every acquisition strategy was exhausted
	// without producing a token; the user needs to sign in again.
	ErrKindUnavailable ErrKind = "unavailable"

	// ErrKindTransport means a downstream API call failed.
	ErrKindTransport ErrKind = "transport"

	// ErrKindTimeout means a sign-in or session deadline was exceeded.
	ErrKindTimeout ErrKind = "timeout"
)

// IsValid checks if the error kind is valid
func (k ErrKind) IsValid() bool {
	switch k {
	case ErrKindNoContext, ErrKindSessionOpenFailed, ErrKindUnavailable,
		ErrKindTransport, ErrKindTimeout:
		return true
	default:
		return false
	}
}

// String returns the string representation of the error kind
func (k ErrKind) String() string {
	return string(k)
}
