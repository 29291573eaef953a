package interfaces

import (
	"context"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
)

// Connector sends activities to a conversation channel. It is the minimum
// transport surface a proactive session needs.
type Connector interface {
	// SendToConversation posts an activity to the conversation identified by
	// the reference. An unreachable or deleted conversation returns an error.
	SendToConversation(ctx context.Context, ref *model.ConversationReference, activity *model.Activity) error
}

// TokenRequest identifies whose token a strategy should resolve. Strategies
// are parameterized strictly by these values, never by ambient session state.
type TokenRequest struct {
	UserID         types.UserID
	ConnectionName string
	ChannelID      string
}

// UserToken is a bearer token resolved for a single user
type UserToken struct {
	Token      string
	Expiration time.Time
}

// TokenStrategy is one mechanism for turning a user identity plus connection
// name into a bearer token. Which strategies exist depends on the deployment
// environment; unavailable ones are skipped.
type TokenStrategy interface {
	// Name identifies the strategy in logs
	Name() string

	// Available reports whether this strategy's capability is configured in
	// the current environment
	Available() bool

	// Acquire attempts to resolve a token. (nil, nil) means no token is
	// available for this user through this strategy, which is not an error.
	Acquire(ctx context.Context, req TokenRequest) (*UserToken, error)

	// SignOut invalidates any cached token for the request. Best effort:
	// callers log and ignore failures before re-acquiring.
	SignOut(ctx context.Context, req TokenRequest) error
}
