package interfaces

import (
	"context"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
)

// UserContextRepository provides persistence for per-user conversation
// contexts. The map holds at most one entry per user ID; Put overwrites.
type UserContextRepository interface {
	// Get retrieves a user context by ID. Returns ErrNotFound-wrapped error
	// when the user is unknown.
	Get(ctx context.Context, userID types.UserID) (*model.UserContext, error)

	// Put upserts a user context (last-write-wins)
	Put(ctx context.Context, uc *model.UserContext) error

	// List retrieves all stored user contexts
	List(ctx context.Context) ([]*model.UserContext, error)
}
