package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/logging"
)

// ContextUseCase owns the per-user conversation context map. It runs on
// every inbound turn, so Record never fails the turn: malformed input and
// repository errors are logged and dropped.
type ContextUseCase struct {
	repo interfaces.Repository
	now  func() time.Time
}

// NewContextUseCase creates a new ContextUseCase
func NewContextUseCase(repo interfaces.Repository) *ContextUseCase {
	return &ContextUseCase{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Record extracts and upserts a UserContext from an inbound activity.
// Repeated calls for the same user only refresh the denormalized fields and
// LastUpdated; CreatedAt and the token bookkeeping survive.
func (uc *ContextUseCase) Record(ctx context.Context, activity *model.Activity) {
	logger := logging.From(ctx)

	capture := model.NewUserContext(activity, uc.now())
	if capture == nil {
		// No sender ID: nothing to key on
		logger.Debug("skipping context capture without sender ID")
		return
	}

	existing, err := uc.repo.UserContext().Get(ctx, capture.UserID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		logger.Error("failed to load user context, dropping capture",
			"userID", capture.UserID, "error", err.Error())
		return
	}

	record := capture
	if existing != nil {
		existing.Merge(capture)
		record = existing
	}

	if err := uc.repo.UserContext().Put(ctx, record); err != nil {
		logger.Error("failed to save user context, dropping capture",
			"userID", capture.UserID, "error", err.Error())
		return
	}

	logger.Debug("user context recorded",
		"userID", record.UserID,
		"channelID", record.ChannelID,
	)
}

// Get is a pure lookup. An unknown user returns (nil, nil).
func (uc *ContextUseCase) Get(ctx context.Context, userID types.UserID) (*model.UserContext, error) {
	userCtx, err := uc.repo.UserContext().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return userCtx, nil
}

// List returns all stored user contexts
func (uc *ContextUseCase) List(ctx context.Context) ([]*model.UserContext, error) {
	return uc.repo.UserContext().List(ctx)
}

// MarkTokenOutcome updates the token status and attempt/retrieval timestamps
// of a user. No-op when the user is unknown. Timestamps never move backward.
func (uc *ContextUseCase) MarkTokenOutcome(ctx context.Context, userID types.UserID, status types.TokenStatus) {
	logger := logging.From(ctx)

	userCtx, err := uc.Get(ctx, userID)
	if err != nil {
		logger.Error("failed to load user context for token outcome",
			"userID", userID, "error", err.Error())
		return
	}
	if userCtx == nil {
		return
	}

	now := uc.now()
	userCtx.TokenStatus = status
	if now.After(userCtx.LastTokenAttempt) {
		userCtx.LastTokenAttempt = now
	}
	if status == types.TokenStatusActive && now.After(userCtx.LastTokenRetrieved) {
		userCtx.LastTokenRetrieved = now
	}
	if now.After(userCtx.LastUpdated) {
		userCtx.LastUpdated = now
	}

	if err := uc.repo.UserContext().Put(ctx, userCtx); err != nil {
		logger.Error("failed to save token outcome",
			"userID", userID, "error", err.Error())
	}
}
