package usecase

import (
	"context"
	"errors"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/logging"
)

// TokenUseCase is the token broker: given a user ID it obtains a valid
// bearer token by probing acquisition strategies in priority order inside a
// proactive session on the user's stored conversation reference.
type TokenUseCase struct {
	contextUC      *ContextUseCase
	proactive      *ProactiveUseCase
	strategies     []interfaces.TokenStrategy
	connectionName string
}

// NewTokenUseCase creates a new TokenUseCase
func NewTokenUseCase(contextUC *ContextUseCase, proactive *ProactiveUseCase, strategies []interfaces.TokenStrategy, connectionName string) *TokenUseCase {
	return &TokenUseCase{
		contextUC:      contextUC,
		proactive:      proactive,
		strategies:     strategies,
		connectionName: connectionName,
	}
}

// Acquire obtains a bearer token for the user. With forceRefresh, cached
// tokens are invalidated (best effort) before re-acquisition. The result is
// always a structured value, never a raised error, so callers can render an
// appropriate message.
func (uc *TokenUseCase) Acquire(ctx context.Context, userID types.UserID, forceRefresh bool) *model.TokenResult {
	logger := logging.From(ctx)

	userCtx, err := uc.contextUC.Get(ctx, userID)
	if err != nil {
		return model.NewTokenFailure(types.ErrKindTransport, "failed to load user context", err)
	}
	if userCtx == nil || userCtx.ConversationReference.IsZero() {
		// No network calls: there is nothing to reopen
		return model.NewTokenFailure(types.ErrKindNoContext, "user has not interacted with the bot yet", nil)
	}

	channelID := userCtx.ChannelID
	if channelID == "" {
		channelID = DefaultChannelID
	}

	var result *model.TokenResult
	openErr := uc.proactive.Open(ctx, userCtx.ConversationReference, func(ctx context.Context, session *Session) error {
		result = uc.acquireInSession(ctx, userID, channelID, forceRefresh)
		return nil
	})
	if openErr != nil {
		if errors.Is(openErr, context.DeadlineExceeded) {
			result = model.NewTokenFailure(types.ErrKindTimeout, "session deadline exceeded", openErr)
		} else {
			result = model.NewTokenFailure(types.ErrKindSessionOpenFailed, "failed to reopen conversation", openErr)
		}
	}

	switch {
	case result.OK():
		uc.contextUC.MarkTokenOutcome(ctx, userID, types.TokenStatusActive)
	case result.Kind == types.ErrKindUnavailable:
		uc.contextUC.MarkTokenOutcome(ctx, userID, types.TokenStatusUnavailable)
	default:
		logger.Debug("token acquisition failed before strategies ran",
			"userID", userID, "kind", result.Kind.String())
	}

	return result
}

// acquireInSession probes the strategy list in order, stopping at the first
// token. Strategies are silently skipped when their capability is absent;
// strategy errors are logged and fall through to the next one so a broken
// mechanism in one environment never blocks the others.
func (uc *TokenUseCase) acquireInSession(ctx context.Context, userID types.UserID, channelID string, forceRefresh bool) *model.TokenResult {
	logger := logging.From(ctx)

	req := interfaces.TokenRequest{
		UserID:         userID,
		ConnectionName: uc.connectionName,
		ChannelID:      channelID,
	}

	for _, strategy := range uc.strategies {
		if !strategy.Available() {
			continue
		}

		if forceRefresh {
			// Best-effort invalidation: a failed sign-out must never block
			// re-acquisition
			if err := strategy.SignOut(ctx, req); err != nil {
				logger.Warn("token invalidation failed, acquiring anyway",
					"strategy", strategy.Name(),
					"userID", userID,
					"error", err.Error(),
				)
			}
		}

		token, err := strategy.Acquire(ctx, req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return model.NewTokenFailure(types.ErrKindTimeout, "token acquisition timed out", err)
			}
			logger.Warn("token strategy failed, trying next",
				"strategy", strategy.Name(),
				"userID", userID,
				"error", err.Error(),
			)
			continue
		}
		if token == nil {
			continue
		}

		logger.Info("token acquired",
			"strategy", strategy.Name(),
			"userID", userID,
		)
		return model.NewTokenSuccess(token.Token, token.Expiration, uc.connectionName, channelID)
	}

	return model.NewTokenFailure(types.ErrKindUnavailable, "user needs to authenticate", nil)
}
