package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/service/graph"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// signInMessage is the actionable default for authentication failures
const signInMessage = "I couldn't get a token for you. Please type anything to start a conversation, then sign in when prompted."

// HandleActivity processes an inbound conversational turn: records the user
// context, then routes recognized commands. Unrecognized text falls through
// to the default dialog so command handling never interferes with normal
// conversation routing.
func (uc *UseCases) HandleActivity(ctx context.Context, activity *model.Activity) error {
	logger := logging.From(ctx)

	// Runs on every turn; must never break the flow
	uc.Context.Record(ctx, activity)

	if activity == nil || activity.Type != model.ActivityTypeMessage {
		return nil
	}

	command := strings.ToLower(strings.TrimSpace(activity.Text))
	switch command {
	case "token status":
		return uc.handleTokenStatus(ctx, activity)
	case "my profile":
		return uc.handleMyProfile(ctx, activity)
	case "context info":
		return uc.handleContextInfo(ctx, activity)
	case "schedule task", "background task":
		return uc.handleScheduleTask(ctx, activity)
	default:
		logger.Debug("no command matched, falling through to default dialog",
			"text_len", len(activity.Text))
		return uc.handleDefault(ctx, activity)
	}
}

// reply answers an inbound activity in its own conversation
func (uc *UseCases) reply(ctx context.Context, inbound *model.Activity, text string) error {
	if uc.connector == nil {
		return goerr.New("no connector configured")
	}
	ref := model.NewConversationReference(inbound)
	if err := uc.connector.SendToConversation(ctx, ref, model.NewReplyActivity(inbound, text)); err != nil {
		return goerr.Wrap(err, "failed to send reply")
	}
	return nil
}

func (uc *UseCases) handleTokenStatus(ctx context.Context, activity *model.Activity) error {
	userID := types.UserID(activity.From.ID)

	userCtx, err := uc.Context.Get(ctx, userID)
	if err != nil {
		return uc.reply(ctx, activity, "Sorry, I couldn't look up your token status right now.")
	}
	if userCtx == nil {
		return uc.reply(ctx, activity, "I don't have any context for you yet. Say hello first!")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Token status: %s\n", userCtx.TokenStatus)
	if !userCtx.LastTokenRetrieved.IsZero() {
		fmt.Fprintf(&b, "Last token retrieved: %s\n", userCtx.LastTokenRetrieved.Format(time.RFC1123))
	}
	if !userCtx.LastTokenAttempt.IsZero() {
		fmt.Fprintf(&b, "Last attempt: %s\n", userCtx.LastTokenAttempt.Format(time.RFC1123))
	}

	return uc.reply(ctx, activity, strings.TrimSpace(b.String()))
}

func (uc *UseCases) handleMyProfile(ctx context.Context, activity *model.Activity) error {
	logger := logging.From(ctx)
	userID := types.UserID(activity.From.ID)

	result := uc.Token.Acquire(ctx, userID, false)
	if !result.OK() {
		return uc.reply(ctx, activity, signInMessage)
	}

	if uc.directoryFactory == nil {
		return uc.reply(ctx, activity, "Profile lookups are not configured on this deployment.")
	}

	dir := uc.directoryFactory(result.Token)
	profile, err := dir.GetProfile(ctx)
	if err != nil {
		if errors.Is(err, graph.ErrAuth) {
			return uc.reply(ctx, activity, signInMessage)
		}
		logger.Error("failed to fetch profile", "userID", userID, "error", err.Error())
		return uc.reply(ctx, activity, "Sorry, I couldn't fetch your profile right now.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", profile.DisplayName, profile.UserPrincipalName)
	if profile.JobTitle != "" {
		fmt.Fprintf(&b, "Title: %s\n", profile.JobTitle)
	}
	if profile.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", profile.Department)
	}
	if profile.OfficeLocation != "" {
		fmt.Fprintf(&b, "Office: %s\n", profile.OfficeLocation)
	}

	// The photo is decoration; a missing one should not alarm the user
	if _, err := dir.GetPhoto(ctx); err != nil {
		logger.Debug("photo not available", "userID", userID, "error", err.Error())
	}

	return uc.reply(ctx, activity, strings.TrimSpace(b.String()))
}

func (uc *UseCases) handleContextInfo(ctx context.Context, activity *model.Activity) error {
	userID := types.UserID(activity.From.ID)

	userCtx, err := uc.Context.Get(ctx, userID)
	if err != nil {
		return uc.reply(ctx, activity, "Sorry, I couldn't look up your context right now.")
	}
	if userCtx == nil {
		return uc.reply(ctx, activity, "I don't have any context for you yet. Say hello first!")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User: %s (%s)\n", userCtx.UserName, userCtx.UserID)
	fmt.Fprintf(&b, "Channel: %s\n", userCtx.ChannelID)
	if userCtx.TenantID != "" {
		fmt.Fprintf(&b, "Tenant: %s\n", userCtx.TenantID)
	}
	fmt.Fprintf(&b, "First seen: %s\n", userCtx.CreatedAt.Format(time.RFC1123))
	fmt.Fprintf(&b, "Last updated: %s\n", userCtx.LastUpdated.Format(time.RFC1123))

	return uc.reply(ctx, activity, strings.TrimSpace(b.String()))
}

func (uc *UseCases) handleScheduleTask(ctx context.Context, activity *model.Activity) error {
	if uc.scheduler == nil {
		return uc.reply(ctx, activity, "Background tasks are not configured on this deployment.")
	}

	userID := types.UserID(activity.From.ID)
	ref := model.NewConversationReference(activity)

	taskID, err := uc.scheduler.Schedule(ctx, userID, ref, types.TaskTypeCalendarCheck, uc.taskDelay)
	if err != nil {
		logging.From(ctx).Error("failed to schedule task", "userID", userID, "error", err.Error())
		return uc.reply(ctx, activity, "Sorry, I couldn't schedule that task.")
	}

	msg := fmt.Sprintf("Got it. I'll check your calendar in %s and follow up here. (task %s)",
		uc.taskDelay, taskID)
	return uc.reply(ctx, activity, msg)
}

func (uc *UseCases) handleDefault(ctx context.Context, activity *model.Activity) error {
	if strings.TrimSpace(activity.Text) == "" {
		return nil
	}

	help := "I can help with: `token status`, `my profile`, `context info`, or `schedule task`."
	return uc.reply(ctx, activity, help)
}
