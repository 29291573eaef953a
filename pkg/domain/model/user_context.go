package model

import (
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
)

// UserContext holds, per user, the minimum information needed to reopen a
// conversation channel later plus denormalized display metadata. It is keyed
// by UserID with last-write-wins overwrite semantics; only CreatedAt survives
// updates.
type UserContext struct {
	UserID                types.UserID
	ConversationReference *ConversationReference
	UserName              string
	ChannelID             string
	ServiceURL            string
	TenantID              string
	AADObjectID           string
	TokenStatus           types.TokenStatus
	LastTokenRetrieved    time.Time
	LastTokenAttempt      time.Time
	CreatedAt             time.Time
	LastUpdated           time.Time
}

// NewUserContext captures a user context from an inbound activity. Returns
// nil if the activity carries no sender ID, which callers treat as a no-op.
func NewUserContext(activity *Activity, now time.Time) *UserContext {
	if activity == nil || activity.From.ID == "" {
		return nil
	}

	tenantID := activity.Conversation.TenantID
	if tenantID == "" {
		tenantID = tenantFromChannelData(activity.ChannelData)
	}

	return &UserContext{
		UserID:                types.UserID(activity.From.ID),
		ConversationReference: NewConversationReference(activity),
		UserName:              activity.From.Name,
		ChannelID:             activity.ChannelID,
		ServiceURL:            activity.ServiceURL,
		TenantID:              tenantID,
		AADObjectID:           activity.From.AADObjectID,
		TokenStatus:           types.TokenStatusUnknown,
		CreatedAt:             now,
		LastUpdated:           now,
	}
}

// tenantFromChannelData digs the tenant ID out of Teams channelData when the
// conversation account does not carry one.
func tenantFromChannelData(data map[string]any) string {
	if data == nil {
		return ""
	}
	tenant, ok := data["tenant"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := tenant["id"].(string)
	return id
}

// Clone returns a deep copy of the user context
func (u *UserContext) Clone() *UserContext {
	if u == nil {
		return nil
	}
	copied := *u
	copied.ConversationReference = u.ConversationReference.Clone()
	return &copied
}

// Merge refreshes denormalized fields from a newer capture while preserving
// CreatedAt and the token bookkeeping of the existing entry.
func (u *UserContext) Merge(update *UserContext) {
	u.ConversationReference = update.ConversationReference
	u.UserName = update.UserName
	u.ChannelID = update.ChannelID
	u.ServiceURL = update.ServiceURL
	u.TenantID = update.TenantID
	u.AADObjectID = update.AADObjectID
	u.LastUpdated = update.LastUpdated
}
