package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityTypeMessage is the Bot Framework activity type for user messages
const ActivityTypeMessage = "message"

// ChannelAccount identifies a bot or user on a channel
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	AADObjectID string `json:"aadObjectId,omitempty"`
}

// ConversationAccount identifies the conversation an activity belongs to
type ConversationAccount struct {
	ID               string `json:"id"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
}

// Activity is a Bot Framework activity as received on the messaging webhook
// or sent back through the connector.
type Activity struct {
	Type         string               `json:"type"`
	ID           string               `json:"id,omitempty"`
	Timestamp    time.Time            `json:"timestamp,omitempty"`
	ServiceURL   string               `json:"serviceUrl,omitempty"`
	ChannelID    string               `json:"channelId,omitempty"`
	From         ChannelAccount       `json:"from,omitempty"`
	Recipient    ChannelAccount       `json:"recipient,omitempty"`
	Conversation ConversationAccount  `json:"conversation,omitempty"`
	Text         string               `json:"text,omitempty"`
	TextFormat   string               `json:"textFormat,omitempty"`
	ReplyToID    string               `json:"replyToId,omitempty"`
	ChannelData  map[string]any       `json:"channelData,omitempty"`
}

// ConversationReference is the minimum routing record needed to reopen a
// conversation later. It is captured from an inbound activity and treated as
// an immutable value; updates replace it wholesale.
type ConversationReference struct {
	ActivityID   string              `json:"activityId,omitempty"`
	ChannelID    string              `json:"channelId"`
	ServiceURL   string              `json:"serviceUrl"`
	Conversation ConversationAccount `json:"conversation"`
	Bot          ChannelAccount      `json:"bot"`
	User         ChannelAccount      `json:"user"`
}

// NewConversationReference captures a routing reference from an inbound
// activity. The activity's recipient is the bot; its sender is the user.
func NewConversationReference(activity *Activity) *ConversationReference {
	if activity == nil {
		return nil
	}
	return &ConversationReference{
		ActivityID:   activity.ID,
		ChannelID:    activity.ChannelID,
		ServiceURL:   activity.ServiceURL,
		Conversation: activity.Conversation,
		Bot:          activity.Recipient,
		User:         activity.From,
	}
}

// IsZero reports whether the reference carries enough routing data to reopen
// a conversation
func (r *ConversationReference) IsZero() bool {
	return r == nil || r.ServiceURL == "" || r.Conversation.ID == ""
}

// Clone returns a deep copy of the reference
func (r *ConversationReference) Clone() *ConversationReference {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

// NewReplyActivity builds a response to an inbound activity, swapping sender
// and recipient and threading on the inbound activity ID.
func NewReplyActivity(inbound *Activity, text string) *Activity {
	return &Activity{
		Type:         ActivityTypeMessage,
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		ServiceURL:   inbound.ServiceURL,
		ChannelID:    inbound.ChannelID,
		From:         inbound.Recipient,
		Recipient:    inbound.From,
		Conversation: inbound.Conversation,
		ReplyToID:    inbound.ID,
		Text:         text,
	}
}

// NewProactiveActivity builds an outbound message activity bound to a stored
// reference instead of an inbound request. The sender and recipient are
// swapped relative to the captured turn.
func NewProactiveActivity(ref *ConversationReference, text string) *Activity {
	return &Activity{
		Type:         ActivityTypeMessage,
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		ServiceURL:   ref.ServiceURL,
		ChannelID:    ref.ChannelID,
		From:         ref.Bot,
		Recipient:    ref.User,
		Conversation: ref.Conversation,
		Text:         text,
	}
}
