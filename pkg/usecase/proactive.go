package usecase

import (
	"context"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultSessionTimeout bounds the work function of a proactive session
const DefaultSessionTimeout = 5 * time.Minute

// Session is a turn bound to a stored conversation reference rather than an
// inbound request. Work functions use it to send messages into the reopened
// channel.
type Session struct {
	ref       *model.ConversationReference
	connector interfaces.Connector
}

// Reference returns the conversation reference this session is bound to
func (s *Session) Reference() *model.ConversationReference {
	return s.ref
}

// Send posts a text message into the reopened conversation
func (s *Session) Send(ctx context.Context, text string) error {
	activity := model.NewProactiveActivity(s.ref, text)
	if err := s.connector.SendToConversation(ctx, s.ref, activity); err != nil {
		return goerr.Wrap(err, "failed to send proactive message",
			goerr.V("conversationID", s.ref.Conversation.ID))
	}
	return nil
}

// ProactiveUseCase opens turns on previously stored conversation references
// so deferred work can run as if the user had just sent a message.
type ProactiveUseCase struct {
	connector interfaces.Connector
	timeout   time.Duration
}

// NewProactiveUseCase creates a new ProactiveUseCase
func NewProactiveUseCase(connector interfaces.Connector) *ProactiveUseCase {
	return &ProactiveUseCase{
		connector: connector,
		timeout:   DefaultSessionTimeout,
	}
}

// Open constructs a session for the reference and runs work inside it with a
// bounded deadline. Errors from an unreachable channel propagate to the
// caller, which decides whether to notify the user or just log.
func (uc *ProactiveUseCase) Open(ctx context.Context, ref *model.ConversationReference, work func(ctx context.Context, session *Session) error) error {
	if uc.connector == nil {
		return goerr.New("no connector configured")
	}
	if ref.IsZero() {
		return goerr.New("conversation reference is missing routing data")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	session := &Session{
		ref:       ref.Clone(),
		connector: uc.connector,
	}

	return work(ctx, session)
}
