package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/repository/memory"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/usecase"
)

type stubScheduler struct {
	calls []types.TaskType
	delay time.Duration
}

func (s *stubScheduler) Schedule(ctx context.Context, userID types.UserID, ref *model.ConversationReference, taskType types.TaskType, delay time.Duration) (types.TaskID, error) {
	s.calls = append(s.calls, taskType)
	s.delay = delay
	return types.NewTaskID(userID, time.Now()), nil
}

type stubDirectory struct {
	profile *model.Profile
	events  []*model.Event
	err     error
}

func (d *stubDirectory) GetProfile(ctx context.Context) (*model.Profile, error) {
	return d.profile, d.err
}

func (d *stubDirectory) GetEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	return d.events, d.err
}

func (d *stubDirectory) GetPhoto(ctx context.Context) ([]byte, error) {
	return nil, d.err
}

func TestHandleActivity(t *testing.T) {
	newBundle := func(connector interfaces.Connector, opts ...usecase.Option) *usecase.UseCases {
		base := []usecase.Option{
			usecase.WithConnector(connector),
			usecase.WithConnectionName("teams-sso"),
		}
		return usecase.New(memory.New(), append(base, opts...)...)
	}

	t.Run("every turn records user context", func(t *testing.T) {
		connector := &stubConnector{}
		uc := newBundle(connector)

		gt.NoError(t, uc.HandleActivity(context.Background(), inboundActivity("U1", "just chatting")))

		got, err := uc.Context.Get(context.Background(), "U1")
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
	})

	t.Run("token status reports stored state", func(t *testing.T) {
		connector := &stubConnector{}
		uc := newBundle(connector)

		gt.NoError(t, uc.HandleActivity(context.Background(), inboundActivity("U1", "Token Status")))

		gt.Array(t, connector.sent).Length(1).Required()
		gt.Bool(t, strings.Contains(connector.sent[0].Text, "unknown")).True()
	})

	t.Run("commands are case-insensitive and trimmed", func(t *testing.T) {
		connector := &stubConnector{}
		scheduler := &stubScheduler{}
		uc := newBundle(connector)
		uc.SetScheduler(scheduler)

		gt.NoError(t, uc.HandleActivity(context.Background(), inboundActivity("U1", "  SCHEDULE TASK  ")))

		gt.Array(t, scheduler.calls).Length(1).Required()
		gt.Value(t, scheduler.calls[0]).Equal(types.TaskTypeCalendarCheck)
		gt.Value(t, scheduler.delay).Equal(5 * time.Minute)
	})

	t.Run("background task is an alias of schedule task", func(t *testing.T) {
		connector := &stubConnector{}
		scheduler := &stubScheduler{}
		uc := newBundle(connector)
		uc.SetScheduler(scheduler)

		gt.NoError(t, uc.HandleActivity(context.Background(), inboundActivity("U1", "background task")))

		gt.Array(t, scheduler.calls).Length(1)
	})

	t.Run("my profile renders directory fields", func(t *testing.T) {
		connector := &stubConnector{}
		strategy := &stubStrategy{name: "svc", available: true,
			token: &interfaces.UserToken{Token: "tok"}}
		dir := &stubDirectory{profile: &model.Profile{
			DisplayName:       "Alice Example",
			UserPrincipalName: "alice@example.com",
			JobTitle:          "Engineer",
		}}

		uc := newBundle(connector,
			usecase.WithStrategies([]interfaces.TokenStrategy{strategy}),
			usecase.WithDirectoryFactory(func(token string) interfaces.DirectoryClient { return dir }),
		)

		gt.NoError(t, uc.HandleActivity(context.Background(), inboundActivity("U1", "my profile")))

		gt.Array(t, connector.sent).Length(1).Required()
		gt.Bool(t, strings.Contains(connector.sent[0].Text, "Alice Example")).True()
		gt.Bool(t, strings.Contains(connector.sent[0].Text, "Engineer")).True()
	})

	t.Run("my profile without token prompts sign-in", func(t *testing.T) {
		connector := &stubConnector{}
		empty := &stubStrategy{name: "empty", available: true}

		uc := newBundle(connector,
			usecase.WithStrategies([]interfaces.TokenStrategy{empty}),
		)

		gt.NoError(t, uc.HandleActivity(context.Background(), inboundActivity("U1", "my profile")))

		gt.Array(t, connector.sent).Length(1).Required()
		gt.Bool(t, strings.Contains(connector.sent[0].Text, "sign in")).True()
	})

	t.Run("context info includes channel and timestamps", func(t *testing.T) {
		connector := &stubConnector{}
		uc := newBundle(connector)

		gt.NoError(t, uc.HandleActivity(context.Background(), inboundActivity("U1", "context info")))

		gt.Array(t, connector.sent).Length(1).Required()
		gt.Bool(t, strings.Contains(connector.sent[0].Text, "msteams")).True()
	})

	t.Run("unrecognized text falls through to help dialog", func(t *testing.T) {
		connector := &stubConnector{}
		uc := newBundle(connector)

		gt.NoError(t, uc.HandleActivity(context.Background(), inboundActivity("U1", "what can you do")))

		gt.Array(t, connector.sent).Length(1).Required()
		gt.Bool(t, strings.Contains(connector.sent[0].Text, "token status")).True()
	})

	t.Run("non-message activities only record context", func(t *testing.T) {
		connector := &stubConnector{}
		uc := newBundle(connector)

		activity := inboundActivity("U1", "")
		activity.Type = "conversationUpdate"

		gt.NoError(t, uc.HandleActivity(context.Background(), activity))

		gt.Array(t, connector.sent).Length(0)
		got, err := uc.Context.Get(context.Background(), "U1")
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
	})

	t.Run("replies thread on the inbound activity", func(t *testing.T) {
		connector := &stubConnector{}
		uc := newBundle(connector)

		inbound := inboundActivity("U1", "context info")
		gt.NoError(t, uc.HandleActivity(context.Background(), inbound))

		gt.Array(t, connector.sent).Length(1).Required()
		gt.Value(t, connector.sent[0].ReplyToID).Equal(inbound.ID)
		gt.Value(t, connector.sent[0].Recipient.ID).Equal("U1")
	})
}
