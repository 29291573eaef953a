package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/repository/memory"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/usecase"
)

type stubConnector struct {
	sent []*model.Activity
	err  error
}

func (c *stubConnector) SendToConversation(ctx context.Context, ref *model.ConversationReference, activity *model.Activity) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, activity)
	return nil
}

type stubStrategy struct {
	name      string
	available bool
	token     *interfaces.UserToken
	err       error
	signOut   error

	acquired  int
	signedOut int
}

func (s *stubStrategy) Name() string    { return s.name }
func (s *stubStrategy) Available() bool { return s.available }

func (s *stubStrategy) Acquire(ctx context.Context, req interfaces.TokenRequest) (*interfaces.UserToken, error) {
	s.acquired++
	return s.token, s.err
}

func (s *stubStrategy) SignOut(ctx context.Context, req interfaces.TokenRequest) error {
	s.signedOut++
	return s.signOut
}

func newTokenBundle(t *testing.T, connector interfaces.Connector, strategies ...interfaces.TokenStrategy) *usecase.UseCases {
	t.Helper()
	return usecase.New(memory.New(),
		usecase.WithConnector(connector),
		usecase.WithStrategies(strategies),
		usecase.WithConnectionName("teams-sso"),
	)
}

func TestTokenAcquire(t *testing.T) {
	t.Run("no prior context short-circuits without any strategy call", func(t *testing.T) {
		strategy := &stubStrategy{name: "probe", available: true}
		uc := newTokenBundle(t, &stubConnector{}, strategy)

		result := uc.Token.Acquire(context.Background(), "U-never-seen", false)

		gt.Bool(t, result.OK()).False()
		gt.Value(t, result.Kind).Equal(types.ErrKindNoContext)
		gt.Number(t, strategy.acquired).Equal(0)
	})

	t.Run("first available strategy with a token wins", func(t *testing.T) {
		skipped := &stubStrategy{name: "absent", available: false,
			token: &interfaces.UserToken{Token: "wrong"}}
		empty := &stubStrategy{name: "empty", available: true}
		winner := &stubStrategy{name: "winner", available: true,
			token: &interfaces.UserToken{Token: "tok-1", Expiration: time.Now().Add(time.Hour)}}
		unreached := &stubStrategy{name: "unreached", available: true,
			token: &interfaces.UserToken{Token: "tok-2"}}

		uc := newTokenBundle(t, &stubConnector{}, skipped, empty, winner, unreached)
		uc.Context.Record(context.Background(), inboundActivity("U1", "hello"))

		result := uc.Token.Acquire(context.Background(), "U1", false)

		gt.Bool(t, result.OK()).True()
		gt.Value(t, result.Token).Equal("tok-1")
		gt.Value(t, result.ConnectionName).Equal("teams-sso")
		gt.Number(t, skipped.acquired).Equal(0)
		gt.Number(t, empty.acquired).Equal(1)
		gt.Number(t, winner.acquired).Equal(1)
		gt.Number(t, unreached.acquired).Equal(0)

		got, err := uc.Context.Get(context.Background(), "U1")
		gt.NoError(t, err).Required()
		gt.Value(t, got.TokenStatus).Equal(types.TokenStatusActive)
	})

	t.Run("strategy errors fall through to the next", func(t *testing.T) {
		broken := &stubStrategy{name: "broken", available: true, err: errors.New("boom")}
		winner := &stubStrategy{name: "winner", available: true,
			token: &interfaces.UserToken{Token: "tok-1"}}

		uc := newTokenBundle(t, &stubConnector{}, broken, winner)
		uc.Context.Record(context.Background(), inboundActivity("U1", "hello"))

		result := uc.Token.Acquire(context.Background(), "U1", false)

		gt.Bool(t, result.OK()).True()
		gt.Number(t, broken.acquired).Equal(1)
		gt.Number(t, winner.acquired).Equal(1)
	})

	t.Run("exhausted strategies yield unavailable and mark the user", func(t *testing.T) {
		empty := &stubStrategy{name: "empty", available: true}

		uc := newTokenBundle(t, &stubConnector{}, empty)
		uc.Context.Record(context.Background(), inboundActivity("U1", "hello"))

		result := uc.Token.Acquire(context.Background(), "U1", false)

		gt.Bool(t, result.OK()).False()
		gt.Value(t, result.Kind).Equal(types.ErrKindUnavailable)

		got, err := uc.Context.Get(context.Background(), "U1")
		gt.NoError(t, err).Required()
		gt.Value(t, got.TokenStatus).Equal(types.TokenStatusUnavailable)
	})

	t.Run("forceRefresh signs out before acquiring", func(t *testing.T) {
		strategy := &stubStrategy{name: "svc", available: true,
			token: &interfaces.UserToken{Token: "fresh"}}

		uc := newTokenBundle(t, &stubConnector{}, strategy)
		uc.Context.Record(context.Background(), inboundActivity("U1", "hello"))

		result := uc.Token.Acquire(context.Background(), "U1", true)

		gt.Bool(t, result.OK()).True()
		gt.Number(t, strategy.signedOut).Equal(1)
		gt.Number(t, strategy.acquired).Equal(1)
	})

	t.Run("failed invalidation never blocks re-acquisition", func(t *testing.T) {
		strategy := &stubStrategy{name: "svc", available: true,
			signOut: errors.New("signout failed"),
			token:   &interfaces.UserToken{Token: "fresh"}}

		uc := newTokenBundle(t, &stubConnector{}, strategy)
		uc.Context.Record(context.Background(), inboundActivity("U1", "hello"))

		result := uc.Token.Acquire(context.Background(), "U1", true)

		gt.Bool(t, result.OK()).True()
		gt.Value(t, result.Token).Equal("fresh")
	})

	t.Run("without forceRefresh no sign-out happens", func(t *testing.T) {
		strategy := &stubStrategy{name: "svc", available: true,
			token: &interfaces.UserToken{Token: "tok"}}

		uc := newTokenBundle(t, &stubConnector{}, strategy)
		uc.Context.Record(context.Background(), inboundActivity("U1", "hello"))

		uc.Token.Acquire(context.Background(), "U1", false)

		gt.Number(t, strategy.signedOut).Equal(0)
	})
}
