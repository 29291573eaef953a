package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/DubeyAkshat/ms-teams-obo-bot/pkg/controller/http"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/repository/memory"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/usecase"
)

type nullConnector struct{}

func (nullConnector) SendToConversation(ctx context.Context, ref *model.ConversationReference, activity *model.Activity) error {
	return nil
}

type tokenStrategy struct {
	tokens map[string]string
}

func (s *tokenStrategy) Name() string    { return "stub" }
func (s *tokenStrategy) Available() bool { return true }

func (s *tokenStrategy) Acquire(ctx context.Context, req interfaces.TokenRequest) (*interfaces.UserToken, error) {
	token, ok := s.tokens[req.UserID.String()]
	if !ok {
		return nil, nil
	}
	return &interfaces.UserToken{Token: token, Expiration: time.Now().Add(time.Hour)}, nil
}

func (s *tokenStrategy) SignOut(ctx context.Context, req interfaces.TokenRequest) error {
	return nil
}

func newTestServer(t *testing.T, tokens map[string]string, recorded ...string) *httpctrl.Server {
	t.Helper()

	uc := usecase.New(memory.New(),
		usecase.WithConnector(nullConnector{}),
		usecase.WithStrategies([]interfaces.TokenStrategy{&tokenStrategy{tokens: tokens}}),
		usecase.WithConnectionName("teams-sso"),
	)

	for _, userID := range recorded {
		uc.Context.Record(context.Background(), &model.Activity{
			Type:         model.ActivityTypeMessage,
			ID:           "act-" + userID,
			ServiceURL:   "https://smba.trafficmanager.net/amer/",
			ChannelID:    "msteams",
			From:         model.ChannelAccount{ID: userID, Name: "User " + userID},
			Recipient:    model.ChannelAccount{ID: "bot-1"},
			Conversation: model.ConversationAccount{ID: "conv-" + userID},
			Text:         "hello",
		})
	}

	return httpctrl.New(uc)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var body map[string]string
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	gt.Value(t, body["status"]).Equal("ok")
}

func TestGetToken(t *testing.T) {
	t.Run("recorded user with a token", func(t *testing.T) {
		srv := newTestServer(t, map[string]string{"U1": "tok-1"}, "U1")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/token/U1", nil))

		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			UserID string `json:"userId"`
			OK     bool   `json:"ok"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		gt.Bool(t, body.OK).True()
		gt.Value(t, body.UserID).Equal("U1")
	})

	t.Run("unknown user yields no-context 404", func(t *testing.T) {
		srv := newTestServer(t, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/token/U-missing", nil))

		gt.Number(t, rec.Code).Equal(http.StatusNotFound)

		var body struct {
			ErrorKind string `json:"errorKind"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		gt.Value(t, body.ErrorKind).Equal("no-context")
	})

	t.Run("recorded user without a token yields 401", func(t *testing.T) {
		srv := newTestServer(t, nil, "U1")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/token/U1", nil))

		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("refresh uses the same response shape", func(t *testing.T) {
		srv := newTestServer(t, map[string]string{"U1": "tok-1"}, "U1")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/token/U1/refresh", nil))

		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})
}

func TestGetContext(t *testing.T) {
	t.Run("recorded user", func(t *testing.T) {
		srv := newTestServer(t, nil, "U1")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/U1/context", nil))

		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			UserID      string `json:"userId"`
			ChannelID   string `json:"channelId"`
			TokenStatus string `json:"tokenStatus"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		gt.Value(t, body.UserID).Equal("U1")
		gt.Value(t, body.ChannelID).Equal("msteams")
		gt.Value(t, body.TokenStatus).Equal("unknown")
	})

	t.Run("unknown user", func(t *testing.T) {
		srv := newTestServer(t, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/U-missing/context", nil))

		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestBatchTokens(t *testing.T) {
	doBatch := func(t *testing.T, srv *httpctrl.Server, userIDs []string) *httptest.ResponseRecorder {
		t.Helper()
		payload, err := json.Marshal(map[string]any{"userIds": userIDs})
		gt.NoError(t, err).Required()

		req := httptest.NewRequest(http.MethodPost, "/api/tokens/batch", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	t.Run("mixed outcomes preserve input order", func(t *testing.T) {
		srv := newTestServer(t,
			map[string]string{"U1": "tok-1", "U3": "tok-3"},
			"U1", "U3")

		rec := doBatch(t, srv, []string{"U1", "U2", "U3"})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			Results []struct {
				UserID string `json:"userId"`
				OK     bool   `json:"ok"`
			} `json:"results"`
			SuccessCount int `json:"successCount"`
			FailureCount int `json:"failureCount"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

		gt.Array(t, body.Results).Length(3).Required()
		gt.Value(t, body.Results[0].UserID).Equal("U1")
		gt.Value(t, body.Results[1].UserID).Equal("U2")
		gt.Value(t, body.Results[2].UserID).Equal("U3")
		gt.Bool(t, body.Results[0].OK).True()
		gt.Bool(t, body.Results[1].OK).False()
		gt.Bool(t, body.Results[2].OK).True()
		gt.Number(t, body.SuccessCount).Equal(2)
		gt.Number(t, body.FailureCount).Equal(1)
	})

	t.Run("caps the batch size", func(t *testing.T) {
		srv := newTestServer(t, nil)

		userIDs := make([]string, 51)
		for i := range userIDs {
			userIDs[i] = fmt.Sprintf("U%d", i)
		}

		rec := doBatch(t, srv, userIDs)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("rejects an empty list", func(t *testing.T) {
		srv := newTestServer(t, nil)

		rec := doBatch(t, srv, nil)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("one failure never aborts the batch", func(t *testing.T) {
		srv := newTestServer(t, map[string]string{"U2": "tok-2"}, "U2")

		rec := doBatch(t, srv, []string{"U-missing", "U2"})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			SuccessCount int `json:"successCount"`
			FailureCount int `json:"failureCount"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		gt.Number(t, body.SuccessCount).Equal(1)
		gt.Number(t, body.FailureCount).Equal(1)
	})
}

func TestWebhook(t *testing.T) {
	t.Run("accepts an activity and returns 200", func(t *testing.T) {
		srv := newTestServer(t, nil)

		activity := model.Activity{
			Type:         model.ActivityTypeMessage,
			ID:           "act-1",
			ServiceURL:   "https://smba.trafficmanager.net/amer/",
			ChannelID:    "msteams",
			From:         model.ChannelAccount{ID: "U1", Name: "User"},
			Conversation: model.ConversationAccount{ID: "conv-1"},
			Text:         "hello",
		}
		payload, err := json.Marshal(activity)
		gt.NoError(t, err).Required()

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(payload)))

		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		srv := newTestServer(t, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader([]byte("not json"))))

		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("verifier rejects unsigned requests", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithConnector(nullConnector{}))
		srv := httpctrl.New(uc, httpctrl.WithVerifier(rejectVerifier{}))

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader([]byte("{}"))))

		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})
}

type rejectVerifier struct{}

func (rejectVerifier) Verify(ctx context.Context, authHeader string) error {
	return fmt.Errorf("no signature")
}
