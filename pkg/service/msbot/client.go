package msbot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultSendTimeout bounds a single connector send
const DefaultSendTimeout = 30 * time.Second

// Client posts activities to the Bot Framework connector REST API. It
// implements interfaces.Connector.
type Client struct {
	creds       *Credentials
	sendTimeout time.Duration
}

var _ interfaces.Connector = &Client{}

// Option is a functional option for client configuration
type Option func(*Client)

// WithSendTimeout sets the per-send deadline
func WithSendTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.sendTimeout = d
	}
}

// New creates a new connector client with the provided bot credentials
func New(creds *Credentials, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, goerr.New("bot credentials are required")
	}

	c := &Client{
		creds:       creds,
		sendTimeout: DefaultSendTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SendToConversation posts an activity to the conversation identified by the
// reference. The service URL comes from the reference because each tenant's
// conversations are homed on a regional connector instance.
func (c *Client) SendToConversation(ctx context.Context, ref *model.ConversationReference, activity *model.Activity) error {
	if ref.IsZero() {
		return goerr.New("conversation reference is missing routing data")
	}

	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	endpoint := strings.TrimRight(ref.ServiceURL, "/") +
		"/v3/conversations/" + url.PathEscape(ref.Conversation.ID) + "/activities"

	body, err := json.Marshal(activity)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal activity")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.creds.Client(ctx).Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to post activity", goerr.V("endpoint", endpoint))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New("connector rejected activity",
			goerr.V("status", resp.StatusCode),
			goerr.V("conversationID", ref.Conversation.ID),
			goerr.V("body", string(detail)),
		)
	}

	return nil
}
