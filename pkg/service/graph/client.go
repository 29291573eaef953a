package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// graphTimeLayout is how calendarView reports event times (no zone
	// suffix; the zone comes from the Prefer header)
	graphTimeLayout = "2006-01-02T15:04:05.9999999"
)

// Client is a DirectoryClient over the Microsoft Graph API, scoped to the
// user whose bearer token it was constructed with.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ interfaces.DirectoryClient = &Client{}

// Option is a functional option for client configuration
type Option func(*Client)

// WithBaseURL overrides the Graph endpoint, mainly for tests
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// New creates a Graph client from a user bearer token
func New(token string, opts ...Option) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})

	c := &Client{
		httpClient: oauth2.NewClient(context.Background(), src),
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFactory returns a DirectoryClientFactory bound to the given options
func NewFactory(opts ...Option) interfaces.DirectoryClientFactory {
	return func(token string) interfaces.DirectoryClient {
		return New(token, opts...)
	}
}

func (c *Client) get(ctx context.Context, path string, prefer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "graph request failed", goerr.V("path", path))
	}
	return resp, nil
}

// GetProfile fetches the signed-in user's profile, selecting only the fields
// the bot renders
func (c *Client) GetProfile(ctx context.Context) (*model.Profile, error) {
	path := "/me?$select=displayName,userPrincipalName,jobTitle,department,officeLocation"

	resp, err := c.get(ctx, path, "")
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, graphError(resp, "failed to get profile")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read profile response")
	}

	var profile model.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, goerr.Wrap(err, "failed to parse profile response")
	}

	return &profile, nil
}

// graphEventDoc is the wire shape of a calendarView event
type graphEventDoc struct {
	Subject string `json:"subject"`
	Start   struct {
		DateTime string `json:"dateTime"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
	} `json:"end"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Organizer struct {
		EmailAddress struct {
			Name string `json:"name"`
		} `json:"emailAddress"`
	} `json:"organizer"`
}

func (d *graphEventDoc) toEvent() *model.Event {
	ev := &model.Event{
		Subject:   d.Subject,
		Location:  d.Location.DisplayName,
		Organizer: d.Organizer.EmailAddress.Name,
	}
	if t, err := time.Parse(graphTimeLayout, d.Start.DateTime); err == nil {
		ev.Start = t
	}
	if t, err := time.Parse(graphTimeLayout, d.End.DateTime); err == nil {
		ev.End = t
	}
	return ev
}

// GetEvents fetches calendar events in the filter window, ordered by start
func (c *Client) GetEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	params := url.Values{}
	params.Set("startDateTime", filter.Start.UTC().Format(time.RFC3339))
	params.Set("endDateTime", filter.End.UTC().Format(time.RFC3339))
	params.Set("$orderby", "start/dateTime")
	params.Set("$select", "subject,start,end,location,organizer")

	resp, err := c.get(ctx, "/me/calendarview?"+params.Encode(), `outlook.timezone="UTC"`)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, graphError(resp, "failed to get events")
	}

	var result struct {
		Value []graphEventDoc `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, goerr.Wrap(err, "failed to parse events response")
	}

	events := make([]*model.Event, len(result.Value))
	for i := range result.Value {
		events[i] = result.Value[i].toEvent()
	}

	return events, nil
}

// GetPhoto fetches the user's photo as raw bytes
func (c *Client) GetPhoto(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, "/me/photo/$value", "")
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, graphError(resp, "failed to get photo")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read photo response")
	}

	return data, nil
}

// graphError builds an error carrying the Graph status and a snippet of the
// body; 401 is tagged so callers can tell auth failures from transport ones.
func graphError(resp *http.Response, msg string) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := goerr.New(msg,
		goerr.V("status", resp.StatusCode),
		goerr.V("body", string(detail)),
	)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return goerr.Wrap(ErrAuth, msg, goerr.V("status", resp.StatusCode))
	}
	return err
}
