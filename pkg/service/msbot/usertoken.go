package msbot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// UserTokenClient talks to the Bot Framework user-token service, which keeps
// per-user OAuth tokens for a named connection configured on the bot.
type UserTokenClient struct {
	creds   *Credentials
	baseURL string
}

// NewUserTokenClient creates a user-token service client. baseURL is
// overridable for tests; pass "" for the production endpoint.
func NewUserTokenClient(creds *Credentials, baseURL string) *UserTokenClient {
	if baseURL == "" {
		baseURL = DefaultTokenServiceURL
	}
	return &UserTokenClient{
		creds:   creds,
		baseURL: baseURL,
	}
}

// tokenResponse is the wire shape of a user token
type tokenResponse struct {
	ConnectionName string `json:"connectionName"`
	Token          string `json:"token"`
	Expiration     string `json:"expiration"`
}

func (t *tokenResponse) toUserToken() *interfaces.UserToken {
	ut := &interfaces.UserToken{Token: t.Token}
	// The token service reports expiration as RFC3339; treat an unparsable
	// value as unknown rather than failing the acquisition.
	if exp, err := time.Parse(time.RFC3339, t.Expiration); err == nil {
		ut.Expiration = exp
	}
	return ut
}

func (c *UserTokenClient) query(req interfaces.TokenRequest) url.Values {
	params := url.Values{}
	params.Set("userId", req.UserID.String())
	params.Set("connectionName", req.ConnectionName)
	if req.ChannelID != "" {
		params.Set("channelId", req.ChannelID)
	}
	return params
}

// GetToken fetches the cached user token from the token service. A 404 means
// the user has not completed sign-in; that is (nil, nil), not an error.
func (c *UserTokenClient) GetToken(ctx context.Context, tokenReq interfaces.TokenRequest) (*interfaces.UserToken, error) {
	endpoint := c.baseURL + "/api/usertoken/GetToken?" + c.query(tokenReq).Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}

	resp, err := c.creds.Client(ctx).Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call token service")
	}
	defer safe.Close(ctx, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, goerr.New("token service returned error", goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read token response")
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, goerr.Wrap(err, "failed to parse token response")
	}
	if token.Token == "" {
		return nil, nil
	}

	return token.toUserToken(), nil
}

// ExchangeToken performs a single-sign-on token exchange: the bot's identity
// plus the connection's exchange resource URI are traded for a user token
// without a fresh sign-in prompt.
func (c *UserTokenClient) ExchangeToken(ctx context.Context, tokenReq interfaces.TokenRequest, exchangeURI string) (*interfaces.UserToken, error) {
	endpoint := c.baseURL + "/api/usertoken/exchange?" + c.query(tokenReq).Encode()

	payload, err := json.Marshal(map[string]string{"uri": exchangeURI})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal exchange request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.creds.Client(ctx).Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call token exchange")
	}
	defer safe.Close(ctx, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound, http.StatusPreconditionFailed:
		// Exchange not consented or no cached credential; not an error
		return nil, nil
	default:
		return nil, goerr.New("token exchange returned error", goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read exchange response")
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, goerr.Wrap(err, "failed to parse exchange response")
	}
	if token.Token == "" {
		return nil, nil
	}

	return token.toUserToken(), nil
}

// SignOut invalidates the cached user token for the connection
func (c *UserTokenClient) SignOut(ctx context.Context, tokenReq interfaces.TokenRequest) error {
	endpoint := c.baseURL + "/api/usertoken/SignOut?" + c.query(tokenReq).Encode()

	req, err := http.NewRequestWithContext(ctx, "DELETE", endpoint, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create request")
	}

	resp, err := c.creds.Client(ctx).Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to call sign-out")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return goerr.New("sign-out returned error", goerr.V("status", resp.StatusCode))
	}

	return nil
}
