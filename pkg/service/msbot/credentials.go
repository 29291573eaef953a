package msbot

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// botFrameworkTokenURL is the AAD token endpoint for the shared Bot
	// Framework tenant
	botFrameworkTokenURL = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"
	botFrameworkScope    = "https://api.botframework.com/.default"

	// DefaultTokenServiceURL is the Bot Framework user-token service
	DefaultTokenServiceURL = "https://api.botframework.com"
)

// Credentials holds the bot's app registration identity and mints service
// tokens for connector and token-service calls. The underlying token source
// caches and refreshes the app token transparently.
type Credentials struct {
	appID string
	cfg   *clientcredentials.Config
}

// NewCredentials creates bot app credentials
func NewCredentials(appID, appPassword string) (*Credentials, error) {
	if appID == "" || appPassword == "" {
		return nil, goerr.New("bot app ID and password are required")
	}

	return &Credentials{
		appID: appID,
		cfg: &clientcredentials.Config{
			ClientID:     appID,
			ClientSecret: appPassword,
			TokenURL:     botFrameworkTokenURL,
			Scopes:       []string{botFrameworkScope},
		},
	}, nil
}

// AppID returns the bot app registration ID
func (c *Credentials) AppID() string {
	return c.appID
}

// Client returns an HTTP client that attaches a cached app token to every
// request
func (c *Credentials) Client(ctx context.Context) *http.Client {
	return c.cfg.Client(ctx)
}

// TokenSource returns the underlying app token source
func (c *Credentials) TokenSource(ctx context.Context) oauth2.TokenSource {
	return c.cfg.TokenSource(ctx)
}
