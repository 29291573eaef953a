package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/service/msbot"
)

// Bot holds CLI flags for the Bot Framework channel configuration
type Bot struct {
	appID           string
	appPassword     string
	connectionName  string
	exchangeURI     string
	tokenServiceURL string
	verifyWebhook   bool
}

// Flags returns CLI flags for bot configuration
func (x *Bot) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bot-app-id",
			Usage:       "Bot application (client) ID",
			Category:    "Bot",
			Sources:     cli.EnvVars("OBOBOT_APP_ID"),
			Destination: &x.appID,
		},
		&cli.StringFlag{
			Name:        "bot-app-password",
			Usage:       "Bot application client secret",
			Category:    "Bot",
			Sources:     cli.EnvVars("OBOBOT_APP_PASSWORD"),
			Destination: &x.appPassword,
		},
		&cli.StringFlag{
			Name:        "oauth-connection-name",
			Usage:       "OAuth connection name configured on the bot channel registration",
			Category:    "Bot",
			Sources:     cli.EnvVars("OBOBOT_CONNECTION_NAME"),
			Destination: &x.connectionName,
		},
		&cli.StringFlag{
			Name:        "sso-exchange-uri",
			Usage:       "Token exchange resource URI for single-sign-on (enables the exchange strategy)",
			Category:    "Bot",
			Sources:     cli.EnvVars("OBOBOT_SSO_EXCHANGE_URI"),
			Destination: &x.exchangeURI,
		},
		&cli.StringFlag{
			Name:        "token-service-url",
			Usage:       "Bot Framework token service base URL",
			Category:    "Bot",
			Value:       msbot.DefaultTokenServiceURL,
			Sources:     cli.EnvVars("OBOBOT_TOKEN_SERVICE_URL"),
			Destination: &x.tokenServiceURL,
		},
		&cli.BoolFlag{
			Name:        "verify-webhook",
			Usage:       "Verify inbound activity JWTs against the channel's signing keys (disable only against an emulator)",
			Category:    "Bot",
			Value:       true,
			Sources:     cli.EnvVars("OBOBOT_VERIFY_WEBHOOK"),
			Destination: &x.verifyWebhook,
		},
	}
}

func (x Bot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("app-id", x.appID),
		slog.Int("app-password.len", len(x.appPassword)),
		slog.String("connection-name", x.connectionName),
		slog.String("exchange-uri", x.exchangeURI),
		slog.Bool("verify-webhook", x.verifyWebhook),
	)
}

// ConnectionName returns the configured OAuth connection name
func (x *Bot) ConnectionName() string {
	return x.connectionName
}

// VerifyWebhook reports whether inbound webhook JWT verification is enabled
func (x *Bot) VerifyWebhook() bool {
	return x.verifyWebhook
}

// IsConfigured reports whether channel credentials are present
func (x *Bot) IsConfigured() bool {
	return x.appID != "" && x.appPassword != ""
}

// Credentials builds the channel credentials
func (x *Bot) Credentials() (*msbot.Credentials, error) {
	if !x.IsConfigured() {
		return nil, goerr.New("bot-app-id and bot-app-password are required")
	}
	return msbot.NewCredentials(x.appID, x.appPassword)
}

// Strategies builds the ordered token acquisition strategy list
func (x *Bot) Strategies(creds *msbot.Credentials) []interfaces.TokenStrategy {
	return msbot.NewStrategies(creds, x.tokenServiceURL, x.exchangeURI)
}

// Verifier builds the inbound activity verifier, or nil when verification is
// disabled
func (x *Bot) Verifier() *msbot.TokenVerifier {
	if !x.verifyWebhook {
		return nil
	}
	return msbot.NewTokenVerifier(x.appID, "")
}
