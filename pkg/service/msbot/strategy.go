package msbot

import (
	"context"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
)

// NewStrategies returns the token acquisition strategies in priority order.
// Which ones are live depends on the deployment: the SSO exchange needs a
// token-exchange resource URI, the service getter needs only the token
// service, and the raw connector construction works from bare credentials.
// The broker probes them in order and skips unavailable ones.
func NewStrategies(creds *Credentials, tokenServiceURL, exchangeURI string) []interfaces.TokenStrategy {
	client := NewUserTokenClient(creds, tokenServiceURL)
	return []interfaces.TokenStrategy{
		&exchangeStrategy{client: client, exchangeURI: exchangeURI},
		&serviceStrategy{client: client},
		&connectorStrategy{creds: creds, tokenServiceURL: tokenServiceURL},
	}
}

// exchangeStrategy resolves tokens through single-sign-on token exchange
type exchangeStrategy struct {
	client      *UserTokenClient
	exchangeURI string
}

func (s *exchangeStrategy) Name() string { return "sso-exchange" }

func (s *exchangeStrategy) Available() bool { return s.exchangeURI != "" }

func (s *exchangeStrategy) Acquire(ctx context.Context, req interfaces.TokenRequest) (*interfaces.UserToken, error) {
	return s.client.ExchangeToken(ctx, req, s.exchangeURI)
}

func (s *exchangeStrategy) SignOut(ctx context.Context, req interfaces.TokenRequest) error {
	return s.client.SignOut(ctx, req)
}

// serviceStrategy fetches whatever token the user-token service has cached
// for the connection
type serviceStrategy struct {
	client *UserTokenClient
}

func (s *serviceStrategy) Name() string { return "token-service" }

func (s *serviceStrategy) Available() bool { return s.client != nil }

func (s *serviceStrategy) Acquire(ctx context.Context, req interfaces.TokenRequest) (*interfaces.UserToken, error) {
	return s.client.GetToken(ctx, req)
}

func (s *serviceStrategy) SignOut(ctx context.Context, req interfaces.TokenRequest) error {
	return s.client.SignOut(ctx, req)
}

// connectorStrategy is the last resort: build a fresh token client directly
// from the raw app credentials, bypassing any adapter-held state. It covers
// environments where the longer-lived clients were never wired up.
type connectorStrategy struct {
	creds           *Credentials
	tokenServiceURL string
}

func (s *connectorStrategy) Name() string { return "oauth-connector" }

func (s *connectorStrategy) Available() bool { return s.creds != nil }

func (s *connectorStrategy) Acquire(ctx context.Context, req interfaces.TokenRequest) (*interfaces.UserToken, error) {
	client := NewUserTokenClient(s.creds, s.tokenServiceURL)
	return client.GetToken(ctx, req)
}

func (s *connectorStrategy) SignOut(ctx context.Context, req interfaces.TokenRequest) error {
	client := NewUserTokenClient(s.creds, s.tokenServiceURL)
	return client.SignOut(ctx, req)
}
