package msbot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/safe"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// openIDMetadataURL describes the connector's signing keys
	openIDMetadataURL = "https://login.botframework.com/v1/.well-known/openidconfiguration"

	// connectorIssuer is the expected issuer of connector-signed activities
	connectorIssuer = "https://api.botframework.com"

	// keySetTTL bounds how long a fetched JWKS is reused
	keySetTTL = 6 * time.Hour
)

// openIDMetadata is the subset of the OpenID configuration we consume
type openIDMetadata struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// TokenVerifier validates Authorization headers on inbound Bot Framework
// requests: signature against the connector's JWKS, audience equal to the
// bot app ID, and the connector issuer.
type TokenVerifier struct {
	appID       string
	metadataURL string

	mu        sync.Mutex
	keySet    jwk.Set
	fetchedAt time.Time
}

// NewTokenVerifier creates a verifier for the given bot app ID. metadataURL
// is overridable for tests; pass "" for the production endpoint.
func NewTokenVerifier(appID, metadataURL string) *TokenVerifier {
	if metadataURL == "" {
		metadataURL = openIDMetadataURL
	}
	return &TokenVerifier{
		appID:       appID,
		metadataURL: metadataURL,
	}
}

// Verify checks a bearer Authorization header value. Returns an error when
// the request must be rejected.
func (v *TokenVerifier) Verify(ctx context.Context, authHeader string) error {
	raw := strings.TrimPrefix(authHeader, "Bearer ")
	if raw == "" || raw == authHeader {
		return goerr.New("missing bearer token")
	}

	keySet, err := v.keys(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to load connector signing keys")
	}

	// Allow 10 seconds of clock skew to handle time synchronization differences
	_, err = jwt.Parse([]byte(raw),
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithAudience(v.appID),
		jwt.WithIssuer(connectorIssuer),
		jwt.WithAcceptableSkew(10*time.Second),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to parse or verify activity token")
	}

	return nil
}

// keys returns the connector JWKS, refreshing it when stale
func (v *TokenVerifier) keys(ctx context.Context) (jwk.Set, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keySet != nil && time.Since(v.fetchedAt) < keySetTTL {
		return v.keySet, nil
	}

	meta, err := v.fetchMetadata(ctx)
	if err != nil {
		return nil, err
	}

	keySet, err := jwk.Fetch(ctx, meta.JWKSURI)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch JWKS", goerr.V("jwks_uri", meta.JWKSURI))
	}

	v.keySet = keySet
	v.fetchedAt = time.Now()
	return keySet, nil
}

func (v *TokenVerifier) fetchMetadata(ctx context.Context) (*openIDMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", v.metadataURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch OpenID metadata")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("failed to fetch OpenID metadata", goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read OpenID metadata response")
	}

	var meta openIDMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, goerr.Wrap(err, "failed to parse OpenID metadata")
	}

	return &meta, nil
}
