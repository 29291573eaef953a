package msbot

// NewTestCredentials builds credentials whose app-token requests go to a
// test server instead of the shared AAD tenant
func NewTestCredentials(appID, appPassword, tokenURL string) (*Credentials, error) {
	creds, err := NewCredentials(appID, appPassword)
	if err != nil {
		return nil, err
	}
	creds.cfg.TokenURL = tokenURL
	return creds, nil
}
