package xero

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the Xero identity token endpoint.
const DefaultTokenURL = "https://identity.xero.com/connect/token"

// AuthConfig represents the credentials of a Xero custom connection.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	// AccessToken, when set, is used as a static bearer token instead of
	// the client credentials grant.
	AccessToken string
	TokenURL    string
	Scopes      []string
	Timeout     time.Duration // Default: 30 seconds
}

// NewHTTPClient returns an HTTP client that authenticates requests to Xero.
func NewHTTPClient(ctx context.Context, config AuthConfig) *http.Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	// Token requests use the same timeout as API requests.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})

	var client *http.Client
	if config.AccessToken != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: config.AccessToken,
			TokenType:   "Bearer",
		}))
	} else {
		tokenURL := config.TokenURL
		if tokenURL == "" {
			tokenURL = DefaultTokenURL
		}
		scopes := config.Scopes
		if len(scopes) == 0 {
			scopes = []string{"accounting.transactions"}
		}

		cc := &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		}
		client = cc.Client(ctx)
	}

	client.Timeout = timeout
	return client
}
