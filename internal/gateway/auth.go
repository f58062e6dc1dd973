package gateway

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// ErrNoCredentials is returned when neither an access token nor a refresh
// token flow is configured.
var ErrNoCredentials = errors.New("no GitHub credentials configured")

var oauthEndpoint = githuboauth.Endpoint

// Credentials holds what is needed to authenticate against GitHub. An
// access token alone is used as is; a refresh token together with the OAuth
// app's client id and secret lets the token source renew it.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// NewTokenSource returns the token source for creds.
func NewTokenSource(ctx context.Context, creds Credentials) (oauth2.TokenSource, error) {
	if creds.RefreshToken != "" && creds.ClientID != "" && creds.ClientSecret != "" {
		conf := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     oauthEndpoint,
		}
		// An access token without an expiry would never be refreshed.
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}), nil
	}
	if creds.AccessToken == "" {
		return nil, ErrNoCredentials
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken}), nil
}
