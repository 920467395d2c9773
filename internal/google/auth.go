package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrAuthRequired is returned when neither a service account key file nor a
// complete OAuth2 client/refresh-token triple is configured.
var ErrAuthRequired = errors.New("Google Calendar authentication required. Set either:\n" +
	"1. GOOGLE_APPLICATION_CREDENTIALS (path to service account key file), or\n" +
	"2. GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, and GOOGLE_REFRESH_TOKEN")

// installedAppRedirectURL is the out-of-band redirect used by installed
// applications that obtained their refresh token manually.
const installedAppRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// AuthMethod identifies which credential source an AuthConfig resolves to.
type AuthMethod int

const (
	// AuthNone means no usable credentials are configured.
	AuthNone AuthMethod = iota
	// AuthServiceAccount uses a service account key file.
	AuthServiceAccount
	// AuthRefreshToken uses an OAuth2 client ID, secret and refresh token.
	AuthRefreshToken
)

func (m AuthMethod) String() string {
	switch m {
	case AuthServiceAccount:
		return "service_account"
	case AuthRefreshToken:
		return "refresh_token"
	default:
		return "none"
	}
}

// AuthConfig holds the raw credential settings.
type AuthConfig struct {
	CredentialsFile string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
}

// Method reports which credential source will be used. A service account key
// file takes precedence over the refresh-token triple.
func (c AuthConfig) Method() AuthMethod {
	if c.CredentialsFile != "" {
		return AuthServiceAccount
	}
	if c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != "" {
		return AuthRefreshToken
	}
	return AuthNone
}

// Validate returns ErrAuthRequired when no credential source is configured.
func (c AuthConfig) Validate() error {
	if c.Method() == AuthNone {
		return ErrAuthRequired
	}
	return nil
}

// TokenSource resolves the configured credentials into a token source scoped
// for Google Calendar.
func (c AuthConfig) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	switch c.Method() {
	case AuthServiceAccount:
		data, err := os.ReadFile(c.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(data, DefaultScopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account key file: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil

	case AuthRefreshToken:
		conf := &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  installedAppRedirectURL,
			Scopes:       DefaultScopes,
		}
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}), nil

	default:
		return nil, ErrAuthRequired
	}
}
