package keycloak

import (
	"errors"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Config holds the Keycloak client configuration.
type Config struct {
	// URL is the Keycloak base URL, e.g. "https://sso.example.com".
	URL string
	// Realm the client is registered in.
	Realm string
	// ClientID of the public client.
	ClientID string
	// RedirectURL receives the authorization code, e.g. "http://localhost:8080/callback".
	RedirectURL string
	// Scopes to request. Default: ["openid", "profile", "email"]
	Scopes []string
	// LoginTimeout bounds how long Login waits for the callback. Default: 5 minutes.
	LoginTimeout time.Duration
}

// Issuer returns the realm's OIDC issuer URL.
func (c Config) Issuer() string {
	return c.URL + "/realms/" + c.Realm
}

func (c *Config) setDefaults() {
	if len(c.Scopes) == 0 {
		c.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = 5 * time.Minute
	}
}

func (c Config) validate() error {
	if c.URL == "" {
		return errors.New("keycloak URL is required")
	}
	if c.Realm == "" {
		return errors.New("keycloak realm is required")
	}
	if c.ClientID == "" {
		return errors.New("keycloak client ID is required")
	}
	if c.RedirectURL == "" {
		return errors.New("redirect URL is required")
	}
	return nil
}
