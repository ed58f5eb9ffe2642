package config

import (
	"strings"
	"time"
)

const (
	keycloakURLVar    = "KEYCLOAK_URL"
	keycloakRealmVar  = "KEYCLOAK_REALM"
	keycloakClientVar = "KEYCLOAK_CLIENT"
	loginTimeoutVar   = "LOGIN_TIMEOUT"
	tokenStoreKeyVar  = "TOKEN_STORE_KEY"

	// CallbackPath is where the identity provider returns the authorization code.
	CallbackPath = "/callback"
)

type Identity struct {
	env EnvVars
}

var _ IdentityConfig = Identity{}

func (i Identity) GetKeycloakURL() string {
	return strings.TrimRight(i.env.get(keycloakURLVar, "http://localhost:8081"), "/")
}

func (i Identity) GetKeycloakRealm() string {
	return i.env.get(keycloakRealmVar, "counterparties")
}

func (i Identity) GetKeycloakClientID() string {
	return i.env.get(keycloakClientVar, "counterparty-client")
}

func (i Identity) GetRedirectURL() string {
	return i.env.GetBaseURL() + CallbackPath
}

func (i Identity) GetLoginTimeout() time.Duration {
	return parseDuration(i.env.get(loginTimeoutVar, ""), 5*time.Minute)
}

// GetTokenStoreKey returns the secret used to seal persisted tokens.
// An empty key keeps tokens in memory only.
func (i Identity) GetTokenStoreKey() string {
	return i.env.get(tokenStoreKeyVar, "")
}
