package keycloak

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-counterparty-client/internal/utils"
)

// refreshTokenExpired reports whether a Keycloak refresh token has passed its exp claim.
// Opaque tokens and tokens without exp (offline tokens) are left to the token endpoint.
// The signature is not checked: the token is only ever sent back to its issuer.
func refreshTokenExpired(raw string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// realmRoles reads realm_access.roles from a Keycloak access token.
func realmRoles(accessToken string) []string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return []string{}
	}
	access, ok := claims["realm_access"].(map[string]any)
	if !ok {
		return []string{}
	}
	return utils.StringSliceFromClaim(access["roles"])
}
