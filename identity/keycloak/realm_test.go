package keycloak_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testRealm    = "test"
	testClientID = "counterparty-client"
	testKeyID    = "test-key"
)

// fakeRealm serves the subset of a Keycloak realm the provider talks to.
type fakeRealm struct {
	t      *testing.T
	server *httptest.Server
	key    *rsa.PrivateKey

	mu             sync.Mutex
	codes          map[string]string // authorization code -> nonce
	refreshTokens  map[string]bool
	accessTokens   map[string]bool
	refreshGrants  int
	loggedOut      []string
	logoutStatus   int
	tokenCounter   int
	refreshExpires time.Duration
}

func newFakeRealm(t *testing.T) *fakeRealm {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	realm := &fakeRealm{
		t:              t,
		key:            key,
		codes:          make(map[string]string),
		refreshTokens:  make(map[string]bool),
		accessTokens:   make(map[string]bool),
		logoutStatus:   http.StatusNoContent,
		refreshExpires: 30 * time.Minute,
	}

	prefix := "/realms/" + testRealm
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/.well-known/openid-configuration", realm.discovery)
	mux.HandleFunc("GET "+prefix+"/protocol/openid-connect/certs", realm.certs)
	mux.HandleFunc("POST "+prefix+"/protocol/openid-connect/token", realm.tokenEndpoint)
	mux.HandleFunc("GET "+prefix+"/protocol/openid-connect/userinfo", realm.userInfo)
	mux.HandleFunc("POST "+prefix+"/protocol/openid-connect/logout", realm.logout)

	realm.server = httptest.NewServer(mux)
	t.Cleanup(realm.server.Close)
	return realm
}

func (r *fakeRealm) issuer() string {
	return r.server.URL + "/realms/" + testRealm
}

// issueCode registers an authorization code bound to nonce, as the login page would.
func (r *fakeRealm) issueCode(nonce string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	code := fmt.Sprintf("code-%d", len(r.codes)+1)
	r.codes[code] = nonce
	return code
}

func (r *fakeRealm) discovery(w http.ResponseWriter, _ *http.Request) {
	base := r.issuer() + "/protocol/openid-connect"
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                r.issuer(),
		"authorization_endpoint":                base + "/auth",
		"token_endpoint":                        base + "/token",
		"userinfo_endpoint":                     base + "/userinfo",
		"jwks_uri":                              base + "/certs",
		"end_session_endpoint":                  base + "/logout",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (r *fakeRealm) certs(w http.ResponseWriter, _ *http.Request) {
	pub := r.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (r *fakeRealm) tokenEndpoint(w http.ResponseWriter, req *http.Request) {
	require.NoError(r.t, req.ParseForm())

	r.mu.Lock()
	defer r.mu.Unlock()

	var nonce string
	switch req.PostForm.Get("grant_type") {
	case "authorization_code":
		var ok bool
		nonce, ok = r.codes[req.PostForm.Get("code")]
		if !ok || req.PostForm.Get("code_verifier") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		delete(r.codes, req.PostForm.Get("code"))
	case "refresh_token":
		if !r.refreshTokens[req.PostForm.Get("refresh_token")] {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		r.refreshGrants++
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	r.tokenCounter++
	now := time.Now()
	accessToken := r.sign(jwt.MapClaims{
		"iss":          r.issuer(),
		"sub":          "user-1",
		"exp":          now.Add(5 * time.Minute).Unix(),
		"jti":          fmt.Sprintf("access-%d", r.tokenCounter),
		"realm_access": map[string]any{"roles": []string{"user", "offline_access"}},
	})
	refreshToken := r.sign(jwt.MapClaims{
		"iss": r.issuer(),
		"sub": "user-1",
		"exp": now.Add(r.refreshExpires).Unix(),
		"jti": fmt.Sprintf("refresh-%d", r.tokenCounter),
	})
	idClaims := jwt.MapClaims{
		"iss": r.issuer(),
		"sub": "user-1",
		"aud": testClientID,
		"exp": now.Add(5 * time.Minute).Unix(),
		"iat": now.Unix(),
	}
	if nonce != "" {
		idClaims["nonce"] = nonce
	}

	r.accessTokens[accessToken] = true
	r.refreshTokens[refreshToken] = true

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"expires_in":    300,
		"refresh_token": refreshToken,
		"id_token":      r.sign(idClaims),
	})
}

func (r *fakeRealm) userInfo(w http.ResponseWriter, req *http.Request) {
	token := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")

	r.mu.Lock()
	known := r.accessTokens[token]
	r.mu.Unlock()
	if !known {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sub":                "user-1",
		"preferred_username": "alice",
		"email":              "alice@example.com",
		"email_verified":     true,
		"given_name":         "Alice",
		"family_name":        "Liddell",
	})
}

func (r *fakeRealm) logout(w http.ResponseWriter, req *http.Request) {
	require.NoError(r.t, req.ParseForm())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggedOut = append(r.loggedOut, req.PostForm.Get("refresh_token"))
	delete(r.refreshTokens, req.PostForm.Get("refresh_token"))
	w.WriteHeader(r.logoutStatus)
}

func (r *fakeRealm) sign(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(r.key)
	require.NoError(r.t, err)
	return signed
}

// signExpiredRefreshToken returns a refresh token whose exp has already passed.
func (r *fakeRealm) signExpiredRefreshToken() string {
	return r.sign(jwt.MapClaims{
		"iss": r.issuer(),
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
}

func (r *fakeRealm) refreshGrantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshGrants
}

func (r *fakeRealm) loggedOutTokens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.loggedOut...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
