package keycloak

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jrsteele09/go-counterparty-client/internal/errors"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/oauth2"
)

const (
	tokenBucket = "identity"
	tokenKey    = "session"
	nonceSize   = 24
	hkdfInfo    = "counterparty-client token store"
)

// StoredToken is the persisted form of an OIDC session.
type StoredToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
}

func newStoredToken(token *oauth2.Token, rawIDToken string) StoredToken {
	return StoredToken{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		IDToken:      rawIDToken,
	}
}

func (s StoredToken) oauth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry,
	}
}

// TokenStore persists the session token sealed with NaCl secretbox.
// Without a secret (or a backing store) tokens live in memory only and a
// restart always starts unauthenticated.
type TokenStore struct {
	store kvstore.Store
	key   *[32]byte

	lock   sync.Mutex
	memory *StoredToken
}

func NewTokenStore(store kvstore.Store, secret string) (*TokenStore, error) {
	ts := &TokenStore{store: store}
	if store == nil || secret == "" {
		return ts, nil
	}

	var key [32]byte
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key[:]); err != nil {
		return nil, fmt.Errorf("[keycloak NewTokenStore] failed to derive key: %w", err)
	}
	ts.key = &key
	return ts, nil
}

// Durable reports whether tokens survive a restart.
func (ts *TokenStore) Durable() bool {
	return ts.key != nil
}

func (ts *TokenStore) Save(ctx context.Context, token StoredToken) error {
	if !ts.Durable() {
		ts.lock.Lock()
		ts.memory = &token
		ts.lock.Unlock()
		return nil
	}

	plaintext, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("[keycloak TokenStore.Save] %w", err)
	}
	sealed, err := ts.seal(plaintext)
	if err != nil {
		return err
	}
	return ts.store.Set(ctx, tokenBucket, tokenKey, sealed)
}

// Load returns the persisted token or an error wrapping kvstore.ErrNotFound.
func (ts *TokenStore) Load(ctx context.Context) (*StoredToken, error) {
	if !ts.Durable() {
		ts.lock.Lock()
		defer ts.lock.Unlock()
		if ts.memory == nil {
			return nil, kvstore.ErrNotFound
		}
		token := *ts.memory
		return &token, nil
	}

	sealed, err := ts.store.Get(ctx, tokenBucket, tokenKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := ts.open(sealed)
	if err != nil {
		return nil, err
	}
	var token StoredToken
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return nil, fmt.Errorf("[keycloak TokenStore.Load] %w", err)
	}
	return &token, nil
}

func (ts *TokenStore) Clear(ctx context.Context) error {
	if !ts.Durable() {
		ts.lock.Lock()
		ts.memory = nil
		ts.lock.Unlock()
		return nil
	}
	return ts.store.Delete(ctx, tokenBucket, tokenKey)
}

func (ts *TokenStore) seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("[keycloak TokenStore.seal] %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, ts.key), nil
}

func (ts *TokenStore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, errors.ErrSealedValue
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, ts.key)
	if !ok {
		return nil, errors.ErrSealedValue
	}
	return plaintext, nil
}
