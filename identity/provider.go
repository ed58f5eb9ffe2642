// Package identity describes the capabilities the client needs from an external
// identity provider. Concrete providers are injected; nothing here performs a handshake.
package identity

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

var (
	ErrLoginTimeout      = errors.New("login timed out waiting for the identity provider")
	ErrUnknownLoginState = errors.New("unknown or expired login state")
	ErrLoginDenied       = errors.New("login denied by the identity provider")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNotInitialised    = errors.New("identity provider not initialised")
)

// Provider performs the authentication handshake with an external identity provider.
// Every method may block on network I/O and honours ctx.
type Provider interface {
	// Init runs the silent "check-sso" handshake. After it returns, Authenticated
	// reports whether a usable session was restored.
	Init(ctx context.Context) error
	// Authenticated reports the provider's current view of the user's state.
	Authenticated() bool
	LoadProfile(ctx context.Context) (*Profile, error)
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
}

// LoginCompleter is implemented by providers whose Login waits for an
// authorization-code callback delivered out of band.
type LoginCompleter interface {
	CompleteLogin(ctx context.Context, state, code, errorParam string) error
}

// URLOpener presents an authorization URL to the user, e.g. by redirecting a browser.
type URLOpener func(ctx context.Context, authURL string) error

type urlOpenerKey struct{}

// WithURLOpener attaches the opener an interactive Login should use.
func WithURLOpener(ctx context.Context, opener URLOpener) context.Context {
	return context.WithValue(ctx, urlOpenerKey{}, opener)
}

// URLOpenerFrom returns the opener attached to ctx, or one that logs the URL.
func URLOpenerFrom(ctx context.Context) URLOpener {
	if opener, ok := ctx.Value(urlOpenerKey{}).(URLOpener); ok && opener != nil {
		return opener
	}
	return logURLOpener
}

func logURLOpener(_ context.Context, authURL string) error {
	log.Info().Str("url", authURL).Msg("Open this URL to sign in")
	return nil
}
