// Package authsession owns the application's single view of "am I signed in, and as whom".
//
// A Session is created once at start-up. Creating it starts the identity provider
// bootstrap immediately and publishes its shared Setup before New returns, so no caller
// can observe the session before the bootstrap has begun. Every later caller waits on
// that same Setup; the provider's Init runs at most once per Session.
//
// Session state (authentication flag and profile) is only ever written by the internal
// synchronisation step, which runs after the bootstrap, after SignIn and after SignOut.
// Synchronisations never overlap.
package authsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apperrors "github.com/jrsteele09/go-counterparty-client/internal/errors"
	"github.com/jrsteele09/go-counterparty-client/identity"
	"github.com/rs/zerolog/log"
)

// Alert messages shown to the user.
const (
	SignInFailedMessage  = "Sign in failed"
	SignOutFailedMessage = "Sign out failed"
)

// Notifier raises a fire-and-forget message for the user.
type Notifier interface {
	Alert(message string)
}

// AvatarMapping stores the picture id chosen by each user.
type AvatarMapping interface {
	Get(ctx context.Context, username string) (int, bool, error)
	Set(ctx context.Context, username string, id *int) error
}

// Session is the process-wide authentication state. Safe for concurrent use.
type Session struct {
	provider identity.Provider
	avatars  AvatarMapping
	notifier Notifier
	setup    *Setup

	syncLock sync.Mutex // serialises synchronisation

	lock            sync.RWMutex
	isAuthenticated bool
	userProfile     *identity.Profile
}

// Option customises a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	bootstrapContext context.Context
}

// WithBootstrapContext sets the context handed to the provider's Init.
// Values are kept; cancellation is not, so the bootstrap always runs to completion.
func WithBootstrapContext(ctx context.Context) Option {
	return func(o *sessionOptions) {
		o.bootstrapContext = ctx
	}
}

// New creates the Session and starts the identity provider bootstrap.
// avatars may be nil, in which case picture ids are never stored.
func New(provider identity.Provider, avatars AvatarMapping, notifier Notifier, options ...Option) (*Session, error) {
	if provider == nil {
		return nil, errors.New("[authsession New] identity provider is required")
	}
	if notifier == nil {
		return nil, errors.New("[authsession New] notifier is required")
	}

	opts := sessionOptions{bootstrapContext: context.Background()}
	for _, opt := range options {
		opt(&opts)
	}

	s := &Session{
		provider: provider,
		avatars:  avatars,
		notifier: notifier,
		setup:    newSetup(),
	}
	go s.initialize(context.WithoutCancel(opts.bootstrapContext))
	return s, nil
}

// initialize runs the bootstrap once and always settles the Setup.
// A failed bootstrap is logged, leaves the session unauthenticated and raises no alert.
func (s *Session) initialize(ctx context.Context) {
	var outcome SetupOutcome
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Session bootstrap panicked")
			s.forceUnauthenticated()
			outcome = SetupOutcome{Err: fmt.Errorf("%w: panic: %v", apperrors.ErrBootstrapFailed, r)}
		}
		s.setup.settle(outcome)
	}()

	initErr := s.initProvider(ctx)
	if initErr != nil {
		log.Err(initErr).Msg("Identity provider bootstrap failed")
		outcome = SetupOutcome{Err: fmt.Errorf("%w: %w", apperrors.ErrBootstrapFailed, initErr)}
	}

	s.syncLock.Lock()
	defer s.syncLock.Unlock()
	s.synchronizeLocked(ctx)
	if initErr != nil {
		s.setState(false, nil)
	}
	log.Info().Bool("authenticated", s.IsAuthenticated()).Msg("Session bootstrap settled")
}

func (s *Session) initProvider(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider init panicked: %v", r)
		}
	}()
	return s.provider.Init(ctx)
}

func (s *Session) synchronize(ctx context.Context) {
	s.syncLock.Lock()
	defer s.syncLock.Unlock()
	s.synchronizeLocked(ctx)
}

// synchronizeLocked copies the provider's view into the session. The stored profile is
// only replaced when the provider reports a different one, so callers holding the
// previous pointer keep seeing the same value. A profile that fails to load is logged
// and the profile is left unset; the provider may now hold a different user.
func (s *Session) synchronizeLocked(ctx context.Context) {
	if !s.provider.Authenticated() {
		s.setState(false, nil)
		return
	}

	profile, err := s.provider.LoadProfile(ctx)
	if err != nil {
		log.Err(err).Msg("Failed to load user profile")
		s.setState(true, nil)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.isAuthenticated = true
	if !s.userProfile.Equal(profile) {
		s.userProfile = profile
	}
}

func (s *Session) setState(authenticated bool, profile *identity.Profile) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.isAuthenticated = authenticated
	s.userProfile = profile
}

func (s *Session) forceUnauthenticated() {
	s.syncLock.Lock()
	defer s.syncLock.Unlock()
	s.setState(false, nil)
}

// SignIn runs the provider's interactive login and resynchronises the session.
// On failure the session is left unauthenticated, the user is alerted and the
// error is returned wrapping errors.ErrSignInFailed.
func (s *Session) SignIn(ctx context.Context) error {
	if err := s.provider.Login(ctx); err != nil {
		return s.fail(err, apperrors.ErrSignInFailed, SignInFailedMessage)
	}
	s.synchronize(ctx)
	return nil
}

// SignOut ends the provider session and resynchronises. Failure handling matches SignIn.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.provider.Logout(ctx); err != nil {
		return s.fail(err, apperrors.ErrSignOutFailed, SignOutFailedMessage)
	}
	s.synchronize(ctx)
	return nil
}

func (s *Session) fail(err, sentinel error, message string) error {
	s.forceUnauthenticated()
	s.notifier.Alert(message)
	log.Err(err).Msg(message)
	return fmt.Errorf("%w: %w", sentinel, err)
}

func (s *Session) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.isAuthenticated
}

// UserProfile returns the current profile, or nil. The returned value must not be modified.
func (s *Session) UserProfile() *identity.Profile {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.userProfile
}

// SetupResult returns the shared bootstrap result.
func (s *Session) SetupResult() *Setup {
	return s.setup
}

// UserPictureID returns the picture chosen by the current user.
// Without a profile it reports no picture.
func (s *Session) UserPictureID(ctx context.Context) (int, bool, error) {
	username := s.username()
	if username == "" || s.avatars == nil {
		return 0, false, nil
	}
	return s.avatars.Get(ctx, username)
}

// SetUserPictureID stores (or with nil, clears) the current user's picture.
// Without a profile it does nothing.
func (s *Session) SetUserPictureID(ctx context.Context, id *int) error {
	username := s.username()
	if username == "" || s.avatars == nil {
		return nil
	}
	return s.avatars.Set(ctx, username, id)
}

func (s *Session) username() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.userProfile == nil {
		return ""
	}
	return s.userProfile.Username
}
