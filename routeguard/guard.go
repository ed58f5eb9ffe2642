// Package routeguard decides, before a page is rendered, whether the navigation may
// proceed or must be redirected to another named route.
package routeguard

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-counterparty-client/authsession"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout   = 8000 * time.Millisecond
	DefaultLoginName = "login"
	DefaultHomeName  = "clients"

	// TimeoutMessage is raised when the bootstrap has not settled within the timeout.
	TimeoutMessage = "connection to identity provider timed out"
)

// Route identifies a page by name and path.
type Route struct {
	Name string
	Path string
}

type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the outcome of a Check. A redirect names its destination route;
// resolving the name to a path is the router's job.
type Decision struct {
	Action    Action
	RouteName string
}

func AllowNavigation() Decision {
	return Decision{Action: Allow}
}

func RedirectTo(routeName string) Decision {
	return Decision{Action: Redirect, RouteName: routeName}
}

// SessionState is the part of the session the guard reads.
type SessionState interface {
	IsAuthenticated() bool
	SetupResult() *authsession.Setup
}

// Notifier raises a fire-and-forget message for the user.
type Notifier interface {
	Alert(message string)
}

// Guard gatekeeps page navigations on the session's authentication state.
type Guard struct {
	session   SessionState
	notifier  Notifier
	timeout   time.Duration
	loginName string
	homeName  string
}

// Option customises a Guard.
type Option func(*Guard)

// WithTimeout bounds how long a navigation waits for the bootstrap.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Guard) {
		g.timeout = timeout
	}
}

func WithLoginRoute(name string) Option {
	return func(g *Guard) {
		g.loginName = name
	}
}

func WithHomeRoute(name string) Option {
	return func(g *Guard) {
		g.homeName = name
	}
}

func New(session SessionState, notifier Notifier, options ...Option) (*Guard, error) {
	if session == nil {
		return nil, errors.New("[routeguard New] session is required")
	}
	if notifier == nil {
		return nil, errors.New("[routeguard New] notifier is required")
	}

	g := &Guard{
		session:   session,
		notifier:  notifier,
		timeout:   DefaultTimeout,
		loginName: DefaultLoginName,
		homeName:  DefaultHomeName,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.timeout <= 0 {
		return nil, errors.New("[routeguard New] timeout must be positive")
	}
	if g.loginName == "" || g.homeName == "" {
		return nil, errors.New("[routeguard New] login and home route names are required")
	}
	return g, nil
}

// Check decides whether the navigation from current to target may proceed.
//
// It waits for the session bootstrap for at most the configured timeout. When the
// timeout wins the user is alerted once and the navigation is decided as
// unauthenticated; the bootstrap keeps running and its result applies to later
// navigations only. A cancelled ctx is decided as unauthenticated without an alert.
func (g *Guard) Check(ctx context.Context, target, current Route) Decision {
	authenticated := g.awaitSession(ctx, target)
	decision := g.decide(authenticated, target)

	log.Debug().
		Str("target", target.Name).
		Str("from", current.Name).
		Bool("authenticated", authenticated).
		Stringer("action", decision.Action).
		Str("redirect", decision.RouteName).
		Msg("Navigation checked")
	return decision
}

func (g *Guard) awaitSession(ctx context.Context, target Route) bool {
	setup := g.session.SetupResult()

	// Settled bootstraps never race the timer
	select {
	case <-setup.Done():
		return g.session.IsAuthenticated()
	default:
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case <-setup.Done():
		return g.session.IsAuthenticated()
	case <-timer.C:
		log.Warn().Str("target", target.Name).Dur("timeout", g.timeout).Msg("Identity provider bootstrap timed out")
		g.notifier.Alert(TimeoutMessage)
		return false
	case <-ctx.Done():
		return false
	}
}

func (g *Guard) decide(authenticated bool, target Route) Decision {
	toLogin := target.Name == g.loginName
	switch {
	case !authenticated && !toLogin:
		return RedirectTo(g.loginName)
	case authenticated && toLogin:
		return RedirectTo(g.homeName)
	default:
		return AllowNavigation()
	}
}
