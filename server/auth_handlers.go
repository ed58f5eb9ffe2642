package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/go-counterparty-client/identity"
	"github.com/rs/zerolog/log"
)

// callbackWait bounds how long the callback waits for the sign in to finish the
// token exchange before sending the browser on.
const callbackWait = 15 * time.Second

// signIn is an interactive sign in running in the background.
type signIn struct {
	done chan struct{}
	err  error
}

func (si *signIn) finish(err error) {
	si.err = err
	close(si.done)
}

// signInTracker remembers the most recent sign in so the callback can wait for it.
type signInTracker struct {
	lock    sync.Mutex
	current *signIn
}

func (t *signInTracker) start() *signIn {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.current = &signIn{done: make(chan struct{})}
	return t.current
}

func (t *signInTracker) latest() *signIn {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.current
}

// SignInHandler starts the identity provider login and sends the browser to the
// authorization URL (POST /auth/signin). The login itself outlives the request: it
// completes when the provider redirects back to the callback.
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURLs := make(chan string, 1)
		opener := func(_ context.Context, authURL string) error {
			authURLs <- authURL
			return nil
		}
		ctx := identity.WithURLOpener(context.WithoutCancel(r.Context()), opener)

		pending := s.signIns.start()
		go func() {
			pending.finish(s.deps.Session.SignIn(ctx))
		}()

		select {
		case authURL := <-authURLs:
			http.Redirect(w, r, authURL, http.StatusSeeOther)
		case <-pending.done:
			// Finished without needing the browser; any failure has been alerted
			redirectSuccess(w, r, RoutePath(RouteNameClients))
		case <-r.Context().Done():
		}
	}
}

// CallbackHandler receives the authorization response (GET /callback).
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Completer == nil {
			http.NotFound(w, r)
			return
		}

		query := r.URL.Query()
		err := s.deps.Completer.CompleteLogin(r.Context(), query.Get("state"), query.Get("code"), query.Get("error"))
		switch {
		case errors.Is(err, identity.ErrUnknownLoginState):
			log.Ctx(r.Context()).Warn().Err(err).Msg("Callback for an unknown login")
			redirectSuccess(w, r, RoutePath(RouteNameLogin))
			return
		case err != nil:
			log.Ctx(r.Context()).Warn().Err(err).Str("error_description", query.Get("error_description")).Msg("Login was not completed")
		}

		if pending := s.signIns.latest(); pending != nil {
			select {
			case <-pending.done:
			case <-time.After(callbackWait):
				log.Ctx(r.Context()).Warn().Msg("Sign in still running after callback")
			case <-r.Context().Done():
				return
			}
		}
		redirectSuccess(w, r, RoutePath(RouteNameClients))
	}
}

// SignOutHandler ends the session (POST /auth/signout). A failure is alerted by the session.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deps.Session.SignOut(r.Context()); err != nil {
			log.Ctx(r.Context()).Debug().Err(err).Msg("Sign out returned an error")
		}
		redirectSuccess(w, r, RoutePath(RouteNameLogin))
	}
}
