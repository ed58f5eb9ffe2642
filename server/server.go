// Package server renders the counterparty client's pages and routes every page
// navigation through the route guard.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-counterparty-client/authsession"
	"github.com/jrsteele09/go-counterparty-client/clients"
	"github.com/jrsteele09/go-counterparty-client/identity"
	"github.com/jrsteele09/go-counterparty-client/internal/alerts"
	"github.com/jrsteele09/go-counterparty-client/internal/config"
	"github.com/jrsteele09/go-counterparty-client/routeguard"
	"github.com/jrsteele09/go-counterparty-client/transactions"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the server renders and mutates.
type Deps struct {
	Session      *authsession.Session
	Guard        *routeguard.Guard
	Alerts       *alerts.Queue
	Clients      clients.Repo
	Transactions *transactions.Service
	// Completer receives the authorization callback. Nil disables /callback.
	Completer identity.LoginCompleter
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	appName  string
	currency string
	mux      *http.ServeMux
	routes   []string
	deps     Deps
	pages    *pageTemplates
	signIns  signInTracker
}

func New(config config.EnvConfig, deps Deps) (*Server, error) {
	if deps.Session == nil {
		return nil, errors.New("[Server New] session is required")
	}
	if deps.Guard == nil {
		return nil, errors.New("[Server New] route guard is required")
	}
	if deps.Alerts == nil {
		return nil, errors.New("[Server New] alert queue is required")
	}
	if deps.Clients == nil || deps.Transactions == nil {
		return nil, errors.New("[Server New] client and transaction stores are required")
	}

	s := &Server{
		env:      config.GetEnv(),
		appName:  config.GetAppName(),
		currency: config.GetCurrency(),
		mux:      http.NewServeMux(),
		deps:     deps,
	}

	pages, err := parsePageTemplates(s.templateFuncs())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}
	s.pages = pages

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// redirectSuccess redirects the browser, or instructs htmx to when the request came from it.
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
