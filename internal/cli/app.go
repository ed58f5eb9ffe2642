package cli

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-counterparty-client/authsession"
	"github.com/jrsteele09/go-counterparty-client/avatar"
	"github.com/jrsteele09/go-counterparty-client/clients"
	"github.com/jrsteele09/go-counterparty-client/identity/keycloak"
	"github.com/jrsteele09/go-counterparty-client/institutions"
	"github.com/jrsteele09/go-counterparty-client/internal/alerts"
	"github.com/jrsteele09/go-counterparty-client/internal/config"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"github.com/jrsteele09/go-counterparty-client/routeguard"
	"github.com/jrsteele09/go-counterparty-client/server"
	"github.com/jrsteele09/go-counterparty-client/transactions"
)

// app is the fully wired web client.
type app struct {
	store  *kvstore.BunStore
	server *server.Server
}

// newApp opens the database and wires the identity provider, session, guard and
// server. The session bootstrap starts here and runs in the background.
func newApp(ctx context.Context, c config.Config) (*app, error) {
	store, err := kvstore.Open(ctx, c.GetDatabasePath())
	if err != nil {
		return nil, err
	}

	srv, err := wire(ctx, c, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &app{store: store, server: srv}, nil
}

func wire(ctx context.Context, c config.Config, store kvstore.Store) (*server.Server, error) {
	tokens, err := keycloak.NewTokenStore(store, c.GetTokenStoreKey())
	if err != nil {
		return nil, fmt.Errorf("[cli wire] %w", err)
	}
	provider, err := keycloak.New(keycloak.Config{
		URL:          c.GetKeycloakURL(),
		Realm:        c.GetKeycloakRealm(),
		ClientID:     c.GetKeycloakClientID(),
		RedirectURL:  c.GetRedirectURL(),
		LoginTimeout: c.GetLoginTimeout(),
	}, tokens)
	if err != nil {
		return nil, fmt.Errorf("[cli wire] %w", err)
	}

	queue := alerts.NewQueue()
	mapping, err := avatar.New(store)
	if err != nil {
		return nil, fmt.Errorf("[cli wire] %w", err)
	}
	session, err := authsession.New(provider, mapping, queue, authsession.WithBootstrapContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("[cli wire] %w", err)
	}
	guard, err := routeguard.New(session, queue, routeguard.WithTimeout(c.GetSetupTimeout()))
	if err != nil {
		return nil, fmt.Errorf("[cli wire] %w", err)
	}

	clientRepo := clients.NewKVRepo(store)
	txService, err := transactions.NewService(store, clientRepo, institutions.NewRepo(store))
	if err != nil {
		return nil, fmt.Errorf("[cli wire] %w", err)
	}

	return server.New(c, server.Deps{
		Session:      session,
		Guard:        guard,
		Alerts:       queue,
		Clients:      clientRepo,
		Transactions: txService,
		Completer:    provider,
	})
}

func (a *app) Close() error {
	return a.store.Close()
}
