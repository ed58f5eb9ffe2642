package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-counterparty-client/authsession"
	"github.com/jrsteele09/go-counterparty-client/avatar"
	"github.com/jrsteele09/go-counterparty-client/clients"
	"github.com/jrsteele09/go-counterparty-client/identity"
	"github.com/jrsteele09/go-counterparty-client/identity/identityfake"
	"github.com/jrsteele09/go-counterparty-client/institutions"
	"github.com/jrsteele09/go-counterparty-client/internal/alerts"
	"github.com/jrsteele09/go-counterparty-client/internal/config"
	"github.com/jrsteele09/go-counterparty-client/internal/format"
	"github.com/jrsteele09/go-counterparty-client/internal/random"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"github.com/jrsteele09/go-counterparty-client/routeguard"
	"github.com/jrsteele09/go-counterparty-client/server"
	"github.com/jrsteele09/go-counterparty-client/transactions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	validAddress = "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"
	authURL      = "https://sso.example.com/realms/test/auth?state=state-1"
)

// callbackProvider hands out an authorization URL and waits for the callback,
// like a real OIDC provider would.
type callbackProvider struct {
	*identityfake.FakeProvider
	codes chan string
}

func newCallbackProvider(fake *identityfake.FakeProvider) *callbackProvider {
	return &callbackProvider{FakeProvider: fake, codes: make(chan string, 1)}
}

func (p *callbackProvider) Login(ctx context.Context) error {
	if err := identity.URLOpenerFrom(ctx)(ctx, authURL); err != nil {
		return err
	}
	select {
	case code := <-p.codes:
		if code == "" {
			return identity.ErrLoginDenied
		}
		return p.FakeProvider.Login(ctx)
	case <-time.After(5 * time.Second):
		return identity.ErrLoginTimeout
	}
}

func (p *callbackProvider) CompleteLogin(_ context.Context, state, code, errorParam string) error {
	if state != "state-1" {
		return identity.ErrUnknownLoginState
	}
	if errorParam != "" {
		code = ""
	}
	p.codes <- code
	if code == "" {
		return identity.ErrLoginDenied
	}
	return nil
}

type testFixture struct {
	provider *callbackProvider
	session  *authsession.Session
	alerts   *alerts.Queue
	clients  *clients.KVRepo
	server   *server.Server
}

func setupTestFixture(t *testing.T, fake *identityfake.FakeProvider, guardOptions ...routeguard.Option) *testFixture {
	t.Helper()
	t.Setenv("CURRENCY", "EUR")

	store := kvstore.NewInMemoryStore()
	provider := newCallbackProvider(fake)
	queue := alerts.NewQueue()

	mapping, err := avatar.New(store)
	require.NoError(t, err)
	session, err := authsession.New(provider, mapping, queue)
	require.NoError(t, err)
	guard, err := routeguard.New(session, queue, guardOptions...)
	require.NoError(t, err)

	clientRepo := clients.NewKVRepo(store)
	txService, err := transactions.NewService(store, clientRepo,
		institutions.NewRepo(store, institutions.WithGenerator(random.NewSeeded(1))))
	require.NoError(t, err)

	srv, err := server.New(config.New(), server.Deps{
		Session:      session,
		Guard:        guard,
		Alerts:       queue,
		Clients:      clientRepo,
		Transactions: txService,
		Completer:    provider,
	})
	require.NoError(t, err)

	return &testFixture{provider: provider, session: session, alerts: queue, clients: clientRepo, server: srv}
}

func signedInFixture(t *testing.T) *testFixture {
	t.Helper()
	return setupTestFixture(t, identityfake.NewFakeProvider().
		WithRestoredSession().
		WithProfile(&identity.Profile{ID: "user-1", Username: "alice", FirstName: "Alice", LastName: "Liddell"}))
}

func (f *testFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *testFixture) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, location, rec.Header().Get("Location"))
}

func TestPages_UnauthenticatedAreSentToLogin(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider())

	for _, path := range []string{"/", "/gallery", "/transaction/1"} {
		requireRedirect(t, f.get(t, path), "/login")
	}
	requireRedirect(t, f.post(t, "/clients", url.Values{"name": {"Acme"}, "address": {validAddress}}), "/login")

	rec := f.get(t, "/login")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `action="/auth/signin"`)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPages_AuthenticatedLoginGoesHome(t *testing.T) {
	f := signedInFixture(t)

	requireRedirect(t, f.get(t, "/login"), "/")

	rec := f.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "No clients yet.")
	require.Contains(t, body, "Alice Liddell")
}

func TestClients_AddListDelete(t *testing.T) {
	f := signedInFixture(t)

	requireRedirect(t, f.post(t, "/clients", url.Values{"name": {"Acme"}, "address": {validAddress}}), "/")

	rec := f.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Acme")
	require.Contains(t, rec.Body.String(), validAddress)
	require.Contains(t, rec.Body.String(), "0.00")

	requireRedirect(t, f.post(t, "/clients/1/delete", nil), "/")
	list, err := f.clients.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestClients_AddShowsValidationMessages(t *testing.T) {
	f := signedInFixture(t)

	rec := f.post(t, "/clients", url.Values{"name": {""}, "address": {"tooShort"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Name is required.")
	require.Contains(t, body, "Address must be between 25 and 34 characters long.")
	require.Contains(t, body, `value="tooShort"`)
}

func TestGallery_SelectAndClearPicture(t *testing.T) {
	f := signedInFixture(t)
	ctx := context.Background()

	requireRedirect(t, f.post(t, "/gallery", url.Values{"pictureId": {"3"}}), "/gallery")
	id, ok, err := f.session.UserPictureID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, id)

	rec := f.get(t, "/gallery")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `class="picture selected"`)

	requireRedirect(t, f.post(t, "/gallery", url.Values{"pictureId": {""}}), "/gallery")
	_, ok, err = f.session.UserPictureID(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, http.StatusBadRequest, f.post(t, "/gallery", url.Values{"pictureId": {"99"}}).Code)
}

func TestTransaction_SimulateAndHistory(t *testing.T) {
	f := signedInFixture(t)
	client, err := f.clients.Add(context.Background(), clients.ClientParams{Name: "Acme", Address: validAddress})
	require.NoError(t, err)

	requireRedirect(t, f.post(t, "/transaction/"+client.ID, url.Values{"amount": {"12.5"}}), "/transaction/"+client.ID)

	rec := f.get(t, "/transaction/"+client.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), format.Amount(decimal.RequireFromString("12.5"), "EUR"))

	rec = f.post(t, "/transaction/"+client.ID, url.Values{"amount": {"abc"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Amount must be a number.")

	rec = f.post(t, "/transaction/"+client.ID, url.Values{"amount": {"1"}, "address": {"short"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Address must be between 25 and 34 characters long.")
}

func TestTransaction_UnknownClientAlerts(t *testing.T) {
	f := signedInFixture(t)

	requireRedirect(t, f.get(t, "/transaction/404"), "/")

	rec := f.get(t, "/")
	require.Contains(t, rec.Body.String(), "Client not found")
	require.Zero(t, f.alerts.Len())
}

func TestGuard_TimeoutAlertIsRendered(t *testing.T) {
	fake := identityfake.NewFakeProvider().WithRestoredSession()
	release := fake.BlockInit()
	defer release()
	f := setupTestFixture(t, fake, routeguard.WithTimeout(20*time.Millisecond))

	requireRedirect(t, f.get(t, "/gallery"), "/login")

	rec := f.get(t, "/login")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, strings.Count(rec.Body.String(), routeguard.TimeoutMessage), "both timed out navigations show one alert")
}

func TestAuth_SignInThroughCallback(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithProfile(&identity.Profile{ID: "user-1", Username: "alice"}))

	requireRedirect(t, f.post(t, "/auth/signin", nil), authURL)
	requireRedirect(t, f.get(t, "/callback?state=state-1&code=abc"), "/")

	require.True(t, f.session.IsAuthenticated())
	require.Equal(t, "alice", f.session.UserProfile().Username)
	require.Equal(t, http.StatusOK, f.get(t, "/").Code)
}

func TestAuth_DeniedSignInAlerts(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider())

	requireRedirect(t, f.post(t, "/auth/signin", nil), authURL)
	requireRedirect(t, f.get(t, "/callback?state=state-1&error=access_denied"), "/")
	require.False(t, f.session.IsAuthenticated())

	requireRedirect(t, f.get(t, "/"), "/login")
	rec := f.get(t, "/login")
	require.Contains(t, rec.Body.String(), authsession.SignInFailedMessage)
}

func TestAuth_CallbackWithUnknownState(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider())
	requireRedirect(t, f.get(t, "/callback?state=forged&code=abc"), "/login")
}

func TestAuth_SignOut(t *testing.T) {
	f := signedInFixture(t)
	require.Equal(t, http.StatusOK, f.get(t, "/").Code)

	requireRedirect(t, f.post(t, "/auth/signout", nil), "/login")
	require.False(t, f.session.IsAuthenticated())
	requireRedirect(t, f.get(t, "/"), "/login")
}

func TestStatic_ServesStylesheet(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider())

	rec := f.get(t, "/static/app.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	require.Equal(t, http.StatusNotFound, f.get(t, "/static/missing.css").Code)
}

func TestRoutePath(t *testing.T) {
	require.Equal(t, "/login", server.RoutePath(server.RouteNameLogin))
	require.Equal(t, "/", server.RoutePath(server.RouteNameClients))
	require.Equal(t, "/gallery", server.RoutePath(server.RouteNameGallery))
	require.Equal(t, "/", server.RoutePath("unknown"))
	require.Equal(t, "/transaction/42", server.TransactionPath("42"))
}
