package authsession_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-counterparty-client/authsession"
	"github.com/jrsteele09/go-counterparty-client/avatar"
	"github.com/jrsteele09/go-counterparty-client/identity"
	"github.com/jrsteele09/go-counterparty-client/identity/identityfake"
	"github.com/jrsteele09/go-counterparty-client/internal/alerts"
	apperrors "github.com/jrsteele09/go-counterparty-client/internal/errors"
	"github.com/jrsteele09/go-counterparty-client/internal/utils"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"github.com/stretchr/testify/require"
)

func aliceProfile() *identity.Profile {
	return &identity.Profile{
		ID:        "user-1",
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
		Roles:     []string{"user"},
	}
}

type testFixture struct {
	provider *identityfake.FakeProvider
	avatars  *avatar.Mapping
	alerts   *alerts.Queue
	session  *authsession.Session
}

// setupTestFixture creates a session over provider. Call provider.BlockInit before
// this to hold the bootstrap open.
func setupTestFixture(t *testing.T, provider *identityfake.FakeProvider) *testFixture {
	t.Helper()

	mapping, err := avatar.New(kvstore.NewInMemoryStore())
	require.NoError(t, err)

	queue := alerts.NewQueue()
	session, err := authsession.New(provider, mapping, queue)
	require.NoError(t, err)

	return &testFixture{provider: provider, avatars: mapping, alerts: queue, session: session}
}

func waitForSetup(t *testing.T, session *authsession.Session) authsession.SetupOutcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := session.SetupResult().Wait(ctx)
	require.NoError(t, err, "setup never settled")
	return outcome
}

func TestSession_InitRunsOnceForConcurrentWaiters(t *testing.T) {
	provider := identityfake.NewFakeProvider().WithRestoredSession().WithProfile(aliceProfile())
	release := provider.BlockInit()
	f := setupTestFixture(t, provider)

	const waiters = 50
	outcomes := make(chan authsession.SetupOutcome, waiters)
	var wg sync.WaitGroup
	for range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.session.SetupResult().Wait(context.Background())
			require.NoError(t, err)
			outcomes <- outcome
		}()
	}

	_, settled := f.session.SetupResult().Outcome()
	require.False(t, settled)
	require.False(t, f.session.IsAuthenticated())

	release()
	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		require.True(t, outcome.Ready())
	}
	require.Equal(t, 1, provider.InitCalls())
	require.True(t, f.session.IsAuthenticated())

	// Re-awaiting returns the cached outcome without touching the provider
	require.True(t, waitForSetup(t, f.session).Ready())
	require.Equal(t, 1, provider.InitCalls())
}

func TestSession_RestoredSessionLoadsProfile(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithRestoredSession().WithProfile(aliceProfile()))

	outcome := waitForSetup(t, f.session)
	require.True(t, outcome.Ready())
	require.NoError(t, outcome.Err)
	require.True(t, f.session.IsAuthenticated())
	require.Equal(t, "alice", f.session.UserProfile().Username)
}

func TestSession_NoSessionSettlesUnauthenticated(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithProfile(aliceProfile()))

	require.True(t, waitForSetup(t, f.session).Ready())
	require.False(t, f.session.IsAuthenticated())
	require.Nil(t, f.session.UserProfile())
	require.Zero(t, f.provider.ProfileCalls())
}

func TestSession_InitFailureStillSettles(t *testing.T) {
	initErr := errors.New("realm unreachable")
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithRestoredSession().WithInitError(initErr))

	outcome := waitForSetup(t, f.session)
	require.False(t, outcome.Ready())
	require.ErrorIs(t, outcome.Err, apperrors.ErrBootstrapFailed)
	require.ErrorIs(t, outcome.Err, initErr)
	require.False(t, f.session.IsAuthenticated())
	require.Zero(t, f.alerts.Len(), "bootstrap failure is logged, not alerted")
}

func TestSession_InitPanicStillSettles(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithInitPanic("adapter bug"))

	outcome := waitForSetup(t, f.session)
	require.ErrorIs(t, outcome.Err, apperrors.ErrBootstrapFailed)
	require.Contains(t, outcome.Err.Error(), "adapter bug")
	require.False(t, f.session.IsAuthenticated())
}

func TestSession_ProfileFailureIsNotFatal(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().
		WithRestoredSession().
		WithProfile(aliceProfile()).
		WithProfileError(errors.New("userinfo 503")))

	require.True(t, waitForSetup(t, f.session).Ready())
	require.True(t, f.session.IsAuthenticated())
	require.Nil(t, f.session.UserProfile())
	require.Equal(t, 1, f.provider.ProfileCalls())
}

func TestSession_ProfileFailureAfterSignInDropsPreviousUser(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithRestoredSession().WithProfile(aliceProfile()))
	ctx := context.Background()
	waitForSetup(t, f.session)
	require.Equal(t, "alice", f.session.UserProfile().Username)

	// Someone else signs in but their profile cannot be read
	f.provider.WithProfileError(errors.New("userinfo 503"))
	require.NoError(t, f.session.SignIn(ctx))
	require.True(t, f.session.IsAuthenticated())
	require.Nil(t, f.session.UserProfile())

	require.NoError(t, f.session.SetUserPictureID(ctx, utils.Ptr(9)))
	_, ok, err := f.avatars.Get(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok, "picture must not be written under the previous user")
}

func TestSession_SignInAndSignOut(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithProfile(aliceProfile()))
	ctx := context.Background()
	waitForSetup(t, f.session)
	setup := f.session.SetupResult()

	require.NoError(t, f.session.SignIn(ctx))
	require.True(t, f.session.IsAuthenticated())
	require.Equal(t, "alice", f.session.UserProfile().Username)

	require.NoError(t, f.session.SignOut(ctx))
	require.False(t, f.session.IsAuthenticated())
	require.Nil(t, f.session.UserProfile())

	require.Same(t, setup, f.session.SetupResult())
	require.Equal(t, 1, f.provider.InitCalls())
	require.Zero(t, f.alerts.Len())
}

func TestSession_SignInFailure(t *testing.T) {
	loginErr := errors.New("login window closed")
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithProfile(aliceProfile()).WithLoginError(loginErr))
	waitForSetup(t, f.session)

	err := f.session.SignIn(context.Background())
	require.ErrorIs(t, err, apperrors.ErrSignInFailed)
	require.ErrorIs(t, err, loginErr)
	require.False(t, f.session.IsAuthenticated())
	require.Equal(t, []string{authsession.SignInFailedMessage}, f.alerts.Drain())
}

func TestSession_SignOutFailureForcesUnauthenticated(t *testing.T) {
	logoutErr := errors.New("end session 500")
	f := setupTestFixture(t, identityfake.NewFakeProvider().
		WithRestoredSession().
		WithProfile(aliceProfile()).
		WithLogoutError(logoutErr))
	waitForSetup(t, f.session)
	require.True(t, f.session.IsAuthenticated())

	err := f.session.SignOut(context.Background())
	require.ErrorIs(t, err, apperrors.ErrSignOutFailed)
	require.ErrorIs(t, err, logoutErr)
	require.False(t, f.session.IsAuthenticated())
	require.Nil(t, f.session.UserProfile())
	require.Equal(t, []string{authsession.SignOutFailedMessage}, f.alerts.Drain())
}

func TestSession_ResyncKeepsUnchangedProfile(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithRestoredSession().WithProfile(aliceProfile()))
	ctx := context.Background()
	waitForSetup(t, f.session)

	before := f.session.UserProfile()
	require.NoError(t, f.session.SignIn(ctx))
	require.Same(t, before, f.session.UserProfile())

	changed := aliceProfile()
	changed.Email = "alice@wonderland.example"
	f.provider.WithProfile(changed)

	require.NoError(t, f.session.SignIn(ctx))
	after := f.session.UserProfile()
	require.NotSame(t, before, after)
	require.Equal(t, "alice@wonderland.example", after.Email)
	require.Equal(t, "alice@example.com", before.Email, "previous profile is never mutated")
}

func TestSession_UserPictureID(t *testing.T) {
	f := setupTestFixture(t, identityfake.NewFakeProvider().WithProfile(aliceProfile()))
	ctx := context.Background()
	waitForSetup(t, f.session)

	// No profile: reads report none and writes do nothing
	require.NoError(t, f.session.SetUserPictureID(ctx, utils.Ptr(4)))
	_, ok, err := f.session.UserPictureID(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, f.session.SignIn(ctx))
	require.NoError(t, f.session.SetUserPictureID(ctx, utils.Ptr(4)))
	id, ok, err := f.session.UserPictureID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, id)

	require.NoError(t, f.session.SetUserPictureID(ctx, nil))
	_, ok, err = f.session.UserPictureID(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetup_WaitGivesUpWithoutStoppingBootstrap(t *testing.T) {
	provider := identityfake.NewFakeProvider().WithRestoredSession().WithProfile(aliceProfile())
	release := provider.BlockInit()
	f := setupTestFixture(t, provider)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.session.SetupResult().Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	require.True(t, waitForSetup(t, f.session).Ready())
	require.True(t, f.session.IsAuthenticated())
}

func TestNew_Validation(t *testing.T) {
	_, err := authsession.New(nil, nil, alerts.NewQueue())
	require.Error(t, err)

	_, err = authsession.New(identityfake.NewFakeProvider(), nil, nil)
	require.Error(t, err)
}
