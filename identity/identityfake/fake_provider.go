package identityfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-counterparty-client/identity"
)

var _ identity.Provider = (*FakeProvider)(nil)

// FakeProvider is a scriptable identity.Provider that counts calls.
type FakeProvider struct {
	lock sync.Mutex

	authenticated bool
	profile       *identity.Profile

	// Scripted outcomes
	restoreSession bool
	initErr        error
	initPanic      any
	loginErr       error
	logoutErr      error
	profileErr     error
	initGate       chan struct{}

	initCalls    int
	loginCalls   int
	logoutCalls  int
	profileCalls int
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// WithProfile sets the profile returned by LoadProfile and Login.
func (f *FakeProvider) WithProfile(profile *identity.Profile) *FakeProvider {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.profile = profile
	return f
}

// WithRestoredSession makes Init report an authenticated user.
func (f *FakeProvider) WithRestoredSession() *FakeProvider {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.restoreSession = true
	return f
}

func (f *FakeProvider) WithInitError(err error) *FakeProvider {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.initErr = err
	return f
}

func (f *FakeProvider) WithInitPanic(v any) *FakeProvider {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.initPanic = v
	return f
}

func (f *FakeProvider) WithLoginError(err error) *FakeProvider {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.loginErr = err
	return f
}

func (f *FakeProvider) WithLogoutError(err error) *FakeProvider {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.logoutErr = err
	return f
}

func (f *FakeProvider) WithProfileError(err error) *FakeProvider {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.profileErr = err
	return f
}

// BlockInit makes Init wait until the returned release function is called.
func (f *FakeProvider) BlockInit() (release func()) {
	f.lock.Lock()
	defer f.lock.Unlock()
	gate := make(chan struct{})
	f.initGate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (f *FakeProvider) Init(ctx context.Context) error {
	f.lock.Lock()
	f.initCalls++
	gate := f.initGate
	f.lock.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if f.initPanic != nil {
		panic(f.initPanic)
	}
	if f.initErr != nil {
		f.authenticated = false
		return f.initErr
	}
	f.authenticated = f.restoreSession
	return nil
}

func (f *FakeProvider) Authenticated() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.authenticated
}

func (f *FakeProvider) LoadProfile(_ context.Context) (*identity.Profile, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if !f.authenticated || f.profile == nil {
		return nil, identity.ErrNotAuthenticated
	}
	// Hand out a fresh copy each time, like a decoded network response
	profile := *f.profile
	profile.Roles = append([]string(nil), f.profile.Roles...)
	return &profile, nil
}

func (f *FakeProvider) Login(_ context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return f.loginErr
	}
	f.authenticated = true
	return nil
}

func (f *FakeProvider) Logout(_ context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.logoutCalls++
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.authenticated = false
	return nil
}

func (f *FakeProvider) InitCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.initCalls
}

func (f *FakeProvider) LoginCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.loginCalls
}

func (f *FakeProvider) LogoutCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.logoutCalls
}

func (f *FakeProvider) ProfileCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.profileCalls
}
