package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/erazemk/zaloga/internal/model"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAPI struct {
	token      string
	cached     *model.User
	cleared    int
	user       *model.User
	verifyErr  error
	loginErr   error
	logoutErr  error
	loadingSaw []bool
	store      *Store
}

func (f *fakeAPI) Token() string               { return f.token }
func (f *fakeAPI) SetCachedUser(u *model.User) { f.cached = u }
func (f *fakeAPI) ClearAuth()                  { f.cleared++; f.token = ""; f.cached = nil }

func (f *fakeAPI) VerifyToken(context.Context) (*model.User, error) {
	f.observe()
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.user, nil
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (*model.AuthResult, error) {
	f.observe()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.token = "tok"
	return &model.AuthResult{Token: "tok", User: model.User{ID: 1, Email: email, Username: "ana"}}, nil
}

func (f *fakeAPI) Register(_ context.Context, email, username, _ string) (*model.AuthResult, error) {
	f.observe()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.token = "tok"
	return &model.AuthResult{Token: "tok", User: model.User{ID: 2, Email: email, Username: username}}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.observe()
	f.ClearAuth()
	return f.logoutErr
}

// observe records the store's loading flag while a call is in flight.
func (f *fakeAPI) observe() {
	if f.store != nil {
		f.loadingSaw = append(f.loadingSaw, f.store.Loading())
	}
}

func newStore(api *fakeAPI) *Store {
	s := New(api, WithLogger(quiet))
	api.store = s
	return s
}

func TestInitWithoutToken(t *testing.T) {
	api := &fakeAPI{}
	s := newStore(api)

	if s.State() != Unknown {
		t.Fatalf("expected Unknown before Init, got %v", s.State())
	}
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s.State() != Anonymous {
		t.Errorf("expected Anonymous, got %v", s.State())
	}
	if len(api.loadingSaw) != 0 {
		t.Error("Init without a token must not call the API")
	}
}

func TestInitVerifiesToken(t *testing.T) {
	api := &fakeAPI{token: "tok", user: &model.User{ID: 1, Username: "ana"}}
	s := newStore(api)

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !s.Authenticated() || s.User().Username != "ana" {
		t.Errorf("expected ana authenticated, got %+v", s.Snapshot())
	}
	if api.cached == nil {
		t.Error("expected verified user to be cached")
	}
	if len(api.loadingSaw) != 1 || api.loadingSaw[0] {
		t.Errorf("verification must not set Loading, saw %v", api.loadingSaw)
	}
}

func TestInitVerificationFailure(t *testing.T) {
	api := &fakeAPI{token: "tok", verifyErr: errors.New("expired")}
	s := newStore(api)

	if err := s.Init(context.Background()); err == nil {
		t.Fatal("expected verification error")
	}
	if s.State() != Anonymous || s.User() != nil {
		t.Errorf("expected Anonymous, got %+v", s.Snapshot())
	}
	if api.cleared == 0 || api.token != "" {
		t.Error("expected local auth to be cleared")
	}
}

func TestLoginAndLogout(t *testing.T) {
	api := &fakeAPI{}
	s := newStore(api)
	s.Init(context.Background())

	user, err := s.Login(context.Background(), "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "ana@example.com" || !s.Authenticated() {
		t.Errorf("expected authenticated session, got %+v", s.Snapshot())
	}
	if s.Loading() {
		t.Error("Loading must be false after Login returns")
	}

	api.logoutErr = errors.New("network down")
	if err := s.Logout(context.Background()); err == nil {
		t.Error("expected logout error to be returned")
	}
	if s.State() != Anonymous {
		t.Errorf("expected Anonymous after failed logout, got %v", s.State())
	}

	for i, loading := range api.loadingSaw {
		if !loading {
			t.Errorf("call %d ran without Loading set", i)
		}
	}
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("invalid credentials")}
	s := newStore(api)
	s.Init(context.Background())

	_, err := s.Login(context.Background(), "ana@example.com", "wrong")
	if err == nil || err.Error() != "invalid credentials" {
		t.Fatalf("expected server error to be returned, got %v", err)
	}
	if s.State() != Anonymous {
		t.Errorf("expected Anonymous, got %v", s.State())
	}

	if _, err := s.Register(context.Background(), "x@example.com", "x", "password123"); err == nil {
		t.Error("expected register error")
	}
	if s.Authenticated() {
		t.Error("expected register failure to keep the session anonymous")
	}
}

func TestSubscribeAndReset(t *testing.T) {
	api := &fakeAPI{}
	s := newStore(api)

	var mu sync.Mutex
	var states []State
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, snap.State)
	})

	s.Register(context.Background(), "ana@example.com", "ana", "password123")
	s.Reset()
	unsubscribe()
	s.Reset()

	mu.Lock()
	defer mu.Unlock()
	if len(states) == 0 || states[len(states)-1] != Anonymous {
		t.Fatalf("expected final notification Anonymous, got %v", states)
	}
	sawAuth := false
	for _, st := range states {
		if st == Authenticated {
			sawAuth = true
		}
	}
	if !sawAuth {
		t.Error("expected an Authenticated notification")
	}

	count := len(states)
	s.Reset()
	if len(states) != count {
		t.Error("unsubscribed listener was still notified")
	}
}
