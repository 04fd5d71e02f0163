// Package session holds the signed-in user and keeps it consistent with the API.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/erazemk/zaloga/internal/model"
)

// State is the authentication state of a session.
type State int

const (
	// Unknown means a stored token, if any, has not been verified yet.
	Unknown State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// ErrNoUser is returned when the API reports success without a user.
var ErrNoUser = errors.New("no user in response")

// API is the part of the API client the session uses.
type API interface {
	Token() string
	SetCachedUser(u *model.User)
	ClearAuth()
	VerifyToken(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.AuthResult, error)
	Register(ctx context.Context, email, username, password string) (*model.AuthResult, error)
	Logout(ctx context.Context) error
}

// Snapshot is a consistent view of a Store.
type Snapshot struct {
	State   State
	User    *model.User
	Loading bool
}

// Authenticated reports whether the snapshot has a signed-in user.
func (s Snapshot) Authenticated() bool {
	return s.State == Authenticated && s.User != nil
}

// Store is the single in-memory session. It is safe for concurrent use.
type Store struct {
	api API
	log *slog.Logger

	mu      sync.Mutex
	state   State
	user    *model.User
	loading bool
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a store in the Unknown state. Call Init to hydrate it.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:  api,
		log:  slog.Default(),
		subs: map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{State: s.state, User: s.user, Loading: s.loading}
}

// State returns the current state.
func (s *Store) State() State { return s.Snapshot().State }

// User returns the signed-in user, or nil.
func (s *Store) User() *model.User { return s.Snapshot().User }

// Loading reports whether a login, register or logout call is in flight.
func (s *Store) Loading() bool { return s.Snapshot().Loading }

// Authenticated reports whether a user is signed in.
func (s *Store) Authenticated() bool { return s.Snapshot().Authenticated() }

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// update applies fn under the lock and notifies subscribers outside it.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Store) signIn(u *model.User) {
	s.update(func() {
		s.state = Authenticated
		s.user = u
	})
}

func (s *Store) signOut() {
	s.update(func() {
		s.state = Anonymous
		s.user = nil
	})
}

func (s *Store) setLoading(v bool) {
	s.update(func() { s.loading = v })
}

// Init verifies a stored token. Without a token the session becomes
// Anonymous immediately. A failed verification clears all stored auth and
// is returned. Init does not touch Loading.
func (s *Store) Init(ctx context.Context) error {
	if s.api.Token() == "" {
		s.signOut()
		return nil
	}

	user, err := s.api.VerifyToken(ctx)
	if err == nil && user == nil {
		err = ErrNoUser
	}
	if err != nil {
		s.log.Warn("stored session could not be verified", "error", err)
		s.api.ClearAuth()
		s.signOut()
		return err
	}

	s.api.SetCachedUser(user)
	s.signIn(user)
	return nil
}

// Login signs in. On failure the session stays Anonymous and the error is returned.
func (s *Store) Login(ctx context.Context, email, password string) (*model.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	result, err := s.api.Login(ctx, email, password)
	return s.finishAuth(result, err)
}

// Register creates an account and signs in.
func (s *Store) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	result, err := s.api.Register(ctx, email, username, password)
	return s.finishAuth(result, err)
}

func (s *Store) finishAuth(result *model.AuthResult, err error) (*model.User, error) {
	if err == nil && result == nil {
		err = ErrNoUser
	}
	if err != nil {
		s.signOut()
		return nil, err
	}
	user := result.User
	s.signIn(&user)
	return &user, nil
}

// Logout signs out. The session ends Anonymous even when the request fails;
// the request error is still returned.
func (s *Store) Logout(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)
	defer s.signOut()

	return s.api.Logout(ctx)
}

// Reset drops the in-memory session without calling the API, e.g. after the
// API client has already cleared auth on a 401.
func (s *Store) Reset() {
	s.signOut()
}
