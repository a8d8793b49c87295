// Package session holds the client-side source of truth for authentication
// state: the current user, the access/refresh token pair, and the hydration
// lifecycle. Persistence and cookie synchronization are side channels the
// store drives through the Persister and Mirror ports.
package session

import (
	"context"
	"sync"

	"umclient/internal/logging"
	"umclient/internal/models"
)

// Persister stores the credential record durably. Load of a missing record
// must return the zero record and no error.
type Persister interface {
	Load(ctx context.Context) (models.Credentials, error)
	Save(ctx context.Context, creds models.Credentials) error
}

// Mirror synchronizes token presence into the cookie side channel consumed
// by the edge route guard. Implementations must treat an empty token as a
// deletion. The cookies are a read-optimized copy, never the source of truth.
type Mirror interface {
	Sync(accessToken, refreshToken string)
	Clear()
}

// NoopMirror satisfies Mirror in contexts that have no cookie surface
// (the CLI, or hydration before any response writer exists).
type NoopMirror struct{}

func (NoopMirror) Sync(_, _ string) {}
func (NoopMirror) Clear()           {}

// Store is the credential store. Every mutating operation is a single
// atomic state transition: a snapshot taken at any moment observes either
// the state before or after an operation, never a partial update.
type Store struct {
	mu       sync.RWMutex
	creds    models.Credentials
	hydrated bool

	persister Persister
	mirror    Mirror
	log       logging.Logger
}

// New constructs a Store wired to the given ports. Any port may be nil; a
// nil persister keeps state in memory only and a nil mirror disables cookie
// synchronization.
func New(persister Persister, mirror Mirror, log logging.Logger) *Store {
	if mirror == nil {
		mirror = NoopMirror{}
	}
	return &Store{persister: persister, mirror: mirror, log: log}
}

// Login atomically installs the user and both tokens and marks the session
// authenticated. Inputs are assumed valid: the caller has already completed
// a successful login call.
func (s *Store) Login(user models.User, accessToken, refreshToken string) {
	s.mu.Lock()
	u := user
	s.creds = models.Credentials{
		User:            &u,
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		IsAuthenticated: true,
	}
	creds := s.creds
	s.mu.Unlock()

	s.persist(creds)
	s.mirror.Sync(creds.AccessToken, creds.RefreshToken)
}

// SetTokens replaces only the token pair, leaving the user untouched.
// Used after a silent refresh.
func (s *Store) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	s.creds.AccessToken = accessToken
	s.creds.RefreshToken = refreshToken
	creds := s.creds
	s.mu.Unlock()

	s.persist(creds)
	s.mirror.Sync(creds.AccessToken, creds.RefreshToken)
}

// SetUser replaces the user record and marks the session authenticated.
// Used after fetching the authoritative profile.
func (s *Store) SetUser(user models.User) {
	s.mu.Lock()
	u := user
	s.creds.User = &u
	s.creds.IsAuthenticated = true
	creds := s.creds
	s.mu.Unlock()

	s.persist(creds)
}

// UpdateUser shallow-merges the patch into the current user record. When no
// user is set the call is a no-op.
func (s *Store) UpdateUser(patch models.UserPatch) {
	s.mu.Lock()
	if s.creds.User == nil {
		s.mu.Unlock()
		return
	}
	u := *s.creds.User
	patch.Apply(&u)
	s.creds.User = &u
	creds := s.creds
	s.mu.Unlock()

	s.persist(creds)
}

// Logout clears the whole session and wipes the cookie mirror. Calling it
// on an already cleared store is a side-effect-free no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	if s.creds.Empty() {
		s.mu.Unlock()
		return
	}
	s.creds = models.Credentials{}
	s.mu.Unlock()

	s.persist(models.Credentials{})
	s.mirror.Clear()
}

// Hydrate loads the persisted record into memory, synchronizes the cookie
// mirror once, and flips the hydrated flag. It runs at most once; repeated
// calls return immediately. Consumers must gate auth-dependent decisions on
// HasHydrated to avoid acting on pre-hydration state.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	var creds models.Credentials
	if s.persister != nil {
		loaded, err := s.persister.Load(ctx)
		if err != nil {
			return err
		}
		creds = loaded
	}

	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return nil
	}
	s.creds = creds
	s.hydrated = true
	s.mu.Unlock()

	s.mirror.Sync(creds.AccessToken, creds.RefreshToken)
	return nil
}

// Snapshot returns a consistent copy of the full credential state.
func (s *Store) Snapshot() models.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds := s.creds
	if creds.User != nil {
		u := *creds.User
		creds.User = &u
	}
	return creds
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.RefreshToken
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.IsAuthenticated
}

// HasHydrated reports whether persisted state has been loaded. It never
// flips back to false once true.
func (s *Store) HasHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *Store) persist(creds models.Credentials) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(context.Background(), creds); err != nil && s.log != nil {
		s.log.Warn(context.Background(), "persisting credentials failed", "error", err)
	}
}
