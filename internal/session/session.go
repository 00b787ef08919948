// Package session is the single source of truth for who is logged in,
// kept in sync with durable storage.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/observe"
	"github.com/mmcdole/stacks/internal/validation"
)

// Persistence keys
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// LoginResult is the outcome of Login
type LoginResult struct {
	Success     bool
	User        *domain.User
	Error       string
	FieldErrors map[string]string
}

// ProfileResult is the outcome of UpdateProfile
type ProfileResult struct {
	Success     bool
	User        *domain.User
	Error       string
	FieldErrors map[string]string
}

// Store holds the session pair. User and token are set and cleared together.
type Store struct {
	client    domain.AccountClient
	kv        domain.KV
	validator *validation.Validator
	logger    *slog.Logger

	started atomic.Bool

	mu      sync.RWMutex
	session domain.Session

	listeners observe.Listeners
}

// New creates a logged-out store. Call Init once at startup to restore a
// persisted session.
func New(client domain.AccountClient, kv domain.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client:    client,
		kv:        kv,
		validator: validation.New(),
		logger:    logger,
	}
}

// Init restores the persisted session and re-verifies it with the server.
// Only the first call does anything. Returns true if a verified session
// is active afterwards.
func (s *Store) Init(ctx context.Context) bool {
	if !s.started.CompareAndSwap(false, true) {
		return s.Snapshot().IsAuthenticated()
	}

	token, hasToken := s.kv.Get(KeyToken)
	rawUser, hasUser := s.kv.Get(KeyUser)
	if !hasToken || !hasUser || token == "" {
		if hasToken || hasUser {
			s.logger.Warn("discarding half-persisted session", "hasToken", hasToken, "hasUser", hasUser)
			s.clearPersisted()
		}
		return false
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.logger.Warn("discarding unreadable persisted user", "error", err)
		s.clearPersisted()
		return false
	}
	if user.ID == "" || !user.Role.Valid() {
		s.logger.Warn("discarding incomplete persisted user", "role", user.Role)
		s.clearPersisted()
		return false
	}

	// Optimistic: the token must be attached to the verification call
	s.set(domain.Session{User: &user, Token: token})

	env, err := s.client.Me(ctx)
	res := domain.Normalize(env, err)
	if !res.OK() {
		s.logger.Info("persisted session failed verification", "kind", res.Failure.Kind)
		s.Logout(ctx)
		return false
	}

	verified := res.Data
	s.mu.Lock()
	if s.session.Token != token {
		// Replaced or cleared while verifying
		s.mu.Unlock()
		return s.Snapshot().IsAuthenticated()
	}
	s.session.User = &verified
	s.mu.Unlock()
	s.persist(domain.Session{User: &verified, Token: token})
	s.listeners.Notify()

	s.logger.Info("session restored", "user", verified.ID, "role", verified.Role)
	return true
}

// Login exchanges credentials for a session. A failed login changes nothing.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) LoginResult {
	if err := s.validator.Validate(creds); err != nil {
		f := domain.FailureFrom(err)
		return LoginResult{Error: f.Message, FieldErrors: f.FieldErrors}
	}

	env, err := s.client.Login(ctx, creds)
	res := domain.Normalize(env, err)
	if !res.OK() {
		s.logger.Info("login failed", "email", creds.Email, "kind", res.Failure.Kind)
		return LoginResult{Error: res.Failure.Message, FieldErrors: res.Failure.FieldErrors}
	}
	if res.Data.Token == "" || res.Data.User.ID == "" {
		s.logger.Error("login response missing token or user")
		return LoginResult{Error: domain.GenericFailureMessage}
	}

	user := res.Data.User
	next := domain.Session{User: &user, Token: res.Data.Token}
	s.persist(next)
	s.set(next)

	s.logger.Info("logged in", "user", user.ID, "role", user.Role)
	return LoginResult{Success: true, User: copyUser(&user)}
}

// Logout tells the server best-effort, then clears the session locally
// whatever the server said.
func (s *Store) Logout(ctx context.Context) {
	if s.Token() != "" {
		if err := s.client.Logout(ctx); err != nil {
			s.logger.Warn("server logout failed", "error", err)
		}
	}
	s.HandleUnauthorized()
}

// HandleUnauthorized clears the session without calling the server. It is
// the hook for a 401 seen on any request.
func (s *Store) HandleUnauthorized() {
	s.clearPersisted()

	s.mu.Lock()
	changed := s.session.IsAuthenticated()
	s.session = domain.Session{}
	s.mu.Unlock()

	if changed {
		s.logger.Info("logged out")
		s.listeners.Notify()
	}
}

// UpdateProfile saves profile edits. On success only the user is replaced;
// on failure the session is left as it was.
func (s *Store) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) ProfileResult {
	if !s.Snapshot().IsAuthenticated() {
		return ProfileResult{Error: domain.ErrNotAuthenticated.Error()}
	}
	if err := s.validator.Validate(patch); err != nil {
		f := domain.FailureFrom(err)
		return ProfileResult{Error: f.Message, FieldErrors: f.FieldErrors}
	}

	env, err := s.client.UpdateProfile(ctx, patch)
	res := domain.Normalize(env, err)
	if !res.OK() {
		return ProfileResult{Error: res.Failure.Message, FieldErrors: res.Failure.FieldErrors}
	}

	user := res.Data
	s.mu.Lock()
	if !s.session.IsAuthenticated() {
		s.mu.Unlock()
		return ProfileResult{Error: domain.ErrNotAuthenticated.Error()}
	}
	s.session.User = &user
	current := s.session
	s.mu.Unlock()

	s.persist(current)
	s.listeners.Notify()
	return ProfileResult{Success: true, User: copyUser(&user)}
}

// SetToken replaces the credential of an active session, e.g. after a
// token refresh. It does nothing when logged out.
func (s *Store) SetToken(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	if !s.session.IsAuthenticated() {
		s.mu.Unlock()
		return
	}
	s.session.Token = token
	current := s.session
	s.mu.Unlock()

	s.persist(current)
	s.listeners.Notify()
}

// Token implements domain.TokenSource
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Snapshot returns a copy of the session
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Session{User: copyUser(s.session.User), Token: s.session.Token}
}

// HasRole reports whether the current user has role
func (s *Store) HasRole(role domain.Role) bool {
	return s.Snapshot().Role() == role
}

// HasAnyRole reports whether the current user has one of roles
func (s *Store) HasAnyRole(roles ...domain.Role) bool {
	r := s.Snapshot().Role()
	return r != "" && slices.Contains(roles, r)
}

func (s *Store) IsAdmin() bool {
	return s.HasRole(domain.RoleAdmin)
}

// IsStaff is true for librarians and admins
func (s *Store) IsStaff() bool {
	return s.Snapshot().Role().IsStaff()
}

// Subscribe registers fn to be called after every session change
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

// Close drops listeners. Persisted state is left in place.
func (s *Store) Close() {
	s.listeners.Clear()
}

func (s *Store) set(next domain.Session) {
	s.mu.Lock()
	s.session = next
	s.mu.Unlock()
	s.listeners.Notify()
}

// persist writes both keys. Failures are logged; the in-memory session
// still reflects the server.
func (s *Store) persist(sess domain.Session) {
	raw, err := json.Marshal(sess.User)
	if err != nil {
		s.logger.Error("failed to encode user", "error", err)
		return
	}
	if err := s.kv.Set(KeyToken, sess.Token); err != nil {
		s.logger.Error("failed to persist token", "error", err)
		return
	}
	if err := s.kv.Set(KeyUser, string(raw)); err != nil {
		s.logger.Error("failed to persist user", "error", err)
		// Never leave a token without its user
		_ = s.kv.Remove(KeyToken)
	}
}

func (s *Store) clearPersisted() {
	if err := s.kv.Remove(KeyToken); err != nil {
		s.logger.Warn("failed to remove persisted token", "error", err)
	}
	if err := s.kv.Remove(KeyUser); err != nil {
		s.logger.Warn("failed to remove persisted user", "error", err)
	}
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
