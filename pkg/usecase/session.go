package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sokoide/shopfront/pkg/domain"
)

// SessionStore owns the authentication state machine:
//
//	checking -> authenticated | not_authenticated
//	authenticated <-> not_authenticated
//
// It is the only writer of the persisted credential.
type SessionStore struct {
	creds domain.CredentialStore
	auth  domain.AuthAPI
	log   zerolog.Logger

	mu        sync.RWMutex
	status    domain.SessionStatus
	identity  domain.UserIdentity
	listeners []func(domain.SessionStatus)
}

// NewSessionStore creates a store in the checking state.
func NewSessionStore(creds domain.CredentialStore, auth domain.AuthAPI, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		creds:  creds,
		auth:   auth,
		log:    log.With().Str("pkg", "usecase").Str("component", "session").Logger(),
		status: domain.StatusChecking,
	}
}

func (s *SessionStore) Status() domain.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *SessionStore) Identity() domain.UserIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// IsAdmin reports whether the authenticated identity holds the admin role.
func (s *SessionStore) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status == domain.StatusAuthenticated && s.identity.Role == domain.RoleAdmin
}

// Subscribe registers fn to be called after every status change.
func (s *SessionStore) Subscribe(fn func(domain.SessionStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetChecking puts the store back into the checking state.
func (s *SessionStore) SetChecking() {
	s.transition(domain.StatusChecking, s.Identity())
}

// Login trusts p, persists its credential and marks the session authenticated.
// If the credential cannot be persisted the state is left unchanged.
func (s *SessionStore) Login(ctx context.Context, p domain.AuthPayload) error {
	if err := s.creds.Save(ctx, p.Token); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	s.transition(domain.StatusAuthenticated, p.UserIdentity)
	s.log.Info().Str("user", p.ID).Stringer("role", p.Role).Msg("logged in")
	return nil
}

// Logout clears the identity and the persisted credential. It never fails;
// a credential that cannot be removed is only logged.
func (s *SessionStore) Logout(ctx context.Context) {
	s.transition(domain.StatusNotAuthenticated, domain.UserIdentity{})
	if err := s.creds.Delete(ctx); err != nil {
		s.log.Warn().Err(err).Msg("could not remove persisted credential")
	}
}

// ValidateOnStart resolves the checking state exactly once at startup.
func (s *SessionStore) ValidateOnStart(ctx context.Context) {
	token, err := s.creds.Load(ctx)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, domain.ErrNoCredential) {
			s.log.Warn().Err(err).Msg("could not read persisted credential")
		}
		s.Logout(ctx)
		return
	}

	p, err := s.auth.Renew(ctx)
	if err != nil {
		s.log.Info().Err(err).Msg("credential renewal failed")
		s.Logout(ctx)
		return
	}
	if err := s.Login(ctx, p); err != nil {
		s.log.Warn().Err(err).Msg("renewed credential could not be stored")
		s.Logout(ctx)
	}
}

// SubmitLogin posts a login form. Incomplete forms are dropped silently.
func (s *SessionStore) SubmitLogin(ctx context.Context, f LoginForm) error {
	if !f.Valid() {
		return nil
	}
	p, err := s.auth.Login(ctx, f.Email, f.Password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return s.Login(ctx, p)
}

// SubmitRegister posts a registration form. Incomplete forms are dropped silently.
func (s *SessionStore) SubmitRegister(ctx context.Context, f RegisterForm) error {
	reg, ok := f.Registration()
	if !ok {
		return nil
	}
	p, err := s.auth.Register(ctx, reg)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return s.Login(ctx, p)
}

func (s *SessionStore) transition(status domain.SessionStatus, id domain.UserIdentity) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.identity = id
	listeners := append([]func(domain.SessionStatus){}, s.listeners...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(status)
	}
}
