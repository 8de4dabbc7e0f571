package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/pkg/bearer"
	"github.com/dataflow/console/internal/pkg/metrics"
	"github.com/dataflow/console/internal/pkg/validation"
)

const defaultRefreshLeeway = 5 * time.Minute

// SessionManager is the single source of truth for who is signed in. The user
// record is only ever replaced whole, from a successful profile fetch, and
// authentication is derived from holding one, never from token presence.
type SessionManager struct {
	api    ports.AuthAPI
	tokens ports.TokenStore
	now    func() time.Time
	leeway time.Duration
	log    zerolog.Logger

	startOnce sync.Once
	ready     chan struct{}

	mu    sync.RWMutex
	state ports.SessionState
	user  *domain.User
}

var _ ports.SessionService = (*SessionManager)(nil)

// SessionOptions tunes token rotation.
type SessionOptions struct {
	// RefreshLeeway is how close to expiry a token must be for
	// EnsureFreshToken to rotate it.
	RefreshLeeway time.Duration
	Now           func() time.Time
}

func NewSessionManager(api ports.AuthAPI, tokens ports.TokenStore, opts SessionOptions, log zerolog.Logger) *SessionManager {
	if opts.RefreshLeeway <= 0 {
		opts.RefreshLeeway = defaultRefreshLeeway
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionManager{
		api:    api,
		tokens: tokens,
		now:    opts.Now,
		leeway: opts.RefreshLeeway,
		log:    log,
		ready:  make(chan struct{}),
		state:  ports.SessionLoading,
	}
}

// Start validates any persisted token by fetching the profile. It runs at most
// once per manager; later calls return immediately. A token the backend
// rejects is discarded silently.
func (s *SessionManager) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		defer close(s.ready)
		s.restore(ctx)
	})
}

func (s *SessionManager) restore(ctx context.Context) {
	token, ok, err := s.tokens.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored session unreadable, starting anonymous")
		s.discardToken(ctx)
		s.clear("startup")
		return
	}
	if !ok {
		s.clear("startup")
		return
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("stored token rejected, discarding")
		s.discardToken(ctx)
		s.clear("startup")
		return
	}

	s.log.Debug().Bool("has_exp", hasExpiry(token)).Msg("session restored")
	s.setUser(user, "startup")
}

// Ready is closed once Start finished.
func (s *SessionManager) Ready() <-chan struct{} {
	return s.ready
}

func (s *SessionManager) State() ports.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *SessionManager) IsLoading() bool {
	return s.State() == ports.SessionLoading
}

func (s *SessionManager) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// User returns a copy of the current user record.
func (s *SessionManager) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// SignIn exchanges credentials for a token, persists it and loads the profile.
// On any failure the error is returned and no new session is established.
func (s *SessionManager) SignIn(ctx context.Context, email, password string) error {
	if err := s.authenticate(ctx, email, password, "signin"); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s.log.Info().Msg("signed in")
	return nil
}

type signUpInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=255"`
}

// SignUp checks the password locally, registers the account and then signs
// in with the same credentials. A registration failure aborts before any
// token exchange.
func (s *SessionManager) SignUp(ctx context.Context, email, password, name string) error {
	// 1. Local checks short-circuit before any network call.
	if err := domain.CheckPasswordStrength(password); err != nil {
		return err
	}
	if err := validation.Default().Struct(signUpInput{Email: email, Name: name}); err != nil {
		return err
	}

	// 2. Register.
	if _, err := s.api.SignUp(ctx, ports.SignUpInput{Email: email, Password: password, Name: name}); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	// 3. Same exchange and profile fetch as SignIn.
	if err := s.authenticate(ctx, email, password, "signup"); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	s.log.Info().Msg("signed up")
	return nil
}

func (s *SessionManager) authenticate(ctx context.Context, email, password, reason string) error {
	tok, err := s.api.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return errors.New("backend returned an empty access token")
	}
	if err := s.tokens.Set(ctx, tok.AccessToken); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		// The previous token was already replaced, so whatever session
		// existed before is gone too.
		s.discardToken(ctx)
		s.clear("invalidated")
		return fmt.Errorf("fetch profile: %w", err)
	}

	s.setUser(user, reason)
	return nil
}

// SignOut discards the token and the user record. It makes no network call.
func (s *SessionManager) SignOut(ctx context.Context) error {
	err := s.tokens.Remove(ctx)
	s.clear("signout")
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// RefreshUser re-fetches the profile when a token is present. A 401 ends the
// session; other errors leave it untouched.
func (s *SessionManager) RefreshUser(ctx context.Context) error {
	_, ok, err := s.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("refresh user: %w", err)
	}
	if !ok {
		return nil
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.discardToken(ctx)
			s.clear("invalidated")
		}
		return fmt.Errorf("refresh user: %w", err)
	}

	s.setUser(user, "refresh")
	return nil
}

// RotateToken swaps the stored token for a fresh one from the backend.
func (s *SessionManager) RotateToken(ctx context.Context) error {
	_, ok, err := s.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("rotate token: %w", err)
	}
	if !ok {
		return domain.ErrNotAuthenticated
	}

	tok, err := s.api.RefreshToken(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.discardToken(ctx)
			s.clear("invalidated")
		}
		return fmt.Errorf("rotate token: %w", err)
	}
	if tok.AccessToken == "" {
		return errors.New("rotate token: backend returned an empty access token")
	}
	if err := s.tokens.Set(ctx, tok.AccessToken); err != nil {
		return fmt.Errorf("rotate token: persist: %w", err)
	}
	s.log.Debug().Msg("token rotated")
	return nil
}

// EnsureFreshToken rotates the token when it is a JWT expiring within the
// configured leeway. Opaque tokens are never rotated.
func (s *SessionManager) EnsureFreshToken(ctx context.Context) (bool, error) {
	token, ok, err := s.tokens.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("ensure fresh token: %w", err)
	}
	if !ok || !bearer.ExpiresWithin(token, s.now(), s.leeway) {
		return false, nil
	}
	if err := s.RotateToken(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// TokenExpiry reports the unverified exp claim of the stored token.
func (s *SessionManager) TokenExpiry(ctx context.Context) (time.Time, bool) {
	token, ok, err := s.tokens.Get(ctx)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return bearer.Expiry(token)
}

func (s *SessionManager) setUser(u *domain.User, reason string) {
	s.mu.Lock()
	cp := *u
	s.user = &cp
	s.state = ports.SessionAuthenticated
	s.mu.Unlock()

	metrics.SessionTransitionsTotal.WithLabelValues(string(ports.SessionAuthenticated), reason).Inc()
}

func (s *SessionManager) clear(reason string) {
	s.mu.Lock()
	s.user = nil
	s.state = ports.SessionAnonymous
	s.mu.Unlock()

	metrics.SessionTransitionsTotal.WithLabelValues(string(ports.SessionAnonymous), reason).Inc()
}

func (s *SessionManager) discardToken(ctx context.Context) {
	if err := s.tokens.Remove(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to discard stored token")
	}
}

func hasExpiry(token string) bool {
	_, ok := bearer.Expiry(token)
	return ok
}
