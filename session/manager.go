package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/internal/errors"
	"github.com/jrsteele09/engine-dashboard/tokenstore"
	"github.com/jrsteele09/engine-dashboard/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Authenticator is the part of the API client the manager drives
type Authenticator interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (apiclient.LoginResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.RegisterResponse, error)
	SetBearerToken(token string)
	ClearBearerToken()
}

var _ Authenticator = (*apiclient.Client)(nil)

// Manager owns the current session. It restores it from the token store once at
// startup and keeps the API client's bearer header equal to the session token.
type Manager struct {
	store  tokenstore.Store
	api    Authenticator
	logger zerolog.Logger
	now    func() time.Time
	// storeTimeout bounds store calls made while mu is held
	storeTimeout time.Duration

	restoreOnce sync.Once
	ready       chan struct{}

	mu      sync.Mutex
	session Session
	// epoch changes on every logout so a login answered afterwards is dropped
	epoch uint64
	// touched is set once login or logout ran; a later restore must not overwrite it
	touched bool
}

// DefaultStoreTimeout bounds a single token store call
const DefaultStoreTimeout = 3 * time.Second

type Option func(*Manager)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithClock replaces the clock used to check restored token expiry
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.storeTimeout = d
		}
	}
}

func NewManager(store tokenstore.Store, api Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		api:          api,
		logger:       log.Logger,
		now:          time.Now,
		storeTimeout: DefaultStoreTimeout,
		ready:        make(chan struct{}),
		session:      Session{Status: StatusInitializing},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("component", "session").Logger()
	return m
}

// Restore reads the token store and moves the session to Ready. Only the first call
// has any effect.
//
// A token without a usable user record, or a JWT that has already expired, is
// discarded and the store cleared.
func (m *Manager) Restore(ctx context.Context) {
	m.restoreOnce.Do(func() {
		creds := m.store.Get(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		defer close(m.ready)
		m.session.Status = StatusReady

		if m.touched {
			m.logger.Debug().Msg("session changed before restore, ignoring stored credentials")
			return
		}

		switch {
		case creds.Empty():
			m.logger.Debug().Msg("no stored session")
			return
		case creds.User == nil || creds.Token == "":
			m.logger.Warn().Msg("stored token has no user, discarding")
			m.discardStored(ctx)
			return
		case tokenExpired(creds.Token, m.now()):
			m.logger.Info().Str("user", creds.User.Username).Msg("stored token expired, discarding")
			m.discardStored(ctx)
			return
		}

		m.session.User = creds.User
		m.session.Token = creds.Token
		m.api.SetBearerToken(creds.Token)
		m.logger.Info().Str("user", creds.User.Username).Str("role", creds.User.Role.String()).Msg("session restored")
	})
}

// discardStored clears the store during restore; callers hold m.mu
func (m *Manager) discardStored(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("clearing stored session")
	}
}

// Ready is closed once Restore has run
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Current returns a snapshot of the session
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.clone()
}

// Login authenticates against the API. On success the store, the session and the API
// client's bearer header are all updated before Login returns. On failure nothing
// changes and an *AuthError is returned. If Logout ran while the request was in
// flight the result is dropped and errors.ErrSuperseded is returned.
func (m *Manager) Login(ctx context.Context, username, password string) (users.User, error) {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	resp, err := m.api.Login(ctx, apiclient.LoginRequest{Username: username, Password: password})
	if err != nil {
		m.logger.Info().Err(err).Str("user", username).Msg("login failed")
		return users.User{}, newAuthError(errors.ErrAuthenticationFailed, LoginFailedMessage, err)
	}
	if err := validLogin(resp); err != nil {
		m.logger.Warn().Err(err).Str("user", username).Msg("unusable login response")
		return users.User{}, &AuthError{Kind: errors.ErrAuthenticationFailed, Message: LoginFailedMessage, Err: err}
	}
	user := resp.User

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		m.logger.Info().Str("user", username).Msg("login answered after logout, discarding")
		return users.User{}, errors.ErrSuperseded
	}
	if err := m.persist(ctx, resp.AccessToken, user); err != nil {
		return users.User{}, errors.Wrapf(err, "persisting session for %s", username)
	}

	m.touched = true
	m.session.User = &user
	m.session.Token = resp.AccessToken
	m.api.SetBearerToken(resp.AccessToken)

	m.logger.Info().Str("user", user.Username).Str("role", user.Role.String()).Msg("logged in")
	return user, nil
}

// persist writes the credentials within storeTimeout; callers hold m.mu
func (m *Manager) persist(ctx context.Context, token string, user users.User) error {
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	return m.store.Set(ctx, token, user)
}

func validLogin(resp apiclient.LoginResponse) error {
	if resp.AccessToken == "" {
		return errors.New("login response has no access token")
	}
	if resp.User.Username == "" {
		return errors.New("login response has no user")
	}
	if !resp.User.Role.Valid() {
		return errors.Wrapf(errors.ErrInvalidInput, "login response role %q", resp.User.Role)
	}
	return nil
}

// Register creates an account. The session is not changed.
func (m *Manager) Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.RegisterResponse, error) {
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		m.logger.Info().Err(err).Str("user", req.Username).Msg("registration failed")
		return apiclient.RegisterResponse{}, newAuthError(errors.ErrRegistrationFailed, RegisterFailedMessage, err)
	}
	m.logger.Info().Str("user", resp.User.Username).Msg("account registered")
	return resp, nil
}

// Logout clears the session, the store and the bearer header. Calling it while
// anonymous is harmless.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.User != nil {
		m.logger.Info().Str("user", m.session.User.Username).Msg("logged out")
	}
	m.clear(ctx)
}

// Expire ends the session after the API rejected its token
func (m *Manager) Expire(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.User != nil {
		m.logger.Info().Str("user", m.session.User.Username).Msg("session expired")
	}
	m.clear(ctx)
}

// ExpireToken expires the session only if token is still its credential. It is meant
// as the API client's unauthorized handler, where a reply may arrive after the user
// has already logged in again.
func (m *Manager) ExpireToken(ctx context.Context, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == "" || m.session.Token != token {
		return
	}
	m.logger.Info().Str("user", m.session.Username()).Msg("session expired")
	m.clear(ctx)
}

// clear resets to anonymous; callers hold m.mu
func (m *Manager) clear(ctx context.Context) {
	m.epoch++
	m.touched = true
	m.session.User = nil
	m.session.Token = ""
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("clearing stored session")
	}
	m.api.ClearBearerToken()
}

// tokenExpired reports whether token is a JWT whose exp claim has passed. Tokens that
// are not JWTs, or carry no exp, never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
