package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	pasetotoken "github.com/rodrigoprogmaster-prog/clinica/pkg/paseto"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/redis"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/password"
)

const minPasswordLen = 6

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Session is stored in Redis under "session:<id>".
type Session struct {
	ID        string    `json:"id"`
	Master    bool      `json:"master"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds until access token expires
	SessionID    string `json:"sessionId"`
	Master       bool   `json:"master"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Login accepts the clinic password or the master password.
	Login(ctx context.Context, candidate string) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID string) error
	// Session returns the live session, or ErrSessionNotFound.
	Session(ctx context.Context, sessionID string) (Session, error)
	ChangePassword(ctx context.Context, current, next string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	store    *state.Store
	audit    audit.Service
	sessions redis.KV
	paseto   *pasetotoken.Manager
	master   string
	clock    domain.Clock
	log      *slog.Logger
}

// New builds the service. master is the fixed override password, either an
// argon2id hash or plain text.
func New(
	store *state.Store,
	auditSvc audit.Service,
	sessions redis.KV,
	paseto *pasetotoken.Manager,
	master string,
	clock domain.Clock,
	log *slog.Logger,
) Service {
	return &authService{
		store:    store,
		audit:    auditSvc,
		sessions: sessions,
		paseto:   paseto,
		master:   master,
		clock:    clock,
		log:      log.With("service", "auth"),
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, candidate string) (*AuthTokens, error) {
	stored := s.store.Settings().Password

	var master bool
	switch {
	case password.Check(stored, candidate):
		if password.NeedsRehash(stored) {
			s.rehash(ctx, candidate)
		}
	case password.Check(s.master, candidate):
		master = true
	default:
		s.log.WarnContext(ctx, "login failed")
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.createSession(ctx, master)
	if err != nil {
		return nil, err
	}

	details := "Login"
	if master {
		details = "Login com senha mestra"
	}
	_ = s.audit.Record(ctx, audit.ActionLogin, domain.EntitySession, tokens.SessionID, details)
	return tokens, nil
}

// rehash upgrades a legacy plaintext or weaker hash. Failure keeps the old
// value and never blocks the login.
func (s *authService) rehash(ctx context.Context, plain string) {
	h, err := password.Hash(plain)
	if err != nil {
		s.log.WarnContext(ctx, "rehash password failed", slog.Any("error", err))
		return
	}
	if res := s.store.SetSetting(ctx, domain.SettingPassword, h); res.Err != nil {
		s.log.WarnContext(ctx, "store rehashed password failed", slog.Any("error", res.Err))
	}
}

// ---------------------------------------------------------------------------
// RefreshTokens
// ---------------------------------------------------------------------------

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.Verify(refreshToken, pasetotoken.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	sess, err := s.Session(ctx, claims.SessionID.String())
	if err != nil {
		return nil, err
	}

	// Extend the session; the refresh token stays the same until logout.
	if err := s.sessions.Put(ctx, sess.ID, sess, s.paseto.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("extend session: %w", err)
	}

	access, err := s.paseto.IssueAccess(claims.SessionID, sess.Master)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
		SessionID:    sess.ID,
		Master:       sess.Master,
	}, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *authService) Session(ctx context.Context, sessionID string) (Session, error) {
	var sess Session
	ok, err := s.sessions.Get(ctx, sessionID, &sess)
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *authService) createSession(ctx context.Context, master bool) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())
	sess := Session{ID: sessionID.String(), Master: master, CreatedAt: s.clock.Now()}

	if err := s.sessions.Put(ctx, sess.ID, sess, s.paseto.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	pair, err := s.paseto.IssuePair(sessionID, master)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	return &AuthTokens{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
		SessionID:    sess.ID,
		Master:       master,
	}, nil
}

// ---------------------------------------------------------------------------
// ChangePassword
// ---------------------------------------------------------------------------

func (s *authService) ChangePassword(ctx context.Context, current, next string) error {
	stored := s.store.Settings().Password
	// Before a clinic password exists only the master password can set one.
	if !password.Check(stored, current) && !password.Check(s.master, current) {
		return ErrWrongPassword
	}
	if len(next) < minPasswordLen {
		return ErrPasswordTooShort
	}

	h, err := password.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if res := s.store.SetSetting(ctx, domain.SettingPassword, h); res.Err != nil {
		return fmt.Errorf("store password: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionUpdate, domain.EntitySettings, domain.SettingPassword, "Senha alterada")
	return nil
}
