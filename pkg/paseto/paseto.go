package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/constants"
)

type Config struct {
	Mode     Mode
	Issuer   string
	Audience string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Implicit is bound into every token as implicit assertion.
	Implicit []byte

	// Now defaults to time.Now.
	Now func() time.Time
}

// Pair is the access/refresh couple handed out at login.
type Pair struct {
	Access  string
	Refresh string
}

// Manager issues and verifies the practitioner's session tokens.
type Manager struct {
	cfg  Config
	keys Keys
}

func New(cfg Config, keys Keys) (*Manager, error) {
	if cfg.Mode != keys.Mode {
		return nil, ErrModeMismatch
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, ErrMissingIssuer
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{cfg: cfg, keys: keys}, nil
}

// NewFromConfig loads the configured keys and builds a manager.
func NewFromConfig(p config.PasetoConfig) (*Manager, error) {
	keys, err := LoadKeys(p)
	if err != nil {
		return nil, err
	}
	return New(Config{
		Mode:       Mode(p.Mode),
		Issuer:     p.Issuer,
		Audience:   p.Audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	}, keys)
}

func (m *Manager) AccessTTL() time.Duration  { return m.cfg.AccessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// IssuePair mints both tokens for a new session.
func (m *Manager) IssuePair(sessionID uuid.UUID, master bool) (Pair, error) {
	access, err := m.IssueAccess(sessionID, master)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.issue(TokenTypeRefresh, sessionID, master, m.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (m *Manager) IssueAccess(sessionID uuid.UUID, master bool) (string, error) {
	return m.issue(TokenTypeAccess, sessionID, master, m.cfg.AccessTTL)
}

// Verify parses token and requires it to be of type want. Every failure
// wraps ErrInvalidToken.
func (m *Manager) Verify(token string, want TokenType) (*Claims, error) {
	tok, err := m.open(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, err := readClaims(tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidToken, ErrWrongType, claims.Type)
	}
	return claims, nil
}

func (m *Manager) issue(tt TokenType, sessionID uuid.UUID, master bool, ttl time.Duration) (string, error) {
	now := m.cfg.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetSubject(constants.PractitionerUser)
	tok.SetJti(newJTI())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))

	tok.SetString("typ", string(tt))
	tok.SetString("sid", sessionID.String())
	if err := tok.Set("mst", master); err != nil {
		return "", err
	}

	switch {
	case m.keys.Mode == ModeLocal && m.keys.Symmetric != nil:
		return tok.V4Encrypt(*m.keys.Symmetric, m.cfg.Implicit), nil
	case m.keys.Mode == ModePublic && m.keys.Secret != nil:
		return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), nil
	default:
		return "", fmt.Errorf("%w: cannot issue in %s mode", ErrMissingKey, m.keys.Mode)
	}
}

func (m *Manager) open(token string) (*paseto.Token, error) {
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.cfg.Issuer))
	p.AddRule(paseto.ForAudience(m.cfg.Audience))
	p.AddRule(paseto.ValidAt(m.cfg.Now()))

	switch {
	case m.keys.Mode == ModeLocal && m.keys.Symmetric != nil:
		return p.ParseV4Local(*m.keys.Symmetric, token, m.cfg.Implicit)
	case m.keys.Mode == ModePublic && m.keys.Public != nil:
		return p.ParseV4Public(*m.keys.Public, token, m.cfg.Implicit)
	default:
		return nil, fmt.Errorf("%w: cannot verify in %s mode", ErrMissingKey, m.keys.Mode)
	}
}

func readClaims(tok *paseto.Token) (*Claims, error) {
	var (
		c   Claims
		err error
	)
	if c.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if c.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}

	typ, err := tok.GetString("typ")
	if err != nil {
		return nil, err
	}
	c.Type = TokenType(typ)

	sid, err := tok.GetString("sid")
	if err != nil {
		return nil, err
	}
	if c.SessionID, err = uuid.Parse(sid); err != nil {
		return nil, err
	}

	// Tokens without the flag are ordinary sessions.
	_ = tok.Get("mst", &c.Master)
	return &c, nil
}

func newJTI() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
