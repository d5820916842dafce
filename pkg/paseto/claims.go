package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

// CtxKeyClaims is the fiber locals key holding the verified *Claims.
const CtxKeyClaims = "auth.claims"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is what a verified token says about its session. There is a single
// practitioner, so the subject is fixed and not carried here.
type Claims struct {
	Type      TokenType
	SessionID uuid.UUID

	// Master is set when the session was opened with the master password.
	Master bool

	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *Claims) GetSessionID() string { return c.SessionID.String() }
func (c *Claims) IsMaster() bool       { return c.Master }
