package reqctx

import "context"

// AuthClaims is the view of a verified token that request handlers need.
type AuthClaims interface {
	// GetSessionID returns the login session the token belongs to.
	GetSessionID() string

	// IsMaster reports whether the session was opened with the master password.
	IsMaster() bool
}

// WithClaims stores authentication claims in the context.
func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext retrieves authentication claims from the context.
// Returns nil if the request is not authenticated.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	claims, ok := ctx.Value(keyClaims).(AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// SessionIDFromContext returns the session ID, or "" and false if the
// request is not authenticated.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return "", false
	}
	return claims.GetSessionID(), true
}
