package pasetotoken

import "errors"

var (
	ErrMissingKey    = errors.New("paseto: key missing for mode")
	ErrUnknownMode   = errors.New("paseto: unknown mode (use local|public)")
	ErrModeMismatch  = errors.New("paseto: config mode does not match keys")
	ErrMissingIssuer = errors.New("paseto: issuer and audience are required")

	// ErrInvalidToken wraps every parse, signature, expiry and claim failure.
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongType    = errors.New("token type not accepted here")
)
