package pasetotoken

import (
	"fmt"
	"strings"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/rodrigoprogmaster-prog/clinica/config"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, encrypted
	ModePublic Mode = "public" // v4.public, signed
)

// Keys holds the material for one mode. Public mode may carry only the
// public half, in which case the manager can verify but not issue.
type Keys struct {
	Mode      Mode
	Symmetric *paseto.V4SymmetricKey
	Secret    *paseto.V4AsymmetricSecretKey
	Public    *paseto.V4AsymmetricPublicKey
}

// LoadKeys decodes the hex keys configured under authentication.paseto.
func LoadKeys(cfg config.PasetoConfig) (Keys, error) {
	switch Mode(cfg.Mode) {
	case ModeLocal:
		raw := strings.TrimSpace(cfg.LocalKeyHex)
		if raw == "" {
			return Keys{}, fmt.Errorf("%w: local_key_hex", ErrMissingKey)
		}
		k, err := paseto.V4SymmetricKeyFromHex(raw)
		if err != nil {
			return Keys{}, fmt.Errorf("local_key_hex: %w", err)
		}
		return Keys{Mode: ModeLocal, Symmetric: &k}, nil

	case ModePublic:
		keys := Keys{Mode: ModePublic}
		if raw := strings.TrimSpace(cfg.SecretKeyHex); raw != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(raw)
			if err != nil {
				return Keys{}, fmt.Errorf("secret_key_hex: %w", err)
			}
			pk := sk.Public()
			keys.Secret, keys.Public = &sk, &pk
		}
		if raw := strings.TrimSpace(cfg.PublicKeyHex); raw != "" {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(raw)
			if err != nil {
				return Keys{}, fmt.Errorf("public_key_hex: %w", err)
			}
			keys.Public = &pk
		}
		if keys.Public == nil {
			return Keys{}, fmt.Errorf("%w: secret_key_hex or public_key_hex", ErrMissingKey)
		}
		return keys, nil

	default:
		return Keys{}, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}

// LocalKeyHex returns a fresh v4.local key for local_key_hex.
func LocalKeyHex() string {
	return paseto.NewV4SymmetricKey().ExportHex()
}
