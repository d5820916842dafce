package codes

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

var ErrInvalidLength = errors.New("invalid code length")

const (
	// idSuffixLength is the random part of entity ids.
	idSuffixLength = 9

	charsetLowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// NewID returns an entity id of the form "<unix-millis>-<random>", e.g.
// "1741600000000-k3j9x0a2b". Ids sort roughly by creation time.
func NewID() string {
	return NewIDAt(time.Now())
}

func NewIDAt(t time.Time) string {
	suffix, err := generateFromCharset(idSuffixLength, charsetLowerAlphanumeric)
	if err != nil {
		// crypto/rand does not fail on supported platforms
		suffix = strconv.FormatInt(time.Now().UnixNano()%1e9, 36)
	}
	return strconv.FormatInt(t.UnixMilli(), 10) + "-" + suffix
}

// GenerateSecureToken creates a cryptographically secure hex token.
// byteLength specifies the number of random bytes (output will be 2x this length in hex).
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func generateFromCharset(length int, charset string) (string, error) {
	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random character: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
