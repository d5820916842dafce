package codes

import (
	"regexp"
	"testing"
	"time"
)

func TestNewIDAt(t *testing.T) {
	at := time.UnixMilli(1741600000000)
	id := NewIDAt(at)

	re := regexp.MustCompile(`^1741600000000-[a-z0-9]{9}$`)
	if !re.MatchString(id) {
		t.Errorf("NewIDAt() = %q, want match %s", id, re)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("NewID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(16)
	if err != nil {
		t.Fatalf("GenerateSecureToken() error = %v", err)
	}
	if len(tok) != 32 {
		t.Errorf("GenerateSecureToken() len = %d, want 32", len(tok))
	}
	if _, err := GenerateSecureToken(0); err != ErrInvalidLength {
		t.Errorf("GenerateSecureToken(0) error = %v, want ErrInvalidLength", err)
	}
}
