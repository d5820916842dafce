package state

import (
	"context"
	"fmt"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/crypto"
)

// SealerFromKey returns an AES-256-GCM sealer for hexKey, or nil when hexKey
// is empty.
func SealerFromKey(hexKey string) (Sealer, error) {
	if hexKey == "" {
		return nil, nil
	}
	c, err := crypto.NewCipher(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	return c, nil
}

// Sealer encrypts and decrypts free text. *crypto.Cipher implements it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

type sealedTable[T domain.Entity] struct {
	Table[T]
	sealer  Sealer
	content func(*T) *string
}

// SealedTable wraps next so the text field selected by content is sealed on
// Save and opened on List. The in-memory store only ever sees plaintext.
func SealedTable[T domain.Entity](next Table[T], sealer Sealer, content func(*T) *string) Table[T] {
	return &sealedTable[T]{Table: next, sealer: sealer, content: content}
}

func (t *sealedTable[T]) List(ctx context.Context) ([]T, error) {
	items, err := t.Table.List(ctx)
	if err != nil {
		return items, err
	}
	for i := range items {
		field := t.content(&items[i])
		plain, err := t.sealer.Open(*field)
		if err != nil {
			return []T{}, fmt.Errorf("open %s %s: %w", t.Name(), items[i].Key(), err)
		}
		*field = plain
	}
	return items, nil
}

func (t *sealedTable[T]) Save(ctx context.Context, item T) (bool, error) {
	field := t.content(&item)
	sealed, err := t.sealer.Seal(*field)
	if err != nil {
		return false, fmt.Errorf("seal %s %s: %w", t.Name(), item.Key(), err)
	}
	*field = sealed
	return t.Table.Save(ctx, item)
}

func noteContent(n *domain.SessionNote) *string { return &n.Content }

func observationContent(o *domain.InternalObservation) *string { return &o.Content }
