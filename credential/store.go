package credential

import (
	"context"
	"errors"
)

// ErrStoreUnavailable wraps backend failures (disk, Redis) reported by a Store.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Reader gives read-only access to the persisted record.
type Reader interface {
	Load(ctx context.Context) (Record, error)
}

// Store is the read-write contract held by the session engine.
//
// Save replaces the whole record; empty fields remove their key. Clear removes
// every key. Neither may leave a partially written record behind.
type Store interface {
	Reader
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// ReadOnly narrows s to a Reader so callers cannot type-assert their way back
// to the mutating methods.
func ReadOnly(s Reader) Reader {
	if s == nil {
		return nil
	}
	return readOnly{s: s}
}

type readOnly struct {
	s Reader
}

func (r readOnly) Load(ctx context.Context) (Record, error) {
	return r.s.Load(ctx)
}
