package lss

import (
	"context"
	"fmt"
	"time"
)

// DefaultSessionPrefix is the namespace under which every session is
// stored when config.Options.RedisPrefix is left empty, per spec §4.E:
// "lss:session:{thread_id}".
const DefaultSessionPrefix = "lss:session:"

// SessionKey returns the storage key for threadID under prefix. Callers
// pass config.Options.RedisPrefix (or DefaultSessionPrefix) through
// Controller so the configured prefix is actually observed by the backend,
// not just by config validation.
func SessionKey(prefix, threadID string) string {
	return prefix + threadID
}

// Store is the four-operation session storage interface, component E of
// SPEC_FULL.md. The controller depends only on this interface; concrete
// backends live in pkg/lss/storage.
type Store interface {
	// Get returns the stored bytes for key, or ok=false if absent or
	// expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key. ttl of zero disables expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key and reports how many entries were removed (0 or 1
	// for a single-key delete, but backends may treat this as a count to
	// stay consistent with prefix-oriented deletes).
	Delete(ctx context.Context, key string) (count int, err error)

	// Scan returns every live key with the given prefix. Backends are not
	// required to be consistent with concurrent writes (spec §4.E).
	Scan(ctx context.Context, prefix string) ([]string, error)
}

// ErrStorage marks a backend failure wrapped by WrapStorageErr, so such an
// error chain can be tested with errors.Is(err, ErrStorage). The Memory and
// Redis backends and the Controller do not call WrapStorageErr, so their
// errors do not match ErrStorage.
var ErrStorage = fmt.Errorf("storage error")

// WrapStorageErr wraps a backend-specific error so callers can test it
// against ErrStorage.
func WrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}
