// Package scratch defines temporary key-value storage used to keep
// intermediate batches of records out of memory.
package scratch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store keeps opaque values by key. Implementations must be safe for
// concurrent use by independent runs that use different key prefixes.
type Store interface {
	// Put saves data under a key, replacing previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns data saved under a key. Missing keys return an error
	// that matches ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns sorted keys that start with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources. Data of an ephemeral store is removed.
	Close() error
}

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("scratch key not found")

// BatchKey builds a key for a batch of a run. Keys of one run sort in
// batch order.
func BatchKey(runID string, seq int) string {
	return fmt.Sprintf("%s/batch-%06d", runID, seq)
}

// RunPrefix returns the prefix shared by all keys of a run.
func RunPrefix(runID string) string {
	return runID + "/"
}

// IsRunKey is true if key belongs to the run.
func IsRunKey(key, runID string) bool {
	return strings.HasPrefix(key, RunPrefix(runID))
}
