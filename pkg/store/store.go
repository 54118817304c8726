// Package store holds the message list behind the StateStore contract.
//
// Implementations are not safe for concurrent use. A StateStore is owned by
// exactly one ingest.Processor goroutine and nothing else may touch it.
package store

import (
	"errors"
	"fmt"
)

// StateStore is the ordered, append-only list of message bodies.
type StateStore interface {
	// Create appends payload verbatim. No validation happens at this layer.
	Create(payload string) error
	// List returns a snapshot copy in insertion order. The result never
	// aliases store memory and is never nil.
	List() ([]string, error)
	// Close releases backend resources. The store must not be used after.
	Close() error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
)

// Open creates an empty StateStore for the named backend.
func Open(backend string) (StateStore, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendPebble:
		return OpenPebble()
	case BackendSQLite:
		return OpenSQLite()
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
