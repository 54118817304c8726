package store

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"postit/pkg/logger"
)

// msgPrefix is the key namespace for messages: msg:<20-digit seq>.
var (
	msgPrefix = []byte("msg:")
	msgUpper  = []byte("msg;") // ';' sorts right after ':'
)

// Pebble stores messages in a pebble LSM on an in-memory filesystem. The
// data is gone when the store is closed.
type Pebble struct {
	db  *pebble.DB
	seq uint64
}

// OpenPebble opens an empty pebble database on vfs.NewMem.
func OpenPebble() (*Pebble, error) {
	db, err := pebble.Open("postit", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		logger.Error("pebble_open_failed", "error", err)
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	logger.Debug("pebble_opened")
	return &Pebble{db: db}, nil
}

// MsgKey builds the sortable key for sequence number seq.
func MsgKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("msg:%020d", seq))
}

func (p *Pebble) Create(payload string) error {
	if p.db == nil {
		return ErrClosed
	}
	next := p.seq + 1
	if err := p.db.Set(MsgKey(next), []byte(payload), pebble.NoSync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	p.seq = next
	return nil
}

func (p *Pebble) List() ([]string, error) {
	if p.db == nil {
		return nil, ErrClosed
	}
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: msgPrefix, UpperBound: msgUpper})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	out := make([]string, 0, p.seq)
	for iter.First(); iter.Valid(); iter.Next() {
		out = append(out, string(iter.Value()))
	}
	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return nil, fmt.Errorf("pebble iterate: %w", err)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("pebble iter close: %w", err)
	}
	return out, nil
}

func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("pebble close: %w", err)
	}
	logger.Debug("pebble_closed")
	return nil
}
