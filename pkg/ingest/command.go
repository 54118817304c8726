package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"postit/pkg/store"
)

var (
	// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
	ErrQueueFull = errors.New("ingest queue full")
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("ingest queue closed")
	// ErrDispatch wraps any failure to hand a command to the processor.
	ErrDispatch = errors.New("command dispatch failed")
	// ErrStore wraps an error returned by the state store itself.
	ErrStore = errors.New("state store error")
	// ErrReplyLost is returned when a command was dropped without an answer.
	ErrReplyLost = errors.New("reply lost")
	// ErrActorPanic is the answer to a command whose store call panicked.
	ErrActorPanic = errors.New("processor panicked while applying command")
)

// Kind names a command variant.
type Kind string

const (
	KindCreate Kind = "create"
	KindList   Kind = "list"
)

// Command is a request to mutate or observe the message list. The set of
// variants is closed: only CreateCommand and ListCommand implement it.
type Command interface {
	Kind() Kind
	// apply runs the command against s and answers the reply slot. It
	// returns the store error, if any, for accounting.
	apply(s store.StateStore) error
	// fail answers the reply slot with err unless it was already answered.
	fail(err error)
	// drop resolves the reply slot as lost unless it was already answered.
	drop()
}

// Result is the value delivered through a Reply.
type Result[T any] struct {
	Value T
	Err   error
}

// Reply is a one-shot, single-writer single-reader handoff. Only the first
// answer is delivered; later ones are ignored. The slot is buffered so the
// writer never blocks, even if the waiter has gone away.
type Reply[T any] struct {
	ch   chan Result[T]
	once sync.Once
}

func newReply[T any]() *Reply[T] {
	return &Reply[T]{ch: make(chan Result[T], 1)}
}

// send answers the slot and reports whether this call was the one delivered.
func (r *Reply[T]) send(v T, err error) bool {
	sent := false
	r.once.Do(func() {
		r.ch <- Result[T]{Value: v, Err: err}
		sent = true
	})
	return sent
}

func (r *Reply[T]) drop() {
	r.once.Do(func() { close(r.ch) })
}

// Wait blocks until the slot is answered, dropped, or ctx is done.
func (r *Reply[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	select {
	case res, ok := <-r.ch:
		if !ok {
			return zero, ErrReplyLost
		}
		return res.Value, res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// CreateCommand appends Payload to the list.
type CreateCommand struct {
	Payload string
	Reply   *Reply[struct{}]
}

// NewCreate builds a CreateCommand with a fresh reply slot.
func NewCreate(payload string) *CreateCommand {
	return &CreateCommand{Payload: payload, Reply: newReply[struct{}]()}
}

func (c *CreateCommand) Kind() Kind { return KindCreate }

func (c *CreateCommand) apply(s store.StateStore) error {
	err := s.Create(c.Payload)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrStore, err)
	}
	c.Reply.send(struct{}{}, err)
	return err
}

func (c *CreateCommand) fail(err error) { c.Reply.send(struct{}{}, err) }

func (c *CreateCommand) drop() { c.Reply.drop() }

// ListCommand reads a snapshot of the list.
type ListCommand struct {
	Reply *Reply[[]string]
}

// NewList builds a ListCommand with a fresh reply slot.
func NewList() *ListCommand {
	return &ListCommand{Reply: newReply[[]string]()}
}

func (c *ListCommand) Kind() Kind { return KindList }

func (c *ListCommand) apply(s store.StateStore) error {
	msgs, err := s.List()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrStore, err)
		msgs = nil
	}
	c.Reply.send(msgs, err)
	return err
}

func (c *ListCommand) fail(err error) { c.Reply.send(nil, err) }

func (c *ListCommand) drop() { c.Reply.drop() }
