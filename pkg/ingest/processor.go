package ingest

import (
	"errors"
	"runtime/debug"
	"sync/atomic"
	"time"

	"postit/pkg/logger"
	"postit/pkg/store"
	"postit/pkg/telemetry"
)

// ErrAlreadyRunning is returned when Run is called twice on one Processor.
var ErrAlreadyRunning = errors.New("processor already running")

// Processor is the state actor. It is the only goroutine that touches its
// StateStore; every read and write arrives as a Command on the Queue and is
// applied one at a time in arrival order.
type Processor struct {
	q       *Queue
	s       store.StateStore
	started atomic.Bool
	running atomic.Bool
	stored  int
	done    chan struct{}
}

// NewProcessor binds q and s. The processor takes ownership of s and closes
// it when Run returns.
func NewProcessor(q *Queue, s store.StateStore) *Processor {
	return &Processor{q: q, s: s, done: make(chan struct{})}
}

// Run consumes commands until the queue is closed and drained. A failing or
// panicking command is answered with an error and the loop continues.
func (p *Processor) Run() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	p.running.Store(true)
	defer close(p.done)
	defer p.running.Store(false)

	if msgs, err := p.s.List(); err == nil {
		p.stored = len(msgs)
		telemetry.SetMessagesStored(p.stored)
	}
	logger.Info("processor_started", "queue_capacity", p.q.Cap())

	var handled uint64
	for cmd := range p.q.Out() {
		p.handle(cmd)
		handled++
		telemetry.SetQueueDepth(p.q.Len())
	}

	logger.Info("processor_stopped", "handled", handled, "rejected", p.q.Dropped())
	if err := p.s.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
		return err
	}
	return nil
}

func (p *Processor) handle(cmd Command) {
	start := time.Now()
	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			logger.Error("command_panic", "kind", cmd.Kind(), "panic", r, "stack", string(debug.Stack()))
			cmd.fail(ErrActorPanic)
		}
		telemetry.ObserveCommand(string(cmd.Kind()), result, time.Since(start))
	}()

	if err := cmd.apply(p.s); err != nil {
		result = "error"
		logger.Warn("command_failed", "kind", cmd.Kind(), "error", err)
		return
	}
	if cmd.Kind() == KindCreate {
		p.stored++
		telemetry.SetMessagesStored(p.stored)
	}
}

// Done is closed once Run has returned.
func (p *Processor) Done() <-chan struct{} { return p.done }

// Running reports whether Run is currently consuming the queue.
func (p *Processor) Running() bool { return p.running.Load() }
