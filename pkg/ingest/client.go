package ingest

import (
	"context"
	"fmt"
	"time"
)

// DefaultReplyTimeout bounds how long a caller waits for the processor.
const DefaultReplyTimeout = 10 * time.Second

// Client is the request-side handle on the state actor. It is safe for
// concurrent use by any number of goroutines.
type Client struct {
	q       *Queue
	timeout time.Duration
}

// NewClient returns a Client sending to q. A non-positive timeout uses
// DefaultReplyTimeout.
func NewClient(q *Queue, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	return &Client{q: q, timeout: timeout}
}

// Create appends payload to the message list and waits for the processor to
// confirm it. Payload is passed through verbatim.
func (c *Client) Create(ctx context.Context, payload string) error {
	cmd := NewCreate(payload)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.q.Enqueue(ctx, cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	_, err := cmd.Reply.Wait(ctx)
	return err
}

// List returns a snapshot of the message list in insertion order.
func (c *Client) List(ctx context.Context) ([]string, error) {
	cmd := NewList()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.q.Enqueue(ctx, cmd); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	return cmd.Reply.Wait(ctx)
}
