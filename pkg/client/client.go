// Package client is a small Go SDK for the postit HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"postit/pkg/models"
)

var (
	// ErrBadRequest is returned for 400 responses, e.g. blank content.
	ErrBadRequest = errors.New("bad request")
	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("server error")
)

// StatusError carries an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Unwrap maps the status class to ErrBadRequest or ErrServer.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusBadRequest:
		return ErrBadRequest
	case e.Code >= 500:
		return ErrServer
	}
	return nil
}

// Client talks to one postit server.
type Client struct {
	base string
	http *http.Client
}

// New returns a Client for baseURL (e.g. "http://127.0.0.1:8080"). A nil hc
// uses a client with a 10s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// MessagesURL is the full URL of the message collection.
func (c *Client) MessagesURL() string { return c.base + "/api/message" }

// ListMessages returns all messages in insertion order.
func (c *Client) ListMessages(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.MessagesURL(), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// PostMessage adds content to the board.
func (c *Client) PostMessage(ctx context.Context, content string) error {
	b, err := json.Marshal(models.NewMessage{Content: content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MessagesURL(), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
