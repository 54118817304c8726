// Package httpx runs an http.Handler on either net/http or fasthttp behind
// one lifecycle interface.
package httpx

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Engine names accepted by New.
const (
	EngineNetHTTP  = "nethttp"
	EngineFastHTTP = "fasthttp"
)

// Options are the transport settings shared by both engines.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxBodySize is the application body cap. Engines that enforce their own
	// limit are given headroom above it so the handler sees oversize bodies.
	MaxBodySize int64
}

// Server is a running HTTP transport.
type Server interface {
	// Serve accepts connections on ln until Shutdown. A clean shutdown
	// returns nil.
	Serve(ln net.Listener) error
	// Shutdown stops accepting, waits for in-flight requests or ctx.
	Shutdown(ctx context.Context) error
	// Engine reports which transport is in use.
	Engine() string
}

// New builds a Server for engine around h.
func New(engine string, h http.Handler, opts Options) (Server, error) {
	switch engine {
	case "", EngineNetHTTP:
		return newNetHTTP(h, opts), nil
	case EngineFastHTTP:
		return newFastHTTP(h, opts), nil
	default:
		return nil, fmt.Errorf("unknown http engine %q", engine)
	}
}
