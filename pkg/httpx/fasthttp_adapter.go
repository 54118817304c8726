package httpx

import (
	"context"
	"net"
	"net/http"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// bodyHeadroom is added to the application cap for fasthttp's own limit.
const bodyHeadroom = 64 << 10

type fastHTTPServer struct {
	srv *fasthttp.Server
}

func newFastHTTP(h http.Handler, opts Options) *fastHTTPServer {
	srv := &fasthttp.Server{
		Handler:      fasthttpadaptor.NewFastHTTPHandler(detachDone(h)),
		Name:         "postit",
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	if opts.MaxBodySize > 0 {
		srv.MaxRequestBodySize = int(opts.MaxBodySize) + bodyHeadroom
	}
	return &fastHTTPServer{srv: srv}
}

// detachDone gives handlers a context without the *fasthttp.RequestCtx
// Done channel, which Server.Shutdown writes unsynchronized. Request values
// stay reachable.
func detachDone(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(context.WithoutCancel(r.Context())))
	})
}

func (s *fastHTTPServer) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

// Shutdown waits for fasthttp to drain or for ctx, whichever comes first.
func (s *fastHTTPServer) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- s.srv.Shutdown() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fastHTTPServer) Engine() string { return EngineFastHTTP }
