package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

type netHTTPServer struct {
	srv *http.Server
}

func newNetHTTP(h http.Handler, opts Options) *netHTTPServer {
	return &netHTTPServer{srv: &http.Server{
		Handler:           h,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func (s *netHTTPServer) Serve(ln net.Listener) error {
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *netHTTPServer) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

func (s *netHTTPServer) Engine() string { return EngineNetHTTP }
