package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"postit/internal/report"
	"postit/pkg/config"
	"postit/pkg/httpx"
	"postit/pkg/ingest"
	"postit/pkg/logger"
	"postit/pkg/store"
	"postit/pkg/telemetry"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff     config.EffectiveConfigResult
	version string

	queue    *ingest.Queue
	proc     *ingest.Processor
	client   *ingest.Client
	reporter *report.Reporter

	srv httpx.Server
	ln  net.Listener

	mu      sync.Mutex
	started bool
	closed  bool
}

// New builds every component from eff without binding a port or starting
// goroutines. Call Listen (optional) and then Run.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	if eff.Config == nil {
		eff.Config = config.Default()
	}
	cfg := eff.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if eff.Addr == "" {
		eff.Addr = cfg.Addr()
	}

	st, err := store.Open(cfg.Store.Backend)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return build(eff, version, st)
}

// build wires an App around an already opened store. eff must be validated.
func build(eff config.EffectiveConfigResult, version string, st store.StateStore) (*App, error) {
	var err error
	cfg := eff.Config
	telemetry.SetSlowThreshold(cfg.Server.SlowRequestThreshold.Duration())

	a := &App{eff: eff, version: version}
	a.queue = ingest.NewQueue(cfg.Ingest.Queue.Capacity)
	a.proc = ingest.NewProcessor(a.queue, st)
	a.client = ingest.NewClient(a.queue, cfg.Ingest.ReplyTimeout.Duration())

	if cfg.Report.Enabled {
		if a.reporter, err = report.New(cfg.Report.Cron, a.client); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	a.srv, err = httpx.New(cfg.Server.Engine, a.Handler(), httpx.Options{
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		MaxBodySize:  cfg.Server.MaxBodySize.Int64(),
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return a, nil
}

// Listen binds the configured address. Run calls it when needed; calling it
// first lets callers learn an ephemeral port before serving.
func (a *App) Listen() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", a.eff.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.eff.Addr, err)
	}
	a.ln = ln
	return nil
}

// Addr is the bound address once listening, otherwise the configured one.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln != nil {
		return a.ln.Addr().String()
	}
	return a.eff.Addr
}

// Run starts the processor, the HTTP server and the reporter, and blocks
// until ctx is cancelled or one of them fails. Shutdown stops HTTP first,
// then closes the queue and waits for the processor to drain it. Both steps
// share server.shutdown_timeout; a processor still draining after it is left
// behind and Run returns errDrainTimeout.
func (a *App) Run(ctx context.Context) error {
	if err := a.Listen(); err != nil {
		return err
	}
	a.mu.Lock()
	if a.started || a.closed {
		a.mu.Unlock()
		return errors.New("app already started")
	}
	a.started = true
	a.mu.Unlock()

	a.printBanner()

	procErr := make(chan error, 1)
	go func() { procErr <- a.proc.Run() }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http_listening", "addr", a.ln.Addr().String(), "engine", a.srv.Engine())
		if err := a.srv.Serve(a.ln); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.reporter != nil {
		g.Go(func() error { return a.reporter.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown(procErr)
	})

	err := g.Wait()
	logger.Info("app_stopped")
	return err
}

var errDrainTimeout = errors.New("processor drain timed out")

func (a *App) shutdown(procErr <-chan error) error {
	logger.Info("shutdown_started")
	timeout := a.eff.Config.Server.ShutdownTimeout.Duration()
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := a.srv.Shutdown(sctx); err != nil {
		logger.Warn("http_shutdown_failed", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	a.queue.Close()
	select {
	case err := <-procErr:
		if err != nil {
			errs = append(errs, fmt.Errorf("processor: %w", err))
		}
	case <-sctx.Done():
		logger.Warn("processor_drain_timeout", "pending", a.queue.Len())
		errs = append(errs, errDrainTimeout)
	}
	return errors.Join(errs...)
}

// Close releases resources of an App whose Run was never called.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.closed {
		return nil
	}
	a.closed = true
	if a.ln != nil {
		_ = a.ln.Close()
	}
	a.queue.CloseAndDrain()
	// Run on an already-closed queue returns at once and closes the store.
	return a.proc.Run()
}

func (a *App) printBanner() {
	if os.Getenv("POSTIT_NO_BANNER") != "" {
		return
	}
	printBanner(a.eff, a.version)
}
