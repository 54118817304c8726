package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postit/pkg/config"
	"postit/pkg/store"
	"postit/pkg/telemetry"
)

func testConfig(t *testing.T, mutate func(*config.Config)) config.EffectiveConfigResult {
	t.Helper()
	t.Setenv("POSTIT_NO_BANNER", "1")
	cfg := config.Default()
	cfg.Server.Port = 0
	if mutate != nil {
		mutate(cfg)
	}
	return config.EffectiveConfigResult{Config: cfg, Addr: cfg.Addr()}
}

// startApp runs an App on an ephemeral port and returns its base URL.
func startApp(t *testing.T, mutate func(*config.Config)) (*App, string) {
	t.Helper()
	a, err := New(testConfig(t, mutate), "test")
	require.NoError(t, err)
	require.NoError(t, a.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		http.DefaultClient.CloseIdleConnections()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("app did not stop")
		}
	})

	base := "http://" + a.Addr()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/readyz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	return a, base
}

func send(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestScenarios(t *testing.T) {
	for _, engine := range []string{"nethttp", "fasthttp"} {
		t.Run(engine, func(t *testing.T) {
			_, base := startApp(t, func(c *config.Config) { c.Server.Engine = engine })

			code, body := send(t, http.MethodGet, base+"/", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "Hello, World!", body)

			code, body = send(t, http.MethodGet, base+"/api/message", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "[]", body)

			code, _ = send(t, http.MethodPost, base+"/api/message", `{"content":"   "}`)
			assert.Equal(t, http.StatusBadRequest, code)
			code, body = send(t, http.MethodGet, base+"/api/message", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "[]", body)

			code, _ = send(t, http.MethodPost, base+"/api/message", `not json`)
			assert.Equal(t, http.StatusBadRequest, code)

			code, body = send(t, http.MethodPost, base+"/api/message", `{"content":"first"}`)
			assert.Equal(t, http.StatusOK, code)
			assert.Empty(t, body)
			code, _ = send(t, http.MethodPost, base+"/api/message", `{"content":"second"}`)
			assert.Equal(t, http.StatusOK, code)

			code, body = send(t, http.MethodGet, base+"/api/message", "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, `["first","second"]`, body)
			_, again := send(t, http.MethodGet, base+"/api/message", "")
			assert.Equal(t, body, again)

			code, _ = send(t, http.MethodDelete, base+"/api/message", "")
			assert.Equal(t, http.StatusMethodNotAllowed, code)
		})
	}
}

func TestConcurrentPosts(t *testing.T) {
	_, base := startApp(t, func(c *config.Config) { c.Ingest.Queue.Capacity = 8 })

	var wg sync.WaitGroup
	codes := make(chan int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := http.Post(base+"/api/message", "application/json",
				strings.NewReader(fmt.Sprintf(`{"content":"m%d"}`, i)))
			if err != nil {
				codes <- 0
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}(i)
	}
	wg.Wait()
	close(codes)
	for c := range codes {
		require.Equal(t, http.StatusOK, c)
	}

	code, body := send(t, http.MethodGet, base+"/api/message", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 50, strings.Count(body, `"m`))
}

func TestCORSPreflight(t *testing.T) {
	_, base := startApp(t, nil)

	req, err := http.NewRequest(http.MethodOptions, base+"/api/message", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestProbesAndMetrics(t *testing.T) {
	_, base := startApp(t, nil)

	code, body := send(t, http.MethodGet, base+"/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = send(t, http.MethodGet, base+"/readyz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, body)

	send(t, http.MethodPost, base+"/api/message", `{"content":"x"}`)
	code, body = send(t, http.MethodGet, base+"/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "postit_commands_total")
}

func TestMetricsDisabled(t *testing.T) {
	_, base := startApp(t, func(c *config.Config) { c.Metrics.Enabled = false })
	code, _ := send(t, http.MethodGet, base+"/metrics", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStoreBackends(t *testing.T) {
	for _, backend := range []string{"memory", "pebble", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			_, base := startApp(t, func(c *config.Config) { c.Store.Backend = backend })
			send(t, http.MethodPost, base+"/api/message", `{"content":"a"}`)
			send(t, http.MethodPost, base+"/api/message", `{"content":"b"}`)
			_, body := send(t, http.MethodGet, base+"/api/message", "")
			assert.Equal(t, `["a","b"]`, body)
		})
	}
}

func TestNotReadyAfterShutdown(t *testing.T) {
	a, err := New(testConfig(t, nil), "test")
	require.NoError(t, err)
	require.NoError(t, a.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	require.Eventually(t, a.proc.Running, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	h := a.Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// the queue is closed, so the public API answers 500 rather than hanging
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/message", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(testConfig(t, func(c *config.Config) { c.Ingest.Queue.Capacity = 0 }), "test")
	require.Error(t, err)
}

func TestCloseWithoutRun(t *testing.T) {
	a, err := New(testConfig(t, nil), "test")
	require.NoError(t, err)
	require.NoError(t, a.Listen())
	require.NoError(t, a.Close())
	require.Error(t, a.Run(context.Background()))
}

// blockingStore parks every Create until release is closed.
type blockingStore struct {
	store.StateStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Create(payload string) error {
	close(b.entered)
	<-b.release
	return b.StateStore.Create(payload)
}

func TestShutdownIsBoundedByTimeout(t *testing.T) {
	st := &blockingStore{StateStore: store.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	defer close(st.release)

	eff := testConfig(t, func(c *config.Config) {
		c.Server.ShutdownTimeout = config.Duration(100 * time.Millisecond)
	})
	a, err := build(eff, "test", st)
	require.NoError(t, err)
	require.NoError(t, a.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	require.Eventually(t, a.proc.Running, 2*time.Second, 5*time.Millisecond)

	go func() { _ = a.client.Create(context.Background(), "stuck") }()
	<-st.entered

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, errDrainTimeout)
		assert.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(3 * time.Second):
		t.Fatal("Run waited on a stuck processor past the shutdown timeout")
	}
}

func TestNewAppliesSlowRequestThreshold(t *testing.T) {
	defer telemetry.SetSlowThreshold(config.DefaultSlowRequestThreshold)

	a, err := New(testConfig(t, func(c *config.Config) {
		c.Server.SlowRequestThreshold = config.Duration(time.Second)
	}), "test")
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, time.Second, telemetry.SlowThreshold())
}
