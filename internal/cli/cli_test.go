package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postit/pkg/client"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	var msgs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPost:
			b, _ := io.ReadAll(r.Body)
			msgs = append(msgs, string(b))
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `["one","two"]`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPostCommand(t *testing.T) {
	srv := fakeServer(t)
	out, err := run(t, "--host", srv.URL, "post", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestPostRequiresText(t *testing.T) {
	_, err := run(t, "post")
	require.Error(t, err)
}

func TestListCommand(t *testing.T) {
	srv := fakeServer(t)
	out, err := run(t, "--host", srv.URL, "list")
	require.NoError(t, err)
	assert.Equal(t, "1\tone\n2\ttwo\n", out)

	out, err = run(t, "--host", srv.URL, "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `["one","two"]`, out)
}

func TestBenchTargets(t *testing.T) {
	c := client.New("http://example.test", nil)

	ts, err := benchTargets(c, benchConfig{Pattern: "mixed", Payload: `say "hi"`})
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, http.MethodPost, ts[0].Method)
	assert.JSONEq(t, `{"content":"say \"hi\""}`, string(ts[0].Body))
	assert.Equal(t, "http://example.test/api/message", ts[1].URL)

	_, err = benchTargets(c, benchConfig{Pattern: "chaos"})
	require.Error(t, err)
}

func TestBenchShortRun(t *testing.T) {
	srv := fakeServer(t)
	out, err := run(t, "--host", srv.URL, "bench", "--rps", "20", "--duration", (200 * time.Millisecond).String(), "--pattern", "post")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Pattern:     post"), out)
	assert.Contains(t, out, "Status 200")
}
