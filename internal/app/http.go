package app

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"postit/pkg/api"
	"postit/pkg/banner"
	"postit/pkg/config"
	"postit/pkg/models"
	"postit/pkg/security"
	"postit/pkg/telemetry"
	"postit/pkg/utils"
)

func printBanner(eff config.EffectiveConfigResult, version string) {
	banner.Print(os.Stdout, eff, version)
}

// Handler returns the full middleware-wrapped handler: public API, probes,
// docs and metrics.
func (a *App) Handler() http.Handler {
	cfg := a.eff.Config
	r := api.NewRouter(a.client, api.Options{
		MaxBodySize: cfg.Server.MaxBodySize.Int64(),
		Docs:        true,
	})
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.readyzHandler).Methods(http.MethodGet)
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	var h http.Handler = r
	h = security.Middleware(security.Config{
		AllowedOrigins: append([]string{}, cfg.Security.CORS.AllowedOrigins...),
		RPS:            cfg.Security.RateLimit.RPS,
		Burst:          cfg.Security.RateLimit.Burst,
	})(h)
	return telemetry.Middleware(h)
}

// readyzHandler reports 200 while the processor is consuming commands.
func (a *App) readyzHandler(w http.ResponseWriter, _ *http.Request) {
	if !a.proc.Running() || a.queue.Closed() {
		_ = utils.JSONWrite(w, http.StatusServiceUnavailable, models.HealthStatus{Status: "not ready"})
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	_ = utils.JSONWrite(w, http.StatusOK, models.HealthStatus{Status: "ok", Version: ver})
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, models.HealthStatus{Status: "ok"})
}
