package banner

import (
	"fmt"
	"io"
	"strings"

	"postit/pkg/config"
)

const banner = `
                 _   _ _
 _ __   ___  ___| |_(_) |_
| '_ \ / _ \/ __| __| | __|
| |_) | (_) \__ \ |_| | |_
| .__/ \___/|___/\__|_|\__|
|_|
`

// Print writes the startup banner for eff to w.
func Print(w io.Writer, eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	cfg := eff.Config
	if addr == "" && cfg != nil {
		addr = cfg.Addr()
	}
	src := strings.Join(eff.Sources, ",")
	if src == "" {
		src = "defaults"
	}

	fmt.Fprint(w, banner)
	fmt.Fprintln(w, "== Config =====================================================")
	fmt.Fprintf(w, "Listen:   %s\n", addr)
	if cfg != nil {
		fmt.Fprintf(w, "Engine:   %s\n", cfg.Server.Engine)
		fmt.Fprintf(w, "Store:    %s\n", cfg.Store.Backend)
		fmt.Fprintf(w, "Queue:    %d\n", cfg.Ingest.Queue.Capacity)
	}
	if version != "" {
		fmt.Fprintf(w, "Version:  %s\n", version)
	}
	fmt.Fprintf(w, "Config:   %s\n", src)

	fmt.Fprintln(w, "\n== Endpoints ==================================================")
	fmt.Fprintln(w, "GET  /             - greeting")
	fmt.Fprintln(w, "POST /api/message  - add a message (JSON: {\"content\": \"...\"})")
	fmt.Fprintln(w, "GET  /api/message  - list messages (JSON array)")

	fmt.Fprintln(w, "\n== Examples ===================================================")
	fmt.Fprintf(w, "curl -X POST 'http://%s/api/message' -d '{\"content\":\"hello\"}'\n", addr)
	fmt.Fprintf(w, "curl 'http://%s/api/message'\n", addr)

	if cfg != nil {
		fmt.Fprintln(w, "\n== Notes ======================================================")
		if cfg.Security.RateLimit.RPS > 0 {
			fmt.Fprintf(w, "- Rate limit: %.1f rps (burst %d)\n", cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst)
		} else {
			fmt.Fprintln(w, "- Rate limit: disabled")
		}
		if cfg.Report.Enabled {
			fmt.Fprintf(w, "- Report: enabled (cron=%s)\n", cfg.Report.Cron)
		} else {
			fmt.Fprintln(w, "- Report: disabled")
		}
		fmt.Fprintln(w, "- Messages live in memory and are lost on restart")
	}

	fmt.Fprintln(w, "\n== Logs: =================================================")
}
