package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/spf13/cobra"
	vegeta "github.com/tsenart/vegeta/lib"

	"postit/pkg/client"
	"postit/pkg/models"
)

type benchConfig struct {
	RPS      int
	Duration time.Duration
	Pattern  string
	Payload  string
}

func newBenchCmd(opts *options) *cobra.Command {
	cfg := benchConfig{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a load benchmark against the message endpoints",
		Long: `Run a constant-rate attack and print a latency summary.
Patterns: post (only writes), list (only reads), mixed (alternating).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets, err := benchTargets(opts.client(), cfg)
			if err != nil {
				return err
			}
			m := runAttack(targets, cfg)
			printMetrics(cmd.OutOrStdout(), cfg, m)
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.RPS, "rps", 100, "requests per second")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 10*time.Second, "benchmark duration")
	cmd.Flags().StringVar(&cfg.Pattern, "pattern", "mixed", "benchmark pattern (post, list, mixed)")
	cmd.Flags().StringVar(&cfg.Payload, "content", "bench message", "message content for post requests")
	return cmd
}

func benchTargets(c *client.Client, cfg benchConfig) ([]vegeta.Target, error) {
	body, err := json.Marshal(models.NewMessage{Content: cfg.Payload})
	if err != nil {
		return nil, err
	}
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	post := vegeta.Target{Method: http.MethodPost, URL: c.MessagesURL(), Body: body, Header: hdr}
	list := vegeta.Target{Method: http.MethodGet, URL: c.MessagesURL()}

	switch cfg.Pattern {
	case "post":
		return []vegeta.Target{post}, nil
	case "list":
		return []vegeta.Target{list}, nil
	case "mixed":
		return []vegeta.Target{post, list}, nil
	default:
		return nil, fmt.Errorf("unknown benchmark pattern: %s", cfg.Pattern)
	}
}

func runAttack(targets []vegeta.Target, cfg benchConfig) *vegeta.Metrics {
	targeter := vegeta.NewStaticTargeter(targets...)
	rate := vegeta.Rate{Freq: cfg.RPS, Per: time.Second}
	attacker := vegeta.NewAttacker(vegeta.Workers(uint64(runtime.NumCPU())))

	metrics := &vegeta.Metrics{}
	for res := range attacker.Attack(targeter, rate, cfg.Duration, "postit_"+cfg.Pattern) {
		metrics.Add(res)
	}
	metrics.Close()
	return metrics
}

func printMetrics(w io.Writer, cfg benchConfig, m *vegeta.Metrics) {
	fmt.Fprintf(w, "Pattern:     %s\n", cfg.Pattern)
	fmt.Fprintf(w, "Requests:    %d (%.1f/s)\n", m.Requests, m.Rate)
	fmt.Fprintf(w, "Success:     %.2f%%\n", m.Success*100)
	fmt.Fprintf(w, "Latency:     mean=%s p50=%s p95=%s p99=%s max=%s\n",
		m.Latencies.Mean, m.Latencies.P50, m.Latencies.P95, m.Latencies.P99, m.Latencies.Max)

	codes := make([]string, 0, len(m.StatusCodes))
	for code := range m.StatusCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "Status %s:  %d\n", code, m.StatusCodes[code])
	}
	if len(m.Errors) > 0 {
		fmt.Fprintf(w, "Errors:      %d distinct\n", len(m.Errors))
	}
}
