// Package cli implements the postit-cli commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"postit/pkg/client"
)

var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	host    string
	timeout time.Duration
}

func (o *options) client() *client.Client {
	return client.New(o.host, nil)
}

// NewRootCmd builds the command tree. Output goes to cmd.OutOrStdout.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "postit-cli",
		Short: "Client for the postit message board",
		Long: `postit-cli posts and lists messages on a postit server and can run
a load benchmark against it.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	host := os.Getenv("POSTIT_HOST")
	if host == "" {
		host = "http://127.0.0.1:8080"
	}
	root.PersistentFlags().StringVar(&opts.host, "host", host, "postit server base URL (env POSTIT_HOST)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-command timeout")

	root.AddCommand(newPostCmd(opts), newListCmd(opts), newBenchCmd(opts))
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
