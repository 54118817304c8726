package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	Config string
	Store  string
	Engine string
	// Positional is the optional bare listen address, as in `postit 127.0.0.1:3000`.
	Positional string
	Set        map[string]bool
}

// EffectiveConfigResult is the merged configuration plus where it came from.
type EffectiveConfigResult struct {
	Config  *Config
	Addr    string
	Sources []string // any of "config", "env", "flags"
}

// ParseConfigFlags parses args (without the program name) into Flags.
func ParseConfigFlags(args []string, output io.Writer) (Flags, error) {
	fs := flag.NewFlagSet("postit", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	addrPtr := fs.String("addr", "", "HTTP listen address (host:port)")
	cfgPtr := fs.String("config", "./config.yaml", "Path to config file")
	storePtr := fs.String("store", "", "State store backend: memory, pebble or sqlite")
	enginePtr := fs.String("engine", "", "HTTP engine: nethttp or fasthttp")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	if fs.NArg() > 1 {
		return Flags{}, fmt.Errorf("usage: postit [flags] [address]")
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{
		Addr:       *addrPtr,
		Config:     *cfgPtr,
		Store:      *storePtr,
		Engine:     *enginePtr,
		Positional: fs.Arg(0),
		Set:        setFlags,
	}, nil
}

// ResolveConfigPath decides the config file path using the flag-provided value
// and the environment variable `POSTIT_CONFIG` when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("POSTIT_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// ApplyEnvOverrides applies POSTIT_* environment variables onto cfg and
// reports whether any were used.
func ApplyEnvOverrides(cfg *Config) (bool, error) {
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("POSTIT_ADDR"); v != "" {
		envUsed = true
		if err := cfg.SetAddr(v); err != nil {
			return envUsed, fmt.Errorf("POSTIT_ADDR: %w", err)
		}
	} else {
		if host := os.Getenv("POSTIT_SERVER_ADDRESS"); host != "" {
			envUsed = true
			cfg.Server.Address = host
		}
		if port := os.Getenv("POSTIT_SERVER_PORT"); port != "" {
			envUsed = true
			pi, err := strconv.Atoi(port)
			if err != nil {
				return envUsed, fmt.Errorf("POSTIT_SERVER_PORT: %w", err)
			}
			cfg.Server.Port = pi
		}
	}
	if v := os.Getenv("POSTIT_SERVER_ENGINE"); v != "" {
		envUsed = true
		cfg.Server.Engine = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("POSTIT_MAX_BODY_SIZE"); v != "" {
		envUsed = true
		sz, err := ParseSize(v)
		if err != nil {
			return envUsed, fmt.Errorf("POSTIT_MAX_BODY_SIZE: %w", err)
		}
		cfg.Server.MaxBodySize = sz
	}
	if v := os.Getenv("POSTIT_STORE_BACKEND"); v != "" {
		envUsed = true
		cfg.Store.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("POSTIT_QUEUE_CAPACITY"); v != "" {
		envUsed = true
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return envUsed, fmt.Errorf("POSTIT_QUEUE_CAPACITY: %w", err)
		}
		cfg.Ingest.Queue.Capacity = n
	}
	if v := os.Getenv("POSTIT_REPLY_TIMEOUT"); v != "" {
		envUsed = true
		d, err := ParseDuration(v)
		if err != nil {
			return envUsed, fmt.Errorf("POSTIT_REPLY_TIMEOUT: %w", err)
		}
		cfg.Ingest.ReplyTimeout = d
	}
	if v := os.Getenv("POSTIT_SLOW_REQUEST_THRESHOLD"); v != "" {
		envUsed = true
		d, err := ParseDuration(v)
		if err != nil {
			return envUsed, fmt.Errorf("POSTIT_SLOW_REQUEST_THRESHOLD: %w", err)
		}
		cfg.Server.SlowRequestThreshold = d
	}
	if v := os.Getenv("POSTIT_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("POSTIT_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("POSTIT_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("POSTIT_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("POSTIT_LOG_FORMAT"); v != "" {
		envUsed = true
		cfg.Logging.Format = v
	}
	if v := os.Getenv("POSTIT_METRICS_ENABLED"); v != "" {
		envUsed = true
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("POSTIT_REPORT_ENABLED"); v != "" {
		envUsed = true
		cfg.Report.Enabled = parseBool(v)
	}
	if v := os.Getenv("POSTIT_REPORT_CRON"); v != "" {
		envUsed = true
		cfg.Report.Cron = v
	}
	return envUsed, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadEffectiveConfig layers defaults, the config file, environment and
// flags, in that order; later layers win. An explicitly passed -config
// must exist; the default path is optional.
func LoadEffectiveConfig(flags Flags) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	switch {
	case err == nil:
		res.Sources = append(res.Sources, "config")
	case os.IsNotExist(err):
		if flags.Set["config"] {
			return res, fmt.Errorf("config file %s not found", cfgPath)
		}
		cfg = Default()
	default:
		return res, err
	}

	envUsed, err := ApplyEnvOverrides(cfg)
	if err != nil {
		return res, err
	}
	if envUsed {
		res.Sources = append(res.Sources, "env")
	}

	flagsUsed := false
	if flags.Set["addr"] {
		flagsUsed = true
		if err := cfg.SetAddr(flags.Addr); err != nil {
			return res, fmt.Errorf("-addr: %w", err)
		}
	}
	if flags.Positional != "" {
		flagsUsed = true
		if err := cfg.SetAddr(flags.Positional); err != nil {
			return res, fmt.Errorf("address argument: %w", err)
		}
	}
	if flags.Set["store"] {
		flagsUsed = true
		cfg.Store.Backend = strings.ToLower(flags.Store)
	}
	if flags.Set["engine"] {
		flagsUsed = true
		cfg.Server.Engine = strings.ToLower(flags.Engine)
	}
	if flagsUsed {
		res.Sources = append(res.Sources, "flags")
	}

	if err := cfg.Validate(); err != nil {
		return res, err
	}
	res.Config = cfg
	res.Addr = cfg.Addr()
	return res, nil
}
