package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"
)

// Default values applied before the config file is read, so absent keys keep them.
const (
	DefaultAddress         = "127.0.0.1"
	DefaultPort            = 8080
	DefaultEngine          = "nethttp"
	DefaultBackend         = "memory"
	DefaultQueueCapacity   = 100
	DefaultMaxBodySize     = SizeBytes(1 << 20)
	DefaultReportCron      = "*/5 * * * *"

	DefaultSlowRequestThreshold = 200 * time.Millisecond
	defaultReplyTimeoutSec = 10
	defaultShutdownSec     = 5
)

var (
	validEngines  = map[string]struct{}{"nethttp": {}, "fasthttp": {}}
	validBackends = map[string]struct{}{"memory": {}, "pebble": {}, "sqlite": {}}
)

// Default returns a config with every field at its default.
func Default() *Config {
	var c Config
	c.Server.Address = DefaultAddress
	c.Server.Port = DefaultPort
	c.Server.Engine = DefaultEngine
	c.Server.MaxBodySize = DefaultMaxBodySize
	c.Server.ShutdownTimeout = Duration(defaultShutdownSec * time.Second)
	c.Server.SlowRequestThreshold = Duration(DefaultSlowRequestThreshold)
	c.Store.Backend = DefaultBackend
	c.Ingest.Queue.Capacity = DefaultQueueCapacity
	c.Ingest.ReplyTimeout = Duration(defaultReplyTimeoutSec * time.Second)
	c.Security.CORS.AllowedOrigins = []string{"*"}
	c.Logging.Level = "info"
	c.Logging.Format = "text"
	c.Metrics.Enabled = true
	c.Report.Cron = DefaultReportCron
	return &c
}

// Addr returns host:port for the HTTP listener. Port 0 asks the kernel
// for a free port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = DefaultAddress
	}
	return net.JoinHostPort(addr, strconv.Itoa(c.Server.Port))
}

// SetAddr splits a host:port listen address into Server.Address and
// Server.Port. A value without a port only replaces the host.
func (c *Config) SetAddr(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("empty listen address")
	}
	h, p, err := net.SplitHostPort(v)
	if err != nil {
		c.Server.Address = v
		return nil
	}
	pi, err := strconv.Atoi(p)
	if err != nil || pi < 0 || pi > 65535 {
		return fmt.Errorf("invalid port in listen address %q", v)
	}
	c.Server.Address = h
	c.Server.Port = pi
	return nil
}

// Load reads the YAML file at path on top of the defaults. A missing file
// is reported with an error satisfying os.IsNotExist.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate performs quick, fail-fast validation before long-running
// services start.
func (c *Config) Validate() error {
	if _, ok := validEngines[c.Server.Engine]; !ok {
		return fmt.Errorf("unknown server.engine %q: want nethttp or fasthttp", c.Server.Engine)
	}
	if _, ok := validBackends[c.Store.Backend]; !ok {
		return fmt.Errorf("unknown store.backend %q: want memory, pebble or sqlite", c.Store.Backend)
	}
	if c.Ingest.Queue.Capacity <= 0 {
		return fmt.Errorf("ingest.queue.capacity must be > 0, got %d", c.Ingest.Queue.Capacity)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.SlowRequestThreshold < 0 {
		return fmt.Errorf("server.slow_request_threshold must not be negative")
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("server.max_body_size must not be negative")
	}
	if c.Security.RateLimit.RPS < 0 || c.Security.RateLimit.Burst < 0 {
		return fmt.Errorf("security.rate_limit values must not be negative")
	}
	if c.Report.Enabled {
		cron := c.Report.Cron
		if cron == "" {
			cron = DefaultReportCron
		}
		if !gronx.IsValid(cron) {
			return fmt.Errorf("invalid report.cron expression: %s", c.Report.Cron)
		}
	}
	return nil
}
