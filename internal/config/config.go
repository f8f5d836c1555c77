package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Interface   string
	Addr        string
	DBPath      string
	PcapPath    string
	MeshID      string
	Transmitter string
	Peer        string
	Interval    time.Duration
	Throttle    time.Duration
	Debug       bool
	Trace       bool

	// Observation filter for decode and the live stream; empty matches everything.
	FilterMeshID string
	FilterKind   string

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

// Load parses args (without the program or subcommand name) and environment variables
// to populate Config. Flags take precedence over environment variables.
func Load(name string, args []string) (*Config, error) {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Interface = getEnv("MPM_INTERFACE", "")
	cfg.Addr = getEnv("MPM_ADDR", ":8080")
	cfg.DBPath = getEnv("MPM_DB", getDefaultDBPath())
	cfg.MeshID = getEnv("MPM_MESH_ID", "meshpeer")
	cfg.Transmitter = getEnv("MPM_TX", "")
	cfg.Throttle = getEnvDuration("MPM_THROTTLE", 0)
	cfg.Debug = getEnvBool("MPM_DEBUG", false)
	cfg.Trace = getEnvBool("MPM_TRACE", false)

	// Command Line Flags (Override Env)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.Interface, "i", cfg.Interface, "Monitor mode interface for live capture or injection")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database (empty to disable)")
	fs.StringVar(&cfg.PcapPath, "pcap", "", "Path of the pcap file to read or write")
	fs.StringVar(&cfg.MeshID, "mesh-id", cfg.MeshID, "Mesh ID advertised in generated frames")
	fs.StringVar(&cfg.Transmitter, "tx", cfg.Transmitter, "Transmitter MAC (random if empty)")
	fs.StringVar(&cfg.Peer, "peer", "ff:ff:ff:ff:ff:ff", "Receiver MAC of generated frames")
	fs.DurationVar(&cfg.Interval, "interval", 100*time.Millisecond, "Pause between generated frames")
	fs.DurationVar(&cfg.Throttle, "throttle", cfg.Throttle, "Suppress repeated frames inside this window")
	fs.StringVar(&cfg.FilterMeshID, "filter-mesh-id", "", "Only report frames advertising this mesh ID")
	fs.StringVar(&cfg.FilterKind, "filter-kind", "", "Only report open, confirm or close frames")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "Print OpenTelemetry spans to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if !domain.IsValidMeshID(c.MeshID) {
		return fmt.Errorf("mesh id %q is longer than %d bytes", c.MeshID, domain.MaxMeshIDLen)
	}
	if c.Transmitter != "" && !domain.IsValidMAC(c.Transmitter) {
		return fmt.Errorf("invalid transmitter %q", c.Transmitter)
	}
	if !domain.IsValidMAC(c.Peer) {
		return fmt.Errorf("invalid peer %q", c.Peer)
	}
	if !domain.IsValidMeshID(c.FilterMeshID) {
		return fmt.Errorf("filter mesh id %q is longer than %d bytes", c.FilterMeshID, domain.MaxMeshIDLen)
	}
	if err := c.Filter().Validate(); err != nil {
		return err
	}
	if c.Interval < 0 || c.Throttle < 0 {
		return errors.New("durations cannot be negative")
	}
	return nil
}

// Filter returns the observation filter selected by the filter flags.
func (c *Config) Filter() *domain.PeeringFilter {
	return (&domain.PeeringFilter{}).WithMeshID(c.FilterMeshID).WithKind(c.FilterKind)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// The directory is created by the store when a command opens it.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("could not get user home directory, using current dir", "error", err)
		return "meshpeer.db"
	}
	return filepath.Join(home, ".meshpeer", "meshpeer.db")
}
