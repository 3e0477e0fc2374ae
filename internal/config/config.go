// Package config holds the service configuration. Values resolve with the
// usual priority: command-line flags, then .env file (loaded in main), then
// environment variables, then defaults. The flag definitions carry the env
// var names so the CLI library does the resolution.
package config

import (
	"fmt"
	"time"

	"github.com/paularlott/cli"
)

// Config holds the application configuration
type Config struct {
	DataDir    string
	ListenAddr string
	APIToken   string // bearer token for /api/; empty disables auth
	MCPToken   string // bearer token for /mcp; empty disables auth

	Workers       int           // worker pool size for deployment jobs
	EngineStep    time.Duration // simulated duration of each deployment phase
	SweepInterval time.Duration // deployment/deletion sweep cadence
	SweepJitter   time.Duration // jitter added to recurring sweeps
	ApprovalTTL   time.Duration // how long approvals stay actionable
	ApprovalSweep time.Duration // approval expiry sweep cadence
	CostCron      string        // cron spec for the cost rollup
	CostPeriod    time.Duration // accounting window per rollup run
}

// GetFlags returns the server configuration flags.
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Directory for the SQLite database",
			DefaultValue: "./data",
			EnvVars:      []string{"PE_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:         "listen-addr",
			Usage:        "HTTP listen address",
			DefaultValue: ":8080",
			EnvVars:      []string{"PE_LISTEN_ADDR"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Bearer token protecting /api/ (empty disables auth)",
			EnvVars: []string{"PE_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "mcp-token",
			Usage:   "Bearer token protecting /mcp (empty disables auth)",
			EnvVars: []string{"PE_MCP_TOKEN"},
		},
		&cli.IntFlag{
			Name:         "workers",
			Usage:        "Deployment worker pool size",
			DefaultValue: 4,
			EnvVars:      []string{"PE_WORKERS"},
		},
		&cli.StringFlag{
			Name:         "engine-step",
			Usage:        "Simulated duration of each deployment phase",
			DefaultValue: "2s",
			EnvVars:      []string{"PE_ENGINE_STEP"},
		},
		&cli.StringFlag{
			Name:         "sweep-interval",
			Usage:        "Deployment/deletion sweep cadence",
			DefaultValue: "15s",
			EnvVars:      []string{"PE_SWEEP_INTERVAL"},
		},
		&cli.StringFlag{
			Name:         "sweep-jitter",
			Usage:        "Jitter added to recurring sweeps",
			DefaultValue: "5s",
			EnvVars:      []string{"PE_SWEEP_JITTER"},
		},
		&cli.StringFlag{
			Name:         "approval-ttl",
			Usage:        "How long approvals stay actionable",
			DefaultValue: "72h",
			EnvVars:      []string{"PE_APPROVAL_TTL"},
		},
		&cli.StringFlag{
			Name:         "approval-sweep",
			Usage:        "Approval expiry sweep cadence",
			DefaultValue: "1m",
			EnvVars:      []string{"PE_APPROVAL_SWEEP"},
		},
		&cli.StringFlag{
			Name:         "cost-cron",
			Usage:        "Cron spec for the cost rollup",
			DefaultValue: "@hourly",
			EnvVars:      []string{"PE_COST_CRON"},
		},
		&cli.StringFlag{
			Name:         "cost-period",
			Usage:        "Accounting window per cost rollup run",
			DefaultValue: "1h",
			EnvVars:      []string{"PE_COST_PERIOD"},
		},
	}
}

// Load reads the configuration from the resolved command flags.
func Load(cmd *cli.Command) (*Config, error) {
	cfg := &Config{
		DataDir:    cmd.GetString("data-dir"),
		ListenAddr: cmd.GetString("listen-addr"),
		APIToken:   cmd.GetString("api-token"),
		MCPToken:   cmd.GetString("mcp-token"),
		Workers:    cmd.GetInt("workers"),
		CostCron:   cmd.GetString("cost-cron"),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	var err error
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"engine-step", &cfg.EngineStep},
		{"sweep-interval", &cfg.SweepInterval},
		{"sweep-jitter", &cfg.SweepJitter},
		{"approval-ttl", &cfg.ApprovalTTL},
		{"approval-sweep", &cfg.ApprovalSweep},
		{"cost-period", &cfg.CostPeriod},
	}
	for _, d := range durations {
		*d.dst, err = time.ParseDuration(cmd.GetString(d.name))
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", d.name, err)
		}
	}

	return cfg, nil
}

// IsAPIAuthEnabled checks if API authentication is configured
func (c *Config) IsAPIAuthEnabled() bool {
	return c.APIToken != ""
}

// IsMCPEnabled checks if MCP authentication is configured
func (c *Config) IsMCPEnabled() bool {
	return c.MCPToken != ""
}
