package main

import (
	"context"
	"fmt"
	"os"

	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"

	"github.com/azurenoops/platform-engineering-copilot-sub000/cmd/approval"
	"github.com/azurenoops/platform-engineering-copilot-sub000/cmd/environment"
	"github.com/azurenoops/platform-engineering-copilot-sub000/cmd/operator"
	"github.com/azurenoops/platform-engineering-copilot-sub000/cmd/server"
	"github.com/azurenoops/platform-engineering-copilot-sub000/cmd/template"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	// Initialize structured logging
	log.Configure("info", "console")

	rootCmd := &cli.Command{
		Name:        "platformd",
		Version:     version,
		Usage:       "Platform engineering admin service",
		Description: "Admin service for infrastructure templates, environment provisioning, approvals and cost tracking, with an MCP assistant endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"PE_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json)",
				DefaultValue: "console",
				EnvVars:      []string{"PE_LOG_FORMAT"},
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.Configure(cmd.GetString("log-level"), cmd.GetString("log-format"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			server.Command(),
			{
				Name:        "template",
				Usage:       "Template catalog commands",
				Description: "Manage infrastructure templates in local storage",
				Commands:    template.Commands(),
			},
			{
				Name:        "environment",
				Usage:       "Environment commands",
				Description: "Inspect environments in local storage",
				Commands:    environment.Commands(),
			},
			{
				Name:        "approval",
				Usage:       "Approval commands",
				Description: "List and decide environment approvals",
				Commands:    approval.Commands(),
			},
			{
				Name:        "operator",
				Usage:       "Operator commands",
				Description: "Manage console operators and their access tokens",
				Commands:    operator.Commands(),
			},
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
