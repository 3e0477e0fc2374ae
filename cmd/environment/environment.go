package environment

import (
	"context"
	"fmt"

	"github.com/paularlott/cli"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
)

func dataDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:         "data-dir",
		Usage:        "Directory for the SQLite database",
		DefaultValue: "./data",
		EnvVars:      []string{"PE_DATA_DIR"},
	}
}

func openStore(cmd *cli.Command) (*storage.SQLiteStorage, error) {
	return storage.NewSQLiteStorage(cmd.GetString("data-dir"))
}

// Commands returns the environment subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		listCommand(),
		showCommand(),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List environments",
		Description: "List environments, optionally filtered by status or owner",
		Flags: []cli.Flag{
			dataDirFlag(),
			&cli.StringFlag{Name: "status", Usage: "Filter by status"},
			&cli.StringFlag{Name: "owner", Usage: "Filter by owner"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			envs, err := store.ListEnvironments(&model.EnvironmentFilter{
				Status: cmd.GetString("status"),
				Owner:  cmd.GetString("owner"),
			})
			if err != nil {
				return err
			}

			if len(envs) == 0 {
				fmt.Println("No environments found.")
				return nil
			}

			fmt.Printf("%-38s %-24s %-18s %-14s %s\n", "ID", "NAME", "STATUS", "REGION", "OWNER")
			for _, e := range envs {
				fmt.Printf("%-38s %-24s %-18s %-14s %s\n", e.ID, e.Name, e.Status, e.Region, e.Owner)
			}
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show an environment",
		Description: "Show an environment by ID or name, with its deployments and costs",
		Flags:       []cli.Flag{dataDirFlag()},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.GetEnvironment(cmd.GetStringArg("id"))
			if err != nil {
				return err
			}

			fmt.Printf("ID:       %s\n", e.ID)
			fmt.Printf("Name:     %s\n", e.Name)
			fmt.Printf("Template: %s\n", e.TemplateID)
			fmt.Printf("Status:   %s\n", e.Status)
			if e.Region != "" {
				fmt.Printf("Region:   %s\n", e.Region)
			}
			if e.Owner != "" {
				fmt.Printf("Owner:    %s\n", e.Owner)
			}
			if e.Network != nil {
				fmt.Printf("Network:  %s (%d subnets)\n", e.Network.AddressSpace, len(e.Network.Subnets))
				for _, sn := range e.Network.Subnets {
					fmt.Printf("  - %s %s %s\n", sn.Name, sn.AddressPrefix, sn.Purpose)
				}
			}

			deployments, err := store.ListDeployments(&model.DeploymentFilter{EnvironmentID: e.ID})
			if err != nil {
				return err
			}
			if len(deployments) > 0 {
				fmt.Println("Deployments:")
				for _, d := range deployments {
					fmt.Printf("  - %s: %s (%d%%) %s\n", d.ID, d.Status, d.Progress, d.Message)
				}
			}

			records, err := store.ListCostRecords(e.ID)
			if err != nil {
				return err
			}
			if len(records) > 0 {
				var total float64
				for _, c := range records {
					total += c.Amount
				}
				fmt.Printf("Accrued cost: %.2f USD (%d records)\n", total, len(records))
			}
			return nil
		},
	}
}
