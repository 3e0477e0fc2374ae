package template

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/paularlott/cli"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/manifest"
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

// Commands returns the template subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		listCommand(),
		showCommand(),
		importCommand(),
		exportCommand(),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List templates",
		Description: "List templates in the catalog",
		Flags: []cli.Flag{
			dataDirFlag(),
			&cli.StringFlag{Name: "provider", Usage: "Filter by provider (azure, aws, gcp)"},
			&cli.StringFlag{Name: "platform", Usage: "Filter by platform"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			templates, err := store.ListTemplates(&model.TemplateFilter{
				Provider: cmd.GetString("provider"),
				Platform: cmd.GetString("platform"),
				Tag:      cmd.GetString("tag"),
			})
			if err != nil {
				return err
			}

			if len(templates) == 0 {
				fmt.Println("No templates found.")
				return nil
			}

			fmt.Printf("%-38s %-24s %-8s %-14s %-10s %s\n", "ID", "NAME", "PROVIDER", "PLATFORM", "FORMAT", "TAGS")
			for _, t := range templates {
				fmt.Printf("%-38s %-24s %-8s %-14s %-10s %s\n",
					t.ID, t.Name, t.Provider, t.Platform, t.Format, strings.Join(t.Tags, ","))
			}
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show a template",
		Description: "Show a template by ID or name",
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

			t, err := store.GetTemplate(cmd.GetStringArg("id"))
			if err != nil {
				return err
			}

			fmt.Printf("ID:                %s\n", t.ID)
			fmt.Printf("Name:              %s\n", t.Name)
			if t.Description != "" {
				fmt.Printf("Description:       %s\n", t.Description)
			}
			fmt.Printf("Provider:          %s\n", t.Provider)
			fmt.Printf("Platform:          %s\n", t.Platform)
			fmt.Printf("Format:            %s\n", t.Format)
			fmt.Printf("Requires approval: %v\n", t.RequiresApproval)
			if len(t.Tags) > 0 {
				fmt.Printf("Tags:              %s\n", strings.Join(t.Tags, ", "))
			}
			if n := t.Parameters.Network(); n != nil {
				fmt.Printf("Network:           %s (%d subnets)\n", n.AddressSpace, len(n.Subnets))
				for _, sn := range n.Subnets {
					fmt.Printf("  - %s %s %s\n", sn.Name, sn.AddressPrefix, sn.Purpose)
				}
			}
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:        "import",
		Usage:       "Import a template manifest",
		Description: "Import a YAML template manifest into the catalog",
		Flags:       []cli.Flag{dataDirFlag()},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			f, err := os.Open(cmd.GetStringArg("file"))
			if err != nil {
				return err
			}
			defer f.Close()

			m, err := manifest.Decode(f)
			if err != nil {
				return err
			}
			t, err := m.Template()
			if err != nil {
				return err
			}
			t.ID = newID()

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.CreateTemplate(t); err != nil {
				return err
			}

			fmt.Printf("Imported template %s (ID: %s)\n", t.Name, t.ID)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:        "export",
		Usage:       "Export a template manifest",
		Description: "Export a template as a YAML manifest to stdout or a file",
		Flags: []cli.Flag{
			dataDirFlag(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (defaults to stdout)"},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			t, err := store.GetTemplate(cmd.GetStringArg("id"))
			if err != nil {
				return err
			}

			m, err := manifest.FromTemplate(t)
			if err != nil {
				return err
			}

			out := os.Stdout
			if path := cmd.GetString("output"); path != "" {
				out, err = os.Create(path)
				if err != nil {
					return err
				}
				defer out.Close()
			}
			return m.Encode(out)
		},
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
