package operator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/paularlott/cli"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

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

// Commands returns the operator subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		addCommand(),
		listCommand(),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add a console operator",
		Description: "Add an operator with a role and an access token. The token is prompted for and only its bcrypt hash is stored.",
		Flags: []cli.Flag{
			dataDirFlag(),
			&cli.StringFlag{Name: "role", Usage: "Operator role (admin, approver, viewer)", DefaultValue: model.RoleViewer},
			&cli.StringFlag{Name: "token", Usage: "Access token (prompted when omitted)"},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.GetStringArg("name")
			role := cmd.GetString("role")
			if !model.ValidRole(role) {
				return fmt.Errorf("unsupported role %q", role)
			}

			token := cmd.GetString("token")
			if token == "" {
				fmt.Fprint(os.Stderr, "Access token: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("reading token: %w", err)
				}
				token = string(raw)
			}
			if token == "" {
				return fmt.Errorf("access token must not be empty")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing token: %w", err)
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			op := &model.Operator{
				ID:        newID(),
				Name:      name,
				Role:      role,
				TokenHash: string(hash),
				CreatedAt: time.Now(),
			}
			if err := store.CreateOperator(op); err != nil {
				return err
			}

			fmt.Printf("Operator %s added with role %s (ID: %s)\n", op.Name, op.Role, op.ID)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List operators",
		Description: "List console operators",
		Flags:       []cli.Flag{dataDirFlag()},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			operators, err := store.ListOperators()
			if err != nil {
				return err
			}

			if len(operators) == 0 {
				fmt.Println("No operators found.")
				return nil
			}

			fmt.Printf("%-38s %-20s %-10s %s\n", "ID", "NAME", "ROLE", "CREATED")
			for _, o := range operators {
				fmt.Printf("%-38s %-20s %-10s %s\n", o.ID, o.Name, o.Role, o.CreatedAt.Format(time.RFC3339))
			}
			return nil
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
