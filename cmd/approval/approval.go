package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Commands returns the approval subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		listCommand(),
		decideCommand("approve", model.ApprovalApproved),
		decideCommand("reject", model.ApprovalRejected),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List approvals",
		Description: "List approval requests, pending by default",
		Flags: []cli.Flag{
			dataDirFlag(),
			&cli.StringFlag{Name: "status", Usage: "Filter by status (pending, approved, rejected, expired, all)", DefaultValue: "pending"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			status := cmd.GetString("status")
			if status == "all" {
				status = ""
			}

			approvals, err := store.ListApprovals(&model.ApprovalFilter{Status: status})
			if err != nil {
				return err
			}

			if len(approvals) == 0 {
				fmt.Println("No approvals found.")
				return nil
			}

			fmt.Printf("%-38s %-38s %-10s %-14s %s\n", "ID", "ENVIRONMENT", "STATUS", "REQUESTED BY", "EXPIRES")
			for _, a := range approvals {
				fmt.Printf("%-38s %-38s %-10s %-14s %s\n",
					a.ID, a.EnvironmentID, a.Status, a.RequestedBy, a.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func decideCommand(name, decision string) *cli.Command {
	usage := "Approve a pending approval"
	if decision == model.ApprovalRejected {
		usage = "Reject a pending approval"
	}
	flags := []cli.Flag{
		dataDirFlag(),
		&cli.StringFlag{Name: "decided-by", Usage: "Name of the approver"},
	}
	if decision == model.ApprovalRejected {
		flags = append(flags, &cli.StringFlag{Name: "reason", Usage: "Rejection reason", Required: true})
	}

	return &cli.Command{
		Name:        name,
		Usage:       usage,
		Description: usage + ". The environment status follows the decision; provisioning starts on the next server sweep.",
		Flags:       flags,
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			a, err := store.GetApproval(cmd.GetStringArg("id"))
			if err != nil {
				return err
			}
			if a.Status != model.ApprovalPending {
				return fmt.Errorf("approval already %s", a.Status)
			}
			if time.Now().After(a.ExpiresAt) {
				return fmt.Errorf("approval has expired")
			}

			now := time.Now()
			a.Status = decision
			a.DecidedBy = cmd.GetString("decided-by")
			a.Reason = cmd.GetString("reason")
			a.DecidedAt = &now
			if err := store.UpdateApproval(a); err != nil {
				return err
			}

			envStatus := model.EnvRejected
			if decision == model.ApprovalApproved {
				envStatus = model.EnvProvisioning
			}
			if err := store.SetEnvironmentStatus(a.EnvironmentID, envStatus); err != nil {
				return err
			}

			if decision == model.ApprovalApproved {
				// The running server's sweep picks up the queued deployment
				d := &model.Deployment{
					ID:            newID(),
					EnvironmentID: a.EnvironmentID,
					Status:        model.DeployQueued,
					Message:       "queued for provisioning",
				}
				if err := store.CreateDeployment(d); err != nil {
					return err
				}
				fmt.Printf("Approved %s; environment %s provisioning (deployment %s)\n", a.ID, a.EnvironmentID, d.ID)
				return nil
			}

			fmt.Printf("Rejected %s; environment %s marked rejected\n", a.ID, a.EnvironmentID)
			return nil
		},
	}
}
