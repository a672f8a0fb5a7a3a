package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/colonyops/danmaku/internal/data/db"
	"github.com/colonyops/danmaku/internal/printer"
	"github.com/colonyops/danmaku/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type DBCmd struct {
	flags *Flags

	// Command-specific flags
	asJSON bool
	steps  int
}

// NewDBCmd creates a new db command
func NewDBCmd(flags *Flags) *DBCmd {
	return &DBCmd{flags: flags}
}

// Register adds the db command to the application
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Inspect the settings and history database",
		Description: `The database lives at <data-dir>/danmaku.db. Pending migrations are
applied whenever danmaku starts.`,
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "List schema migrations and when they ran",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.asJSON,
					},
				},
				Action: cmd.runStatus,
			},
			{
				Name:  "rollback",
				Usage: "Revert the most recent migrations",
				Description: `Use before downgrading to a danmaku build that does not know the newer
schema. Tables dropped by a rollback lose their rows.`,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "steps",
						Aliases:     []string{"n"},
						Usage:       "number of migrations to revert",
						Value:       1,
						Destination: &cmd.steps,
					},
				},
				Action: cmd.runRollback,
			},
		},
	})

	return app
}

type migrationView struct {
	Version   int        `json:"version"`
	Name      string     `json:"name"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

func (cmd *DBCmd) requireDB() error {
	if cmd.flags.DB == nil {
		return errors.New("database is not available")
	}
	return nil
}

func (cmd *DBCmd) runStatus(ctx context.Context, c *cli.Command) error {
	if err := cmd.requireDB(); err != nil {
		return err
	}

	status, err := db.Status(ctx, cmd.flags.DB.Conn())
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}

	out := c.Root().Writer
	if cmd.asJSON {
		views := make([]migrationView, 0, len(status))
		for _, s := range status {
			v := migrationView{Version: s.Version, Name: s.Name}
			if s.Applied() {
				at := s.AppliedAt
				v.AppliedAt = &at
			}
			views = append(views, v)
		}
		return iojson.Write(out, views)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
	for _, s := range status {
		applied := "pending"
		if s.Applied() {
			applied = s.AppliedAt.Local().Format("2006-01-02 15:04:05")
		}
		_, _ = fmt.Fprintf(w, "%04d\t%s\t%s\n", s.Version, s.Name, applied)
	}
	return w.Flush()
}

func (cmd *DBCmd) runRollback(ctx context.Context, _ *cli.Command) error {
	if err := cmd.requireDB(); err != nil {
		return err
	}

	if err := db.MigrateDown(ctx, cmd.flags.DB.Conn(), cmd.steps); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}

	printer.Ctx(ctx).Successf("Reverted %d migration(s)", cmd.steps)
	return nil
}
