package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/colonyops/danmaku/internal/data/stores"
	"github.com/colonyops/danmaku/internal/printer"
	"github.com/colonyops/danmaku/pkg/iojson"
	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v3"
)

const historyTextWidth = 40

type HistoryCmd struct {
	flags *Flags

	// Command-specific flags
	limit  int
	asJSON bool
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "history",
		Usage: "Inspect the comment log",
		Description: `Shows what happened to recently submitted comments: which window last
held them and whether they were relayed, evicted or terminated.

The log is written while 'danmaku run' is active and history.enabled is set.`,
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List recent comments",
				UsageText: "danmaku history ls [options]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "number of entries to show",
						Value:       20,
						Destination: &cmd.limit,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.asJSON,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every logged comment",
				Action: cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *HistoryCmd) store() (*stores.HistoryStore, error) {
	if cmd.flags.DB == nil {
		return nil, errors.New("database is not available")
	}
	return stores.NewHistoryStore(cmd.flags.DB, cmd.flags.Config.History.MaxEntries), nil
}

func (cmd *HistoryCmd) runList(ctx context.Context, c *cli.Command) error {
	store, err := cmd.store()
	if err != nil {
		return err
	}

	entries, err := store.Recent(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	out := c.Root().Writer
	if cmd.asJSON {
		return iojson.Write(out, entries)
	}

	if len(entries) == 0 {
		printer.Ctx(ctx).Infof("No comment history")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tOUTCOME\tWINDOW\tSOURCE\tTEXT\tTIME")

	for _, e := range entries {
		outcome := string(e.Outcome)
		if e.Detail != "" {
			outcome += " (" + e.Detail + ")"
		}

		window := "-"
		if e.Window >= 0 {
			window = strconv.Itoa(e.Window)
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.CommentID,
			outcome,
			window,
			e.Source,
			runewidth.Truncate(e.Text, historyTextWidth, "..."),
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}

	return w.Flush()
}

func (cmd *HistoryCmd) runClear(ctx context.Context, _ *cli.Command) error {
	store, err := cmd.store()
	if err != nil {
		return err
	}

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	printer.Ctx(ctx).Successf("Comment history cleared")
	return nil
}
