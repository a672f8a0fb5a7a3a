package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/printer"
	"github.com/colonyops/danmaku/pkg/iojson"
)

type LayoutCmd struct {
	flags *Flags

	// Command-specific flags
	mode   string
	asJSON bool
}

// NewLayoutCmd creates a new layout command
func NewLayoutCmd(flags *Flags) *LayoutCmd {
	return &LayoutCmd{flags: flags}
}

// Register adds the layout command to the application
func (cmd *LayoutCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "layout",
		Usage:     "Show the window plan for the configured displays",
		UsageText: "danmaku layout [options]",
		Description: `Prints the windows 'danmaku run' would open, in relay order. Window 0
receives new comments; each comment then travels towards the last window.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "override window_mode (auto, single, multi)",
				Destination: &cmd.mode,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.asJSON,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LayoutCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	mode := cfg.WindowMode
	if cmd.mode != "" {
		mode = display.Mode(cmd.mode)
		if !mode.IsValid() {
			return fmt.Errorf("invalid mode %q (must be auto, single or multi)", cmd.mode)
		}
	}

	layout, err := display.Plan(cfg.Displays, mode)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.asJSON {
		return iojson.Write(out, layout)
	}

	p := printer.Ctx(ctx)
	kind := "multi-window"
	if layout.IsSingleWindow {
		kind = "single window"
	}
	p.Infof("%d display(s), %s (mode %s)", layout.NumDisplays, kind, mode)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WINDOW\tX\tY\tWIDTH\tHEIGHT")
	for i, r := range layout.Windows {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", i, r.X, r.Y, r.Width, r.Height)
	}
	return w.Flush()
}
