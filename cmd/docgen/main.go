// Command docgen generates CLI reference documentation from the danmaku
// command definitions. Output is written to docs/cli-reference.md.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	docs "github.com/urfave/cli-docs/v3"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/danmaku/internal/commands"
)

func main() {
	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "danmaku",
		Usage:     "Scroll live comments across your screens",
		UsageText: "danmaku [global options] command [command options]",
		Description: `Danmaku shows comments from TCP and MQTT feeds scrolling right to left
across one or more displays. A comment that reaches the left edge of one
display continues on the next.

Run 'danmaku' with no arguments to start the overlay.
Run 'danmaku send' to push a comment to a running overlay.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("DANMAKU_LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "path to log file (defaults to <data-dir>/danmaku.log)",
				Sources: cli.EnvVars("DANMAKU_LOG_FILE"),
			},
			&cli.BoolFlag{
				Name:    "log-console",
				Usage:   "also write logs to stderr",
				Sources: cli.EnvVars("DANMAKU_LOG_CONSOLE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("DANMAKU_CONFIG"),
				Value:   commands.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "path to data directory",
				Sources: cli.EnvVars("DANMAKU_DATA_DIR"),
				Value:   commands.DefaultDataDir(),
			},
		},
	}

	runCmd := commands.NewRunCmd(flags)
	root.Flags = append(root.Flags, runCmd.Flags()...)

	root = runCmd.Register(root)
	root = commands.NewSendCmd(flags).Register(root)
	root = commands.NewDecodeCmd(flags).Register(root)
	root = commands.NewLayoutCmd(flags).Register(root)
	root = commands.NewHistoryCmd(flags).Register(root)
	root = commands.NewDBCmd(flags).Register(root)
	root = commands.NewConfigValidateCmd(flags).Register(root)
	root = commands.NewInitCmd(flags).Register(root)
	root = commands.NewDocCmd(flags).Register(root)

	md, err := docs.ToMarkdown(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating docs: %v\n", err)
		os.Exit(1)
	}

	outPath := "docs/cli-reference.md"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating %s: %v\n", filepath.Dir(outPath), err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outPath)
}
