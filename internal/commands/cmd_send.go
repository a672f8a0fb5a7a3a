package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/printer"
	"github.com/colonyops/danmaku/internal/source"
	"github.com/colonyops/danmaku/pkg/iojson"
)

type SendCmd struct {
	flags *Flags

	// Command-specific flags
	addr     string
	icon     string
	color    string
	stroke   string
	inline   []string
	images   []string
	videos   []string
	raw      bool
	repeat   int
	interval time.Duration
	file     iojson.FileReader[comment.Payload]
}

// NewSendCmd creates a new send command
func NewSendCmd(flags *Flags) *SendCmd {
	return &SendCmd{flags: flags}
}

// Register adds the send command to the application
func (cmd *SendCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "send",
		Usage:     "Send a comment to a running overlay",
		UsageText: "danmaku send [options] <text>",
		Description: `Connects to the TCP feed and writes one payload per connection.

The comment is sent as a JSON payload built from the flags. Use ` + "`" + comment.InlinePlaceholder + "`" + `
in the text to place inline images given with --inline. Use --raw to send the
text exactly as typed. Use --file to send a payload document; text given as
arguments replaces its text field.`,
		Flags: []cli.Flag{
			cmd.file.Flag("read the JSON payload from a file (- for stdin)"),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "feed address (defaults to the configured tcp feed)",
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "icon",
				Usage:       "icon image URL",
				Destination: &cmd.icon,
			},
			&cli.StringFlag{
				Name:        "color",
				Usage:       "text color",
				Destination: &cmd.color,
			},
			&cli.StringFlag{
				Name:        "stroke",
				Usage:       "text stroke",
				Destination: &cmd.stroke,
			},
			&cli.StringSliceFlag{
				Name:        "inline",
				Usage:       "inline image URL (repeatable)",
				Destination: &cmd.inline,
			},
			&cli.StringSliceFlag{
				Name:        "image",
				Usage:       "block image URL (repeatable)",
				Destination: &cmd.images,
			},
			&cli.StringSliceFlag{
				Name:        "video",
				Usage:       "video URL (repeatable)",
				Destination: &cmd.videos,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "send the text verbatim instead of a JSON payload",
				Destination: &cmd.raw,
			},
			&cli.IntFlag{
				Name:        "repeat",
				Aliases:     []string{"n"},
				Usage:       "number of times to send the comment",
				Value:       1,
				Destination: &cmd.repeat,
			},
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "delay between repeated sends",
				Value:       500 * time.Millisecond,
				Destination: &cmd.interval,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SendCmd) run(ctx context.Context, c *cli.Command) error {
	payload, err := cmd.payload(strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}

	addr := cmd.addr
	if addr == "" {
		addr = cmd.flags.Config.Sources.TCP.DialAddr()
	}

	limiter := rate.NewLimiter(rate.Every(cmd.interval), 1)
	for i := range max(cmd.repeat, 1) {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := source.Send(ctx, addr, payload); err != nil {
			return err
		}
		if cmd.repeat > 1 {
			printer.Ctx(ctx).Infof("Sent %d/%d", i+1, cmd.repeat)
		}
	}

	printer.Ctx(ctx).Successf("Sent to %s", addr)
	return nil
}

// payload builds the wire form of the comment from the --file document or
// the command flags.
func (cmd *SendCmd) payload(text string) (string, error) {
	if cmd.file.Provided() {
		p, err := cmd.file.Read()
		if err != nil {
			return "", err
		}
		if text != "" {
			p.Text = text
		}
		return encodePayload(p)
	}

	if text == "" {
		return "", errors.New("comment text is required")
	}
	if cmd.raw {
		return text, nil
	}

	return encodePayload(comment.Payload{
		Text:         text,
		Icon:         cmd.icon,
		Color:        cmd.color,
		TextStroke:   cmd.stroke,
		InlineImages: cmd.inline,
		Images:       cmd.images,
		Videos:       cmd.videos,
	})
}

func encodePayload(p comment.Payload) (string, error) {
	if p.Text == "" {
		return "", errors.New("comment text is required")
	}
	if n := strings.Count(p.Text, comment.InlinePlaceholder); n < len(p.InlineImages) {
		return "", fmt.Errorf("%d inline images given but text has %d %s placeholders",
			len(p.InlineImages), n, comment.InlinePlaceholder)
	}
	return comment.Encode(p)
}
