package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/printer"
	"github.com/colonyops/danmaku/pkg/iojson"
)

type DecodeCmd struct {
	flags *Flags

	// Command-specific flags
	asJSON bool
}

// NewDecodeCmd creates a new decode command
func NewDecodeCmd(flags *Flags) *DecodeCmd {
	return &DecodeCmd{flags: flags}
}

// Register adds the decode command to the application
func (cmd *DecodeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "decode",
		Usage:     "Decode a feed payload and show its parts",
		UsageText: "danmaku decode [options] [payload]",
		Description: `Decodes a payload exactly as the overlay would and prints the parsed
comment: icon, colors, body parts and media. Reads stdin when no payload
argument is given. Payloads that are not a JSON comment object are shown as
plain text, just as the overlay displays them.`,
		Flags: []cli.Flag{
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

type decodedComment struct {
	Text       string           `json:"text"`
	Structured bool             `json:"structured"`
	Segments   comment.Segments `json:"segments"`
}

func (cmd *DecodeCmd) run(ctx context.Context, c *cli.Command) error {
	raw := strings.Join(c.Args().Slice(), " ")
	if raw == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = strings.TrimRight(string(b), "\n")
	}
	if raw == "" {
		return errors.New("payload is required")
	}

	text, err := comment.DecodeStrict(raw)
	structured := err == nil
	if !structured {
		text = comment.Decode(raw)
	}
	segs := comment.Parse(text)

	if cmd.asJSON {
		return iojson.Write(c.Root().Writer, decodedComment{Text: text, Structured: structured, Segments: segs})
	}

	p := printer.New(c.Root().Writer)
	if !structured {
		printer.Ctx(ctx).Warnf("not a comment object (%v); shown as plain text", err)
	}

	p.Section("Comment")
	printField(p, "icon", segs.Icon)
	printField(p, "color", segs.Color)
	printField(p, "stroke", segs.Stroke)
	for _, part := range segs.Body {
		switch part.Kind {
		case comment.PartInlineImage:
			p.Printf("  inline image: %s", part.Value)
		default:
			p.Printf("  text: %q", part.Value)
		}
	}
	for _, src := range segs.Images {
		p.Printf("  image: %s", src)
	}
	for _, src := range segs.Videos {
		p.Printf("  video: %s", src)
	}
	return nil
}

func printField(p *printer.Printer, name, value string) {
	if value != "" {
		p.Printf("  %s: %s", name, value)
	}
}
