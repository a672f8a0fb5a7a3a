package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	initcmd "github.com/colonyops/danmaku/internal/commands/init"
	"github.com/colonyops/danmaku/internal/core/styles"
)

type DocCmd struct {
	flags *Flags
	plain bool
}

func NewDocCmd(flags *Flags) *DocCmd {
	return &DocCmd{flags: flags}
}

func (cmd *DocCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "doc",
		Usage: "Reference documentation",
		Description: `Access reference documentation for danmaku.

Use 'danmaku doc wire-format' to see the payload format accepted by feeds.
Use 'danmaku doc config' to print a configuration file with every default.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "plain",
				Usage:       "print raw markdown instead of rendering it",
				Destination: &cmd.plain,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "wire-format",
				Usage:  "Show the feed payload format",
				Action: cmd.runWireFormat,
			},
			{
				Name:   "config",
				Usage:  "Print the default configuration",
				Action: cmd.runConfig,
			},
		},
	})
	return app
}

func (cmd *DocCmd) runWireFormat(_ context.Context, c *cli.Command) error {
	return cmd.render(c.Root().Writer, wireFormatGuide)
}

func (cmd *DocCmd) runConfig(_ context.Context, c *cli.Command) error {
	content, err := initcmd.GenerateConfig(initcmd.DefaultConfigOptions())
	if err != nil {
		return err
	}
	_, err = c.Root().Writer.Write(content)
	return err
}

// render writes markdown through glamour unless --plain is set.
func (cmd *DocCmd) render(w io.Writer, markdown string) error {
	if cmd.plain {
		_, err := io.WriteString(w, markdown)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("render guide: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

const wireFormatGuide = `# Danmaku Feed Payloads

Every feed delivers one payload per message: one TCP connection or one MQTT
publish. A payload is either plain text or a JSON object.

## Plain Text

Anything that is not a JSON object is shown verbatim:

` + "```bash" + `
printf 'hello world' | nc localhost 2525
danmaku send "hello world"
` + "```" + `

## Structured Payloads

` + "```json" + `
{
  "text": "nice ##INLINE## shot",
  "icon": "https://example.com/avatar.png",
  "color": "#ff8800",
  "textStroke": "#000000",
  "inlineImages": ["https://example.com/emoji.png"],
  "images": ["https://example.com/photo.jpg"],
  "videos": ["https://example.com/clip.mp4"]
}
` + "```" + `

| Field          | Type     | Notes                                   |
|----------------|----------|-----------------------------------------|
| text           | string   | required                                |
| icon           | string   | shown before the text                   |
| color          | string   | CSS color of the text                   |
| textStroke     | string   | CSS color of the outline                |
| inlineImages   | string[] | replace ` + "`##INLINE##`" + ` placeholders left to right |
| images         | string[] | shown below the text                    |
| videos         | string[] | shown below the images                  |

A JSON object without a string ` + "`text`" + ` field, or with a field of the
wrong type, is shown as plain text.

## Flattened Text

Decoded payloads are flattened into a single string delimited by reserved
tokens. These tokens are never escaped:

- ` + "`##ICON##`" + `, ` + "`##COLOR##`" + `, ` + "`##STROKE##`" + ` end the leading fields
- ` + "`##INLINE_IMG##`" + ` surrounds each inline image source
- ` + "`##IMG##`" + ` and ` + "`##VIDEO##`" + ` precede each trailing media source

Inspect how a payload decodes with:

` + "```bash" + `
danmaku decode '{"text":"hi","color":"red"}'
` + "```" + `
`
