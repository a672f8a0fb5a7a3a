package initcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/core/styles"
	"github.com/colonyops/danmaku/internal/core/validate"
	"github.com/colonyops/danmaku/internal/printer"
)

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	ConfigPath string
	DataDir    string
	Yes        bool // skip prompts, use defaults
	Force      bool // overwrite existing config
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	return &Wizard{opts: opts}
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	p := printer.Ctx(ctx)

	// Check for existing config
	if _, err := os.Stat(w.opts.ConfigPath); err == nil && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", w.opts.ConfigPath)
		}

		var overwrite bool
		err := huh.NewConfirm().
			Title("Config file already exists").
			Description(w.opts.ConfigPath + "\nOverwrite? (a backup will be created)").
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			p.Infof("Init cancelled")
			return nil
		}
	}

	opts := DefaultConfigOptions()
	if !w.opts.Yes {
		var err error
		if opts, err = w.promptUser(opts); err != nil {
			return err
		}
	}

	content, err := GenerateConfig(opts)
	if err != nil {
		return err
	}

	backupPath, err := ReplaceConfig(content, w.opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if backupPath != "" {
		p.Successf("Backed up config to: %s", backupPath)
	}
	p.Successf("Created config: %s", w.opts.ConfigPath)

	// Check the file loads the way 'danmaku run' will read it
	cfg, err := config.Load(w.opts.ConfigPath, w.opts.DataDir)
	if err != nil {
		return fmt.Errorf("generated config does not load: %w", err)
	}
	if err := cfg.ValidateDeep(w.opts.ConfigPath); err != nil {
		p.Warnf("Configuration has problems: %v", err)
	} else {
		p.Successf("Configuration is valid")
	}

	w.printNextSteps(p, opts)
	return nil
}

func (w *Wizard) promptUser(opts ConfigOptions) (ConfigOptions, error) {
	duration := strconv.Itoa(opts.DurationMs)
	port := strconv.Itoa(opts.TCPPort)
	mode := string(opts.WindowMode)
	theme := opts.Theme
	broker := opts.MQTTBroker
	topics := strings.Join(opts.MQTTTopics, ", ")

	themeOptions := make([]huh.Option[string], 0, len(styles.ThemeNames()))
	for _, name := range styles.ThemeNames() {
		themeOptions = append(themeOptions, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Scroll duration (ms)").
				Description("Time a comment takes to cross one display").
				Value(&duration).
				Validate(positiveInt),
			huh.NewSelect[string]().
				Title("Window mode").
				Description("auto uses one window when all displays share a size").
				Options(
					huh.NewOption("auto", string(display.ModeAuto)),
					huh.NewOption("single", string(display.ModeSingle)),
					huh.NewOption("multi", string(display.ModeMulti)),
				).
				Value(&mode),
			huh.NewSelect[string]().
				Title("Preview theme").
				Options(themeOptions...).
				Value(&theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("TCP feed port").
				Description("0 disables the TCP feed").
				Value(&port).
				Validate(portNumber),
			huh.NewInput().
				Title("MQTT broker").
				Description("e.g. tcp://localhost:1883; leave empty to disable").
				Value(&broker),
			huh.NewInput().
				Title("MQTT topics").
				Description("Comma-separated topic filters").
				Value(&topics).
				Validate(topicList),
		),
	)
	if err := form.Run(); err != nil {
		return opts, err
	}

	opts.DurationMs, _ = strconv.Atoi(strings.TrimSpace(duration))
	opts.TCPPort, _ = strconv.Atoi(strings.TrimSpace(port))
	opts.WindowMode = display.Mode(mode)
	opts.Theme = theme
	opts.MQTTBroker = strings.TrimSpace(broker)
	opts.MQTTTopics = splitList(topics)
	return opts, nil
}

func (w *Wizard) printNextSteps(p *printer.Printer, opts ConfigOptions) {
	p.Printf("")
	p.Section("Next Steps")

	step := 1
	p.Printf("  %d. Edit the displays list in %s to match your screens", step, w.opts.ConfigPath)
	step++
	p.Printf("  %d. Run 'danmaku layout' to check the window plan", step)
	step++
	p.Printf("  %d. Run 'danmaku run' to start the overlay", step)
	step++
	if opts.TCPPort > 0 {
		p.Printf("  %d. Run 'danmaku send hello' to post a test comment", step)
	}
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a number")
	}
	return validate.Positive(n)
}

// portNumber accepts 0, which disables the feed.
func portNumber(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a number")
	}
	if n == 0 {
		return nil
	}
	return validate.Port(n)
}

func topicList(s string) error {
	for _, topic := range splitList(s) {
		if err := validate.TopicFilter(topic); err != nil {
			return err
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
