// Package printer writes styled status lines for CLI commands.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/colonyops/danmaku/internal/core/styles"
)

type ctxKey struct{}

// Printer writes human-oriented output.
type Printer struct {
	w io.Writer
}

// New creates a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewContext stores p in ctx.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one writing to stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return New(os.Stderr)
}

func (p *Printer) line(prefix string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if prefix != "" {
		msg = prefix + " " + msg
	}
	_, _ = fmt.Fprintln(p.w, msg)
}

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	p.line("", format, args...)
}

// Section writes a header line.
func (p *Printer) Section(title string) {
	_, _ = fmt.Fprintln(p.w, styles.HeaderStyle.Render(title))
	_, _ = fmt.Fprintln(p.w, styles.MutedStyle.Render(strings.Repeat("─", len([]rune(title)))))
}

// Successf writes a success line.
func (p *Printer) Successf(format string, args ...any) {
	p.line(styles.SuccessStyle.Render("✔"), format, args...)
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, args ...any) {
	p.line(styles.InfoStyle.Render("•"), format, args...)
}

// Warnf writes a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	p.line(styles.WarnStyle.Render("!"), format, args...)
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(styles.ErrorStyle.Render("✘"), format, args...)
}
