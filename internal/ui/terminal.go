package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/Iron-Ham/weft/internal/event"
	"github.com/Iron-Ham/weft/internal/logging"
)

// ColorMode selects when the terminal renderer uses colors.
type ColorMode string

// Color modes.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// TerminalOptions configure a Terminal.
type TerminalOptions struct {
	// Verbose prints debug lines reported by running steps.
	Verbose bool
	// Color selects color output. The zero value means ColorAuto.
	Color ColorMode
	// SeparatorWidth is the width of the separator rule. Defaults to 40.
	SeparatorWidth int
	// Width truncates longer lines. Zero uses the terminal width when the
	// writer is a terminal; a negative width disables truncation.
	Width int
}

// Terminal renders a build as a stream of lines.
type Terminal struct {
	w    io.Writer
	opts TerminalOptions
}

// NewTerminal creates a terminal UI writing to w.
func NewTerminal(w io.Writer, opts TerminalOptions) *Terminal {
	if opts.Color == "" {
		opts.Color = ColorAuto
	}
	if opts.SeparatorWidth <= 0 {
		opts.SeparatorWidth = 40
	}
	return &Terminal{w: w, opts: opts}
}

// Run opens a session whose events are rendered to the terminal writer.
func (t *Terminal) Run(ctx context.Context, fn func(ctx context.Context, r Runner) error) error {
	bus := event.NewBus(logging.FromContext(ctx))
	opts := t.opts
	if opts.Width == 0 {
		opts.Width = terminalWidth(t.w)
	}
	renderer := newLineRenderer(t.w, opts, useColor(t.w, opts.Color))
	id := bus.SubscribeAll(renderer.handle)
	defer bus.Unsubscribe(id)

	return fn(ctx, NewSession(bus))
}

// useColor resolves a color mode against the writer.
func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the column count of w, or 0 when w is not a
// terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// truncate shortens s to width visible columns. Escape sequences do not
// count towards the width and are preserved.
func truncate(s string, width int) string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// lineRenderer turns events into lines. Events arrive from concurrently
// running steps, so writes are serialized.
type lineRenderer struct {
	mu     sync.Mutex
	w      io.Writer
	opts   TerminalOptions
	styles styles
}

func newLineRenderer(w io.Writer, opts TerminalOptions, color bool) *lineRenderer {
	r := lipgloss.NewRenderer(w)
	return &lineRenderer{w: w, opts: opts, styles: newStyles(r, color)}
}

func (r *lineRenderer) handle(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev := e.(type) {
	case event.BuildEvent:
		r.build(ev)
	case event.GroupEvent:
		r.group(ev)
	case event.StepStartedEvent:
		r.line(ev.StepRef, r.styles.running.Render("▸ "+ev.Label))
	case event.StepSkippedEvent:
		r.line(ev.StepRef, r.styles.skipped.Render("○ skipped "+ev.Label))
	case event.StepCompletedEvent:
		r.line(ev.StepRef, r.styles.success.Render(fmt.Sprintf("✓ %s (%s)", ev.Label, formatDuration(ev.Duration))))
	case event.StepFailedEvent:
		r.line(ev.StepRef, r.styles.failure.Render(fmt.Sprintf("✗ %s (%s)", ev.Label, formatDuration(ev.Duration))))
		r.line(ev.StepRef, r.styles.failure.Render("  "+ev.Err.Error()))
	case event.StepLogEvent:
		r.log(ev)
	}
}

func (r *lineRenderer) build(ev event.BuildEvent) {
	switch ev.EventType() {
	case event.TypeBuildTitle:
		r.println(r.styles.title.Render(ev.Text))
	case event.TypeBuildSeparator:
		r.println(r.styles.separator.Render(strings.Repeat("─", r.opts.SeparatorWidth)))
	case event.TypeBuildEpilogue:
		r.println(r.styles.epilogue.Render("✔ " + ev.Text))
	}
}

func (r *lineRenderer) group(ev event.GroupEvent) {
	switch ev.EventType() {
	case event.TypeGroupStarted:
		r.println(r.styles.group.Render(ev.ID))
	case event.TypeGroupSkipped:
		r.println(r.styles.skipped.Render(fmt.Sprintf("○ skipped %s", ev.ID)))
	}
}

func (r *lineRenderer) log(ev event.StepLogEvent) {
	switch ev.Level {
	case "debug":
		if !r.opts.Verbose {
			return
		}
		r.line(ev.StepRef, r.styles.debug.Render("  · "+ev.Message))
	case "warn":
		r.line(ev.StepRef, r.styles.warn.Render("  ! "+ev.Message))
	case "error":
		r.line(ev.StepRef, r.styles.failure.Render("  ! "+ev.Message))
	default:
		r.line(ev.StepRef, "  "+ev.Message)
	}
}

// line prints a step line, prefixed with the phase outside project groups.
func (r *lineRenderer) line(ref event.StepRef, text string) {
	if ref.Phase == event.PhaseSteps {
		r.println("  " + text)
		return
	}
	r.println(fmt.Sprintf("%-5s %s", ref.Phase, text))
}

func (r *lineRenderer) println(s string) {
	fmt.Fprintln(r.w, truncate(s, r.opts.Width))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
