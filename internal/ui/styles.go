package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#A78BFA") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#F87171") // Red
	mutedColor     = lipgloss.Color("#9CA3AF") // Gray
	borderColor    = lipgloss.Color("#6B7280") // Gray
)

// styles are the lipgloss styles used by the terminal renderer.
type styles struct {
	title     lipgloss.Style
	separator lipgloss.Style
	group     lipgloss.Style
	running   lipgloss.Style
	success   lipgloss.Style
	failure   lipgloss.Style
	skipped   lipgloss.Style
	debug     lipgloss.Style
	warn      lipgloss.Style
	epilogue  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	if !color {
		plain := r.NewStyle()
		return styles{
			title: plain, separator: plain, group: plain, running: plain,
			success: plain, failure: plain, skipped: plain, debug: plain,
			warn: plain, epilogue: plain,
		}
	}
	return styles{
		title:     r.NewStyle().Bold(true).Foreground(primaryColor),
		separator: r.NewStyle().Foreground(borderColor),
		group:     r.NewStyle().Bold(true).Foreground(primaryColor),
		running:   r.NewStyle().Foreground(primaryColor),
		success:   r.NewStyle().Foreground(secondaryColor),
		failure:   r.NewStyle().Bold(true).Foreground(errorColor),
		skipped:   r.NewStyle().Foreground(mutedColor).Italic(true),
		debug:     r.NewStyle().Foreground(mutedColor),
		warn:      r.NewStyle().Foreground(warningColor),
		epilogue:  r.NewStyle().Bold(true).Foreground(secondaryColor),
	}
}
