// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/duochat/internal/transcript"
	"github.com/jeranaias/duochat/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(styles.Purple).
				Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	timestampStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders assistant replies. Nil when initialization
// failed; output falls back to plain text.
var markdownRenderer *glamour.TermRenderer

// initRenderer builds the glamour renderer for the resolved theme.
func initRenderer(theme string) {
	wrap := GetTerminalWidth()
	if wrap > 100 {
		wrap = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(resolveTheme(theme)),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		markdownRenderer = nil
		return
	}
	markdownRenderer = r
}

// renderMarkdown renders markdown for terminal display, returning the
// input unchanged when rendering is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// =============================================================================
// ENTRY DISPLAY
// =============================================================================

// printEntry displays one transcript entry. Piped output gets the
// plain Line() form so logs stay grep-friendly.
func printEntry(e transcript.Entry) {
	if !IsStdoutTTY() {
		fmt.Println(e.Line())
		return
	}

	prefix := ""
	if e.Timestamp != "" {
		prefix = timestampStyle.Render(e.Timestamp) + " "
	}

	switch e.Role {
	case transcript.RoleUser:
		fmt.Printf("%s%s %s\n", prefix, userLabelStyle.Render(e.Label+":"), e.Text)
	case transcript.RoleAssistant:
		fmt.Printf("%s%s\n%s", prefix, assistantLabelStyle.Render(e.Label+":"), renderMarkdown(e.Text))
	default:
		fmt.Printf("%s%s\n", prefix, systemStyle.Render(e.Label+": "+e.Text))
	}
}
