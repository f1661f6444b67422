// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"

	"github.com/jeranaias/duochat/internal/export"
	"github.com/jeranaias/duochat/internal/ingest"
	"github.com/jeranaias/duochat/internal/transcript"
)

// historyLimit is how many of the user's messages /history shows.
const historyLimit = 5

// summaryWindow is how many transcript lines feed /summary.
const summaryWindow = 10

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func handleSwitch(ctx *Context, args []string) Result {
	kind := ctx.Session.Switch()
	return Result{Message: fmt.Sprintf("Switched provider to %s.", kind)}
}

func handleReset(ctx *Context, args []string) Result {
	ctx.Session.Reset()
	return Result{Message: "Context reset."}
}

func handleStats(ctx *Context, args []string) Result {
	var users, assistants, systems int
	for _, e := range ctx.Transcript.Snapshot() {
		switch e.Role {
		case transcript.RoleUser:
			users++
		case transcript.RoleAssistant:
			assistants++
		default:
			systems++
		}
	}

	geminiState := "not started"
	if ctx.Session.HasHandle() {
		geminiState = "active"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Provider: %s\n", ctx.Session.Active())
	fmt.Fprintf(&b, "Transcript: %d lines (%d from you, %d replies, %d system)\n",
		ctx.Transcript.Len(), users, assistants, systems)
	fmt.Fprintf(&b, "OpenAI context: %d messages\n", ctx.Session.ContextLen())
	fmt.Fprintf(&b, "Gemini session: %s", geminiState)
	return Result{Message: b.String()}
}

// =============================================================================
// TRANSCRIPT COMMANDS
// =============================================================================

func handleClear(ctx *Context, args []string) Result {
	ctx.Transcript.Clear()
	return Result{Message: "Transcript cleared."}
}

func handleHistory(ctx *Context, args []string) Result {
	var mine []transcript.Entry
	for _, e := range ctx.Transcript.Snapshot() {
		if e.Role == transcript.RoleUser {
			mine = append(mine, e)
		}
	}
	if len(mine) == 0 {
		return Result{Message: "No messages from you yet."}
	}
	if len(mine) > historyLimit {
		mine = mine[len(mine)-historyLimit:]
	}

	var b strings.Builder
	b.WriteString("Your recent messages:")
	for i, e := range mine {
		fmt.Fprintf(&b, "\n%2d. %s", i+1, runewidth.Truncate(e.Text, 80, "..."))
	}
	return Result{Message: b.String()}
}

func handleCopyLast(ctx *Context, args []string) Result {
	entry, ok := lastAssistantEntry(ctx)
	if !ok {
		return Result{Message: "No assistant reply yet."}
	}
	return Result{Message: "Last reply:\n" + entry.Text}
}

// =============================================================================
// FILE COMMANDS
// =============================================================================

func handleSave(ctx *Context, args []string) Result {
	lines := ctx.Transcript.Lines()
	if len(lines) == 0 {
		return Result{Message: "Nothing to save."}
	}

	provider := ctx.Session.Active().Slug()
	path, err := export.SaveText(ctx.OutDir, provider, lines, ctx.clock())
	if err != nil {
		return Result{Message: fmt.Sprintf("❌ Failed to save chat log: %v", err)}
	}
	ctx.State.LastSavedFile = path
	return Result{Message: "Chat log saved to: " + path}
}

func handleSaveAs(ctx *Context, args []string) Result {
	lines := ctx.Transcript.Lines()
	if len(lines) == 0 {
		return Result{Message: "Nothing to save."}
	}

	name := strings.Join(args, " ")
	if name == "" {
		answer, ok := ctx.Prompt("Filename")
		if !ok {
			return Result{Message: "Cancelled."}
		}
		name = answer
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Message: "Cancelled."}
	}

	path, err := export.SaveTextAs(ctx.OutDir, name, lines)
	if err != nil {
		return Result{Message: fmt.Sprintf("❌ Failed to save chat log: %v", err)}
	}
	ctx.State.LastSavedFile = path
	return Result{Message: "Chat log saved to: " + path}
}

func handleDeleteFile(ctx *Context, args []string) Result {
	path := ctx.State.LastSavedFile
	if path == "" {
		return Result{Message: "Nothing to delete."}
	}
	if _, err := os.Stat(path); err != nil {
		// The file is already gone; forget about it.
		ctx.State.LastSavedFile = ""
		return Result{Message: "Nothing to delete."}
	}
	if err := os.Remove(path); err != nil {
		return Result{Message: fmt.Sprintf("❌ Failed to delete file: %v", err)}
	}
	ctx.State.LastSavedFile = ""
	return Result{Message: "Deleted: " + path}
}

func handleExport(ctx *Context, args []string) Result {
	path, err := export.SaveJSON(ctx.OutDir, ctx.Transcript.Lines(), ctx.clock())
	if err != nil {
		return Result{Message: fmt.Sprintf("❌ Failed to export transcript: %v", err)}
	}
	return Result{Message: "Exported transcript to: " + path}
}

func handleUpload(ctx *Context, args []string) Result {
	path := strings.Join(args, " ")
	if path == "" {
		answer, ok := ctx.Prompt("File path")
		if !ok {
			return Result{Message: "Cancelled."}
		}
		path = answer
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Message: "Cancelled."}
	}

	text, err := ctx.Ingest(path)
	switch {
	case errors.Is(err, ingest.ErrUnsupported):
		return Result{Message: "Unsupported file format. Only plain-text files can be uploaded."}
	case errors.Is(err, ingest.ErrEmpty):
		return Result{Message: "File is empty."}
	case err != nil:
		return Result{Message: fmt.Sprintf("❌ Failed to read file: %v", err)}
	}

	instruction, ok := ctx.Prompt("What should I do with this file?")
	if !ok || strings.TrimSpace(instruction) == "" {
		return Result{Message: "Cancelled."}
	}

	out := ctx.Send(instruction + "\n\n" + text)
	if !out.OK() {
		return Result{Message: out.Text()}
	}
	return Result{Message: out.Reply}
}

// =============================================================================
// TOOL COMMANDS
// =============================================================================

func handleSummary(ctx *Context, args []string) Result {
	entries := ctx.Transcript.Snapshot()
	if len(entries) < 4 {
		return Result{Message: "Not enough conversation to summarize."}
	}
	if len(entries) > summaryWindow {
		entries = entries[len(entries)-summaryWindow:]
	}

	var lines []string
	for _, e := range entries {
		lines = append(lines, e.Label+": "+e.Text)
	}

	prompt := "Summarize the following conversation in a few sentences:\n\n" +
		strings.Join(lines, "\n")
	out := ctx.Send(prompt)
	if !out.OK() {
		return Result{Message: out.Text()}
	}
	return Result{Message: "Summary:\n" + out.Reply}
}

func handleTranslate(ctx *Context, args []string) Result {
	lang := "en"
	if len(args) > 0 {
		lang = args[0]
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return Result{Message: fmt.Sprintf("Unknown language code: %s", lang)}
	}

	label := ctx.Session.Active().String()
	entry, ok := ctx.Transcript.LastMatching(func(e transcript.Entry) bool {
		return e.Role == transcript.RoleAssistant && e.Label == label
	})
	if !ok {
		return Result{Message: "No response to translate."}
	}

	prompt := fmt.Sprintf("Translate the following text to %s:\n\n%s", tag, entry.Text)
	out := ctx.Send(prompt)
	if !out.OK() {
		return Result{Message: out.Text()}
	}
	return Result{Message: fmt.Sprintf("Translation (%s):\n%s", tag, out.Reply)}
}

// =============================================================================
// SETTINGS COMMANDS
// =============================================================================

func handleTime(ctx *Context, args []string) Result {
	ctx.State.Timestamps = !ctx.State.Timestamps
	if ctx.State.Timestamps {
		return Result{Message: "Timestamps enabled."}
	}
	return Result{Message: "Timestamps disabled."}
}

func handleName(ctx *Context, args []string) Result {
	name := strings.Join(args, " ")
	if name == "" {
		answer, ok := ctx.Prompt("Display name")
		if !ok {
			return Result{Message: "Cancelled."}
		}
		name = answer
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Message: "Cancelled."}
	}

	ctx.State.DisplayName = name
	return Result{Message: fmt.Sprintf("Display name set to %s.", name)}
}

func handleTheme(ctx *Context, args []string) Result {
	if len(args) == 0 {
		return Result{Message: "Theme: " + ctx.State.Theme}
	}
	theme := strings.ToLower(args[0])
	switch theme {
	case "dark", "light", "auto":
		ctx.State.Theme = theme
		return Result{Message: "Theme set to " + theme + "."}
	default:
		return Result{Message: "Theme must be dark, light, or auto."}
	}
}

// =============================================================================
// GENERAL COMMANDS
// =============================================================================

func handleHelp(ctx *Context, args []string) Result {
	return Result{Message: helpText(ctx.Registry)}
}

func handleQuit(ctx *Context, args []string) Result {
	return Result{Quit: true}
}

// categoryOrder fixes the order categories appear in help output.
var categoryOrder = []string{"Session", "Transcript", "Files", "Tools", "Settings", "General"}

// helpText renders the command list grouped by category.
func helpText(r *Registry) string {
	if r == nil {
		return "No commands available."
	}

	byCategory := r.ByCategory()
	var b strings.Builder
	b.WriteString("Available commands:")
	for _, category := range categoryOrder {
		cmds := byCategory[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n%s:", category)
		for _, cmd := range cmds {
			name := cmd.Name
			if cmd.Usage != "" {
				name = cmd.Usage
			}
			fmt.Fprintf(&b, "\n  %-22s %s", name, cmd.Description)
			if len(cmd.Aliases) > 0 {
				fmt.Fprintf(&b, " (aliases: %s)", strings.Join(cmd.Aliases, ", "))
			}
		}
	}
	return b.String()
}

// lastAssistantEntry finds the newest assistant line in the transcript.
func lastAssistantEntry(ctx *Context) (transcript.Entry, bool) {
	return ctx.Transcript.LastMatching(func(e transcript.Entry) bool {
		return e.Role == transcript.RoleAssistant
	})
}
