// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help
	Description string

	// Usage shows argument syntax (e.g., "/translate [lang]")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) Result

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Description explains the argument
	Description string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias. Lookup is
// case-insensitive.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Names returns all primary command names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Session commands
	r.Register(&Command{
		Name:        "/switch",
		Aliases:     []string{"/sw"},
		Description: "Switch between OpenAI and Gemini",
		Category:    "Session",
		Handler:     handleSwitch,
	})

	r.Register(&Command{
		Name:        "/reset",
		Description: "Reset conversational context for both providers",
		Category:    "Session",
		Handler:     handleReset,
	})

	r.Register(&Command{
		Name:        "/stats",
		Description: "Show session statistics",
		Category:    "Session",
		Handler:     handleStats,
	})

	// Transcript commands
	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the visible transcript",
		Category:    "Transcript",
		Handler:     handleClear,
	})

	r.Register(&Command{
		Name:        "/history",
		Description: "Show your recent messages",
		Category:    "Transcript",
		Handler:     handleHistory,
	})

	r.Register(&Command{
		Name:        "/copylast",
		Description: "Show the most recent assistant reply",
		Category:    "Transcript",
		Handler:     handleCopyLast,
	})

	// File commands
	r.Register(&Command{
		Name:        "/save",
		Aliases:     []string{"/s"},
		Description: "Save the chat log to the desktop",
		Category:    "Files",
		Handler:     handleSave,
	})

	r.Register(&Command{
		Name:        "/saveas",
		Description: "Save the chat log under a chosen filename",
		Category:    "Files",
		Handler:     handleSaveAs,
	})

	r.Register(&Command{
		Name:        "/deletefile",
		Description: "Delete the most recently saved chat log",
		Category:    "Files",
		Handler:     handleDeleteFile,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export the transcript as JSON",
		Category:    "Files",
		Handler:     handleExport,
	})

	r.Register(&Command{
		Name:        "/upload",
		Description: "Send a local text file to the assistant",
		Usage:       "/upload [path]",
		Args: []ArgDef{
			{Name: "path", Description: "File to upload"},
		},
		Category: "Tools",
		Handler:  handleUpload,
	})

	// Tool commands
	r.Register(&Command{
		Name:        "/summary",
		Description: "Summarize the conversation so far",
		Category:    "Tools",
		Handler:     handleSummary,
	})

	r.Register(&Command{
		Name:        "/translate",
		Description: "Translate the last assistant reply",
		Usage:       "/translate [lang]",
		Args: []ArgDef{
			{Name: "lang", Description: "Target language code (default: en)"},
		},
		Category: "Tools",
		Handler:  handleTranslate,
	})

	// Settings commands
	r.Register(&Command{
		Name:        "/time",
		Description: "Toggle timestamps on transcript lines",
		Category:    "Settings",
		Handler:     handleTime,
	})

	r.Register(&Command{
		Name:        "/name",
		Description: "Change your display name",
		Usage:       "/name [name]",
		Args: []ArgDef{
			{Name: "name", Description: "New display name"},
		},
		Category: "Settings",
		Handler:  handleName,
	})

	r.Register(&Command{
		Name:        "/theme",
		Description: "Show or set the rendering theme",
		Usage:       "/theme [dark|light|auto]",
		Args: []ArgDef{
			{Name: "theme", Description: "Theme name"},
		},
		Category: "Settings",
		Handler:  handleTheme,
	})

	// General commands
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Category:    "General",
		Handler:     handleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit duochat",
		Category:    "General",
		Handler:     handleQuit,
	})
}
