// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"time"

	"github.com/jeranaias/duochat/internal/session"
	"github.com/jeranaias/duochat/internal/transcript"
)

// State is the mutable display state commands operate on. It lives
// for the whole run and is shared with the chat controller.
type State struct {
	// DisplayName labels the user's transcript lines.
	DisplayName string

	// Timestamps prefixes new transcript lines with "[HH:MM]" when true.
	Timestamps bool

	// Theme is the terminal rendering theme: "dark", "light", or "auto".
	Theme string

	// LastSavedFile is the path of the most recent save, for /deletefile.
	LastSavedFile string
}

// Context carries everything a command handler may need. The Prompt,
// Ingest, and Send funcs are injected so handlers stay testable
// without a terminal or network.
type Context struct {
	Session    *session.Session
	Transcript *transcript.Store
	State      *State

	// Registry backs /help. The dispatcher fills it in before
	// executing a command.
	Registry *Registry

	// OutDir is where save and export commands write files.
	OutDir string

	// Prompt asks the user a follow-up question. ok is false when the
	// user cancelled.
	Prompt func(question string) (answer string, ok bool)

	// Ingest reads a local file into prompt text.
	Ingest func(path string) (string, error)

	// Send delivers a derived prompt (summary, translation, upload)
	// through the active provider session without touching the
	// transcript.
	Send func(prompt string) session.Outcome

	// Now returns the current time. Injectable for tests.
	Now func() time.Time
}

// clock returns ctx.Now, defaulting to time.Now.
func (ctx *Context) clock() time.Time {
	if ctx.Now != nil {
		return ctx.Now()
	}
	return time.Now()
}

// Result is what a command execution produces.
type Result struct {
	// Message is displayed as a system notice. Empty means nothing to
	// show.
	Message string

	// Quit signals the application should exit.
	Quit bool
}
