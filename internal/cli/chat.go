// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - the interactive chat loop.
//
// Reads lines with history support, routes them through the chat
// controller, and renders whatever the controller appended to the
// transcript. On exit the transcript is saved to the desktop, the
// same place /save writes to.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/duochat/internal/chat"
	"github.com/jeranaias/duochat/internal/commands"
	"github.com/jeranaias/duochat/internal/config"
	"github.com/jeranaias/duochat/internal/export"
	"github.com/jeranaias/duochat/internal/gemini"
	"github.com/jeranaias/duochat/internal/ingest"
	"github.com/jeranaias/duochat/internal/openai"
	"github.com/jeranaias/duochat/internal/session"
	"github.com/jeranaias/duochat/internal/transcript"
)

// Version information (set at build time via main).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Run starts the interactive chat session and blocks until the user
// exits.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second

	openaiClient := openai.NewClient(cfg.OpenAI.APIKey).WithTimeout(timeout)
	openaiClient.SetModel(cfg.OpenAI.Model)
	if cfg.OpenAI.BaseURL != "" {
		openaiClient.WithBaseURL(cfg.OpenAI.BaseURL)
	}

	geminiClient := gemini.NewClient(cfg.Gemini.APIKey).WithTimeout(timeout)
	geminiClient.SetModel(cfg.Gemini.Model)
	if cfg.Gemini.BaseURL != "" {
		geminiClient.WithBaseURL(cfg.Gemini.BaseURL)
	}

	if !openaiClient.IsConfigured() && !geminiClient.IsConfigured() {
		fmt.Fprintln(os.Stderr, errorStyle.Render(
			"No API keys configured. Set OPENAI_API_KEY or GOOGLE_API_KEY, or edit ~/.duochat/config.toml."))
	}

	sess := session.New(openaiClient, geminiClient)
	store := transcript.NewStore()
	state := &commands.State{
		DisplayName: cfg.DisplayName,
		Timestamps:  cfg.Timestamps,
		Theme:       cfg.Theme,
	}

	input := NewChatCLI()
	defer input.Close()

	initRenderer(state.Theme)

	ctrl := chat.NewController(sess, store, state, chat.Options{
		Timeout: timeout,
		OutDir:  export.DesktopDir(),
		Prompt:  input.Ask,
		Ingest:  ingest.Extract,
	})

	startTime := time.Now()
	printWelcome(sess)

	for {
		raw, err := input.ReadInput(promptStyle.Render("duochat> "))
		if err != nil {
			// Ctrl+C or Ctrl+D: exit gracefully.
			fmt.Println()
			return finish(sess, store, startTime)
		}

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit") {
			return finish(sess, store, startTime)
		}

		prevTheme := state.Theme
		reply := ctrl.Submit(raw)
		for _, entry := range reply.Entries {
			printEntry(entry)
		}
		if state.Theme != prevTheme {
			initRenderer(state.Theme)
		}
		if reply.Quit {
			return finish(sess, store, startTime)
		}
	}
}

// finish saves the transcript and prints the exit summary.
func finish(sess *session.Session, store *transcript.Store, startTime time.Time) error {
	if store.Len() > 0 {
		path, err := export.SaveText(export.DesktopDir(), sess.Active().Slug(), store.Lines(), time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Failed to save chat log:"), err)
		} else {
			fmt.Println(infoStyle.Render("Chat log saved to: " + path))
		}
	}
	printExitSummary(store, startTime)
	return nil
}

// printWelcome prints the startup banner.
func printWelcome(sess *session.Session) {
	fmt.Println(welcomeStyle.Render("duochat " + Version))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Provider: %s. Type /help for commands, /quit to exit.", sess.Active())))
	fmt.Println()
}

// printExitSummary prints a short session summary.
func printExitSummary(store *transcript.Store, startTime time.Time) {
	duration := time.Since(startTime).Round(time.Second)
	fmt.Println(infoStyle.Render(fmt.Sprintf("Session ended after %s with %d transcript lines. Goodbye!",
		duration, store.Len())))
}
