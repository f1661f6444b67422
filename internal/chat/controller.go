// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat wires the transcript, the provider session, and the
// command dispatcher into one controller. The controller owns the
// input lifecycle: classify each line as command or message, log user
// turns before sending, and log the reply or error after.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/duochat/internal/commands"
	"github.com/jeranaias/duochat/internal/session"
	"github.com/jeranaias/duochat/internal/transcript"
)

// systemLabel labels system notices in the transcript.
const systemLabel = "System"

// timestampLayout renders transcript timestamps.
const timestampLayout = "[15:04]"

// busyNotice is shown when input arrives while a send is in flight.
const busyNotice = "Still waiting for a reply. Please hold on."

// Options configures a Controller.
type Options struct {
	// Timeout bounds each provider call. Zero means no timeout.
	Timeout time.Duration

	// OutDir is where save and export commands write. Empty means the
	// desktop resolution inside the export package is used by the
	// caller.
	OutDir string

	// Prompt asks the user a follow-up question (for /saveas, /name,
	// /upload). A nil Prompt always cancels.
	Prompt func(question string) (string, bool)

	// Ingest reads a local file for /upload. A nil Ingest rejects.
	Ingest func(path string) (string, error)

	// Now is the clock, injectable for tests.
	Now func() time.Time
}

// Reply is what one submitted input line produced: the transcript
// entries appended by it, in order, plus the quit flag.
type Reply struct {
	Entries []transcript.Entry
	Quit    bool
}

// Controller serializes all conversation activity. It is Idle or
// Busy; message sends happen only from Idle, and input submitted
// while Busy is rejected with a notice instead of being queued.
type Controller struct {
	mu   sync.Mutex
	busy bool

	session    *session.Session
	transcript *transcript.Store
	dispatcher *commands.Dispatcher
	state      *commands.State
	opts       Options
}

// NewController creates a controller around an existing session,
// transcript, and display state.
func NewController(sess *session.Session, store *transcript.Store, state *commands.State, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Prompt == nil {
		opts.Prompt = func(string) (string, bool) { return "", false }
	}
	if opts.Ingest == nil {
		opts.Ingest = func(string) (string, error) { return "", context.Canceled }
	}
	return &Controller{
		session:    sess,
		transcript: store,
		dispatcher: commands.NewDispatcher(),
		state:      state,
		opts:       opts,
	}
}

// State exposes the shared display state.
func (c *Controller) State() *commands.State {
	return c.state
}

// Busy reports whether a provider call is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Submit processes one input line. Blank input is ignored. Lines
// starting with "/" dispatch as commands; everything else goes to the
// active provider as a chat message.
func (c *Controller) Submit(input string) Reply {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}
	}

	if strings.HasPrefix(input, "/") {
		return c.submitCommand(input)
	}
	return c.submitMessage(input)
}

// submitCommand dispatches a slash command. Commands run even while a
// send would be rejected, but they never overlap one: the dispatcher
// itself runs under Idle because Submit is the only entry point.
func (c *Controller) submitCommand(input string) Reply {
	cmdCtx := &commands.Context{
		Session:    c.session,
		Transcript: c.transcript,
		State:      c.state,
		OutDir:     c.opts.OutDir,
		Prompt:     c.opts.Prompt,
		Ingest:     c.opts.Ingest,
		Send:       c.sendViaSession,
		Now:        c.opts.Now,
	}

	res := c.dispatcher.Dispatch(cmdCtx, input)

	var entries []transcript.Entry
	if res.Message != "" {
		entries = append(entries, c.appendSystem(res.Message))
	}
	return Reply{Entries: entries, Quit: res.Quit}
}

// submitMessage logs the user turn, sends it to the active provider,
// and logs the reply or the error text. The user turn is appended
// before the send so it is on record even when the provider fails.
func (c *Controller) submitMessage(text string) Reply {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Reply{Entries: []transcript.Entry{c.appendSystem(busyNotice)}}
	}
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	userEntry := transcript.NewEntry(transcript.RoleUser, c.state.DisplayName, c.timestamp(), text)
	c.transcript.Append(userEntry)

	out := c.sendViaSession(text)

	var replyEntry transcript.Entry
	if out.OK() {
		replyEntry = transcript.NewEntry(transcript.RoleAssistant, out.Provider.String(), c.timestamp(), out.Reply)
	} else {
		replyEntry = transcript.NewEntry(transcript.RoleSystem, out.Provider.String(), c.timestamp(), out.Message)
	}
	c.transcript.Append(replyEntry)

	return Reply{Entries: []transcript.Entry{userEntry, replyEntry}}
}

// sendViaSession performs one provider call under the configured
// timeout. Also handed to command handlers for derived prompts
// (summary, translate, upload), which bypass the transcript.
func (c *Controller) sendViaSession(prompt string) session.Outcome {
	ctx := context.Background()
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	return c.session.Send(ctx, prompt)
}

// appendSystem logs a system notice and returns the entry.
func (c *Controller) appendSystem(text string) transcript.Entry {
	entry := transcript.NewEntry(transcript.RoleSystem, systemLabel, c.timestamp(), text)
	c.transcript.Append(entry)
	return entry
}

// timestamp renders the "[HH:MM]" prefix, or "" when timestamps are
// disabled.
func (c *Controller) timestamp() string {
	if !c.state.Timestamps {
		return ""
	}
	return c.opts.Now().Format(timestampLayout)
}
