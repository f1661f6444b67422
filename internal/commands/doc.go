// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system: a registry of
// named commands, a quote-aware argument parser, and a dispatcher that
// routes "/..." input lines to handlers.
//
// Handlers are synchronous and UI-free. Each receives a Context with
// the session, the transcript, mutable display state, and capability
// funcs for prompting the user and reading files, and returns a Result
// whose Message is shown as a system notice.
package commands
