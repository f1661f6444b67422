// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
)

// Dispatcher routes slash input lines to command handlers.
type Dispatcher struct {
	registry *Registry
	parser   *Parser
}

// NewDispatcher creates a dispatcher over a fresh builtin registry.
func NewDispatcher() *Dispatcher {
	registry := NewRegistry()
	return &Dispatcher{
		registry: registry,
		parser:   NewParser(registry),
	}
}

// Registry exposes the underlying registry, mainly for help rendering
// and tests.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch executes one slash input line. The input must already be
// identified as a command (leading "/"); a bare "/" lists the
// available commands.
func (d *Dispatcher) Dispatch(ctx *Context, input string) Result {
	ctx.Registry = d.registry

	parsed := d.parser.Parse(input)
	if !parsed.IsCommand {
		return Result{}
	}

	if parsed.CommandName == "" || parsed.CommandName == "/" {
		return Result{Message: helpText(d.registry)}
	}

	cmd := parsed.Command
	if cmd == nil {
		return d.unknown(parsed.CommandName)
	}

	if err := ValidateArgs(cmd, parsed.Args); err != nil {
		msg := err.Error()
		if cmd.Usage != "" {
			msg += "\nUsage: " + cmd.Usage
		}
		return Result{Message: msg}
	}

	return cmd.Handler(ctx, parsed.Args)
}

// unknown builds the unknown-command notice. Suggestions come from a
// prefix search over the registered command names, so "/sa" offers
// "/save, /saveas".
func (d *Dispatcher) unknown(name string) Result {
	var matches []string
	for _, candidate := range d.registry.Names() {
		if strings.HasPrefix(candidate, name) {
			matches = append(matches, candidate)
		}
	}

	if len(matches) > 0 {
		return Result{Message: fmt.Sprintf("Unknown command: %s. Did you mean: %s?",
			name, strings.Join(matches, ", "))}
	}
	return Result{Message: fmt.Sprintf("Unknown command: %s. Type /help for a list of commands.", name)}
}
