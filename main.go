// duochat - a dual-provider terminal chat client.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/duochat/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--version", "-v", "version":
			fmt.Printf("duochat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`duochat - dual-provider terminal chat client

Usage:
  duochat            Start an interactive chat session
  duochat --version  Print version information

Configuration lives in ~/.duochat/config.toml. API keys can also be
provided via the OPENAI_API_KEY and GOOGLE_API_KEY environment
variables. Type /help inside the session for the command list.`)
}
