// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat logs to disk: plain-text transcripts for
// the save commands and JSON for the export command. The default
// destination is the user's desktop, matching where people expect to
// find ad-hoc saved chats.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/duochat/internal/util"
)

// timestampLayout is used in generated filenames.
const timestampLayout = "20060102_150405"

// DesktopDir resolves the directory for saved chat logs. It prefers
// the user's desktop and falls back to the current working directory
// when no desktop exists (headless boxes, containers).
//
// On Windows, OneDrive commonly redirects the desktop, so the OneDrive
// location is checked before the plain one.
func DesktopDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	var candidates []string
	if runtime.GOOS == "windows" {
		candidates = []string{
			filepath.Join(home, "OneDrive", "Desktop"),
			filepath.Join(home, "Desktop"),
		}
	} else {
		candidates = []string{
			filepath.Join(home, "Desktop"),
		}
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// TextFilename builds the name for a plain-text chat log:
// chat_log_{provider}_{timestamp}.txt.
func TextFilename(provider string, t time.Time) string {
	return fmt.Sprintf("chat_log_%s_%s.txt", sanitizeFilename(provider), t.Format(timestampLayout))
}

// JSONFilename builds the name for a JSON export:
// chat_log_{timestamp}.json.
func JSONFilename(t time.Time) string {
	return fmt.Sprintf("chat_log_%s.json", t.Format(timestampLayout))
}

// SaveText writes the transcript lines as a plain-text file named
// after the provider and timestamp. Returns the full path written.
func SaveText(dir, provider string, lines []string, t time.Time) (string, error) {
	return SaveTextAs(dir, TextFilename(provider, t), lines)
}

// SaveTextAs writes the transcript lines under an explicit filename.
// A .txt extension is added when the name has no extension.
func SaveTextAs(dir, name string, lines []string) (string, error) {
	name = sanitizeFilename(name)
	if name == "" {
		return "", fmt.Errorf("empty filename")
	}
	if filepath.Ext(name) == "" {
		name += ".txt"
	}

	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := util.AtomicWriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write chat log: %w", err)
	}
	return path, nil
}

// SaveJSON writes the transcript lines as a JSON array of strings,
// indented with two spaces.
func SaveJSON(dir string, lines []string, t time.Time) (string, error) {
	if lines == nil {
		lines = []string{}
	}
	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal chat log: %w", err)
	}

	path := filepath.Join(dir, JSONFilename(t))
	if err := util.AtomicWriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write chat log: %w", err)
	}
	return path, nil
}

// sanitizeFilename replaces characters that are invalid in filenames
// on Windows or Unix. Path separators become dashes so a crafted name
// cannot escape the target directory.
func sanitizeFilename(s string) string {
	s = util.TruncateRunesNoEllipsis(strings.TrimSpace(s), 80)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	var result []rune
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}
	return strings.Trim(string(result), ".")
}
