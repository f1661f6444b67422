// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestTextFilename(t *testing.T) {
	got := TextFilename("openai", testTime)
	want := "chat_log_openai_20250314_092653.txt"
	if got != want {
		t.Errorf("TextFilename() = %q, want %q", got, want)
	}
}

func TestJSONFilename(t *testing.T) {
	got := JSONFilename(testTime)
	want := "chat_log_20250314_092653.json"
	if got != want {
		t.Errorf("JSONFilename() = %q, want %q", got, want)
	}
}

func TestSaveTextRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		"[09:26] You: hello",
		"OpenAI: hi there",
		"System: Context reset.",
	}

	path, err := SaveText(dir, "openai", lines, testTime)
	if err != nil {
		t.Fatalf("SaveText() error = %v", err)
	}
	if filepath.Base(path) != "chat_log_openai_20250314_092653.txt" {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	// Reading the file back yields exactly the rendered lines.
	got := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(got) != len(lines) {
		t.Fatalf("file has %d lines, want %d", len(got), len(lines))
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], lines[i])
		}
	}
}

func TestSaveTextEmptyTranscript(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveText(dir, "gemini", nil, testTime)
	if err != nil {
		t.Fatalf("SaveText() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Errorf("empty transcript wrote %d bytes", len(data))
	}
}

func TestSaveTextAs(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveTextAs(dir, "my notes", []string{"You: hi"})
	if err != nil {
		t.Fatalf("SaveTextAs() error = %v", err)
	}
	if filepath.Base(path) != "my_notes.txt" {
		t.Errorf("path base = %q, want my_notes.txt", filepath.Base(path))
	}

	// An explicit extension is kept.
	path, err = SaveTextAs(dir, "log.text", []string{"You: hi"})
	if err != nil {
		t.Fatalf("SaveTextAs() error = %v", err)
	}
	if filepath.Base(path) != "log.text" {
		t.Errorf("path base = %q, want log.text", filepath.Base(path))
	}
}

func TestSaveTextAsStripsPathSeparators(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveTextAs(dir, "../escape", []string{"You: hi"})
	if err != nil {
		t.Fatalf("SaveTextAs() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("file written outside target dir: %q", path)
	}
}

func TestSaveJSON(t *testing.T) {
	dir := t.TempDir()
	lines := []string{"You: q", "Gemini: a"}

	path, err := SaveJSON(dir, lines, testTime)
	if err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var got []string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(got) != 2 || got[0] != "You: q" || got[1] != "Gemini: a" {
		t.Errorf("decoded = %v", got)
	}
	if !strings.Contains(string(data), "\n  \"") {
		t.Error("output is not two-space indented")
	}
}

func TestSaveJSONEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveJSON(dir, nil, testTime)
	if err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty export = %q, want []", data)
	}
}

func TestDesktopDirNeverEmpty(t *testing.T) {
	if DesktopDir() == "" {
		t.Error("DesktopDir() returned empty string")
	}
}
