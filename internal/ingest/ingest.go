// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest reads local files into prompt text for the upload
// command. Only plain-text formats are supported; binary document
// formats are rejected rather than garbled.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/duochat/internal/util"
)

// MaxPromptChars caps how much file content is forwarded to a
// provider. Anything beyond the cap is silently dropped.
const MaxPromptChars = 3000

var (
	// ErrUnsupported indicates the file format cannot be ingested.
	ErrUnsupported = errors.New("unsupported file format")

	// ErrEmpty indicates the file contained no usable text.
	ErrEmpty = errors.New("file is empty")
)

// textExtensions lists the formats read verbatim.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".log":  true,
	".json": true,
}

// binaryExtensions lists formats we recognize but refuse, so the user
// gets a clear message instead of mojibake.
var binaryExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".xlsx": true,
}

// Supported reports whether Extract can handle the file.
func Supported(path string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(path))]
}

// Extract reads the file and returns at most MaxPromptChars of its
// content.
func Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if binaryExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if !textExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrEmpty
	}
	return util.TruncateRunesNoEllipsis(text, MaxPromptChars), nil
}
