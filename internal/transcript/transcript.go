// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the append-only record of everything shown
// in the chat: user turns, provider replies, and system notices. The
// transcript is display history only; it is never replayed to a
// provider as conversational context.
package transcript

import (
	"sync"

	"github.com/google/uuid"
)

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the role as a string.
func (r Role) String() string {
	return string(r)
}

// Entry is a single line of the visible chat log.
type Entry struct {
	ID        string
	Role      Role
	Label     string // display name: the user's name, the provider name, or "System"
	Timestamp string // pre-rendered "[HH:MM]" prefix, empty when timestamps are off
	Text      string
}

// NewEntry creates an entry with a generated ID.
func NewEntry(role Role, label, timestamp, text string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Role:      role,
		Label:     label,
		Timestamp: timestamp,
		Text:      text,
	}
}

// Line renders the entry the way it appears on screen and in saved
// logs: "[HH:MM] Label: Text", or "Label: Text" when the entry has no
// timestamp.
func (e Entry) Line() string {
	if e.Timestamp != "" {
		return e.Timestamp + " " + e.Label + ": " + e.Text
	}
	return e.Label + ": " + e.Text
}

// Store is an append-only collection of entries. Entries are never
// edited or removed individually; Clear is the only destructive
// operation and it empties the whole store.
type Store struct {
	mu      sync.Mutex
	entries []Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds an entry to the end of the transcript.
func (s *Store) Append(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// Snapshot returns a copy of all entries in insertion order.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lines returns every entry rendered via Line, in insertion order.
func (s *Store) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, len(s.entries))
	for i, e := range s.entries {
		lines[i] = e.Line()
	}
	return lines
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// LastMatching scans from newest to oldest and returns the first entry
// for which pred is true.
func (s *Store) LastMatching(pred func(Entry) bool) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if pred(s.entries[i]) {
			return s.entries[i], true
		}
	}
	return Entry{}, false
}
