// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversational state for both providers and
// hides their opposite state models behind one Send call.
//
// OpenAI is stateless on the server, so the session keeps the full
// message context locally (a system primer plus every user and
// assistant turn) and resends all of it on each call. Gemini is
// stateful on the server, so the session keeps only an opaque handle,
// created lazily on the first Gemini send and reused until Reset.
//
// Send never rolls back local state on failure: a user turn appended
// to the OpenAI context stays there even when the request errors.
// Failures surface as Outcome values with fixed user-facing text, not
// as Go errors.
package session
