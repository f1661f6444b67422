// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jeranaias/duochat/internal/gemini"
	"github.com/jeranaias/duochat/internal/openai"
)

// stubCompleter fakes the stateless OpenAI backend.
type stubCompleter struct {
	calls    int
	lastMsgs []openai.Message
	reply    string
	err      error
}

func (s *stubCompleter) Chat(ctx context.Context, messages []openai.Message) (*openai.ChatResponse, error) {
	s.calls++
	s.lastMsgs = append([]openai.Message(nil), messages...)
	if s.err != nil {
		return nil, s.err
	}
	return &openai.ChatResponse{
		Choices: []openai.Choice{{Message: openai.NewAssistantMessage(s.reply)}},
	}, nil
}

// stubBackend fakes the stateful Gemini backend.
type stubBackend struct {
	starts     int
	sends      int
	startErr   error
	sendErr    error
	reply      string
	lastPrompt string
}

func (s *stubBackend) StartSession(ctx context.Context) (*gemini.Session, error) {
	s.starts++
	if s.startErr != nil {
		return nil, s.startErr
	}
	return &gemini.Session{Name: fmt.Sprintf("sessions/stub-%d", s.starts)}, nil
}

func (s *stubBackend) Send(ctx context.Context, sess *gemini.Session, prompt string) (string, error) {
	s.sends++
	s.lastPrompt = prompt
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return s.reply, nil
}

func newTestSession() (*Session, *stubCompleter, *stubBackend) {
	oc := &stubCompleter{reply: "openai says hi"}
	gc := &stubBackend{reply: "gemini says hi"}
	return New(oc, gc), oc, gc
}

func TestNewSessionStartsOnOpenAI(t *testing.T) {
	s, _, _ := newTestSession()
	if s.Active() != KindOpenAI {
		t.Errorf("Active() = %v, want KindOpenAI", s.Active())
	}
	if s.ContextLen() != 1 {
		t.Errorf("ContextLen() = %d, want 1 (system primer)", s.ContextLen())
	}
	if s.HasHandle() {
		t.Error("HasHandle() = true before any Gemini send")
	}
}

func TestSendOpenAIContextGrowth(t *testing.T) {
	s, oc, _ := newTestSession()
	ctx := context.Background()

	// After N successful sends the context holds 1 + 2N messages.
	for n := 1; n <= 3; n++ {
		out := s.Send(ctx, fmt.Sprintf("question %d", n))
		if !out.OK() {
			t.Fatalf("Send() outcome = %+v", out)
		}
		if want := 1 + 2*n; s.ContextLen() != want {
			t.Errorf("after %d sends ContextLen() = %d, want %d", n, s.ContextLen(), want)
		}
	}

	// The last call carried the whole history, primer first.
	if len(oc.lastMsgs) != 6 {
		t.Fatalf("last request carried %d messages, want 6", len(oc.lastMsgs))
	}
	if oc.lastMsgs[0].Role != "system" || oc.lastMsgs[0].Content != SystemPrimer {
		t.Errorf("first message = %+v, want system primer", oc.lastMsgs[0])
	}
	if oc.lastMsgs[5].Content != "question 3" {
		t.Errorf("last message = %q, want the new prompt", oc.lastMsgs[5].Content)
	}
}

// A failed OpenAI send keeps the appended user turn in the context.
// This asymmetry is deliberate and load-bearing: callers and tests
// depend on the context shape being 1+2N+1 after a failure.
func TestSendOpenAIFailureKeepsUserTurn(t *testing.T) {
	s, oc, _ := newTestSession()
	ctx := context.Background()

	if out := s.Send(ctx, "works"); !out.OK() {
		t.Fatalf("first Send() outcome = %+v", out)
	}

	oc.err = errors.New("boom")
	out := s.Send(ctx, "fails")
	if out.OK() {
		t.Fatal("second Send() unexpectedly succeeded")
	}
	if out.Kind != OutcomeFailure {
		t.Errorf("outcome kind = %v, want OutcomeFailure", out.Kind)
	}

	// 1 primer + 2 from the success + 1 orphaned user turn.
	if s.ContextLen() != 4 {
		t.Errorf("ContextLen() = %d, want 4 (failed user turn retained)", s.ContextLen())
	}

	// The next send replays the orphaned turn too.
	oc.err = nil
	if out := s.Send(ctx, "again"); !out.OK() {
		t.Fatalf("third Send() outcome = %+v", out)
	}
	if len(oc.lastMsgs) != 5 {
		t.Errorf("last request carried %d messages, want 5", len(oc.lastMsgs))
	}
	if oc.lastMsgs[3].Content != "fails" {
		t.Errorf("orphaned turn = %q, want %q", oc.lastMsgs[3].Content, "fails")
	}
}

func TestSendGeminiLazyHandle(t *testing.T) {
	s, _, gc := newTestSession()
	ctx := context.Background()
	s.Switch()

	if gc.starts != 0 {
		t.Fatalf("StartSession called %d times before any send", gc.starts)
	}

	for i := 0; i < 3; i++ {
		if out := s.Send(ctx, "hi"); !out.OK() {
			t.Fatalf("Send() outcome = %+v", out)
		}
	}

	// The handle is established once and reused.
	if gc.starts != 1 {
		t.Errorf("StartSession called %d times, want 1", gc.starts)
	}
	if gc.sends != 3 {
		t.Errorf("Send called %d times, want 3", gc.sends)
	}
	if !s.HasHandle() {
		t.Error("HasHandle() = false after Gemini sends")
	}
}

func TestSendGeminiFailureKeepsHandle(t *testing.T) {
	s, _, gc := newTestSession()
	ctx := context.Background()
	s.Switch()

	if out := s.Send(ctx, "ok"); !out.OK() {
		t.Fatalf("Send() outcome = %+v", out)
	}

	gc.sendErr = errors.New("flaky")
	if out := s.Send(ctx, "broken"); out.OK() {
		t.Fatal("Send() unexpectedly succeeded")
	}
	if !s.HasHandle() {
		t.Error("failed send dropped the established handle")
	}

	gc.sendErr = nil
	if out := s.Send(ctx, "back"); !out.OK() {
		t.Fatalf("Send() outcome = %+v", out)
	}
	if gc.starts != 1 {
		t.Errorf("StartSession called %d times, want 1 (handle reused)", gc.starts)
	}
}

func TestReset(t *testing.T) {
	s, _, gc := newTestSession()
	ctx := context.Background()

	s.Send(ctx, "openai turn")
	s.Switch()
	s.Send(ctx, "gemini turn")

	s.Reset()

	if s.ContextLen() != 1 {
		t.Errorf("ContextLen() after Reset = %d, want 1", s.ContextLen())
	}
	if s.HasHandle() {
		t.Error("HasHandle() = true after Reset")
	}
	if s.Active() != KindGemini {
		t.Errorf("Reset changed the active provider to %v", s.Active())
	}

	// The next Gemini send starts a fresh server-side session.
	s.Send(ctx, "fresh")
	if gc.starts != 2 {
		t.Errorf("StartSession called %d times, want 2", gc.starts)
	}
}

func TestSwitchPreservesBothSides(t *testing.T) {
	s, oc, gc := newTestSession()
	ctx := context.Background()

	s.Send(ctx, "first openai turn")
	contextAfter := s.ContextLen()

	if got := s.Switch(); got != KindGemini {
		t.Fatalf("Switch() = %v, want KindGemini", got)
	}
	s.Send(ctx, "gemini turn")

	if got := s.Switch(); got != KindOpenAI {
		t.Fatalf("Switch() = %v, want KindOpenAI", got)
	}
	if s.ContextLen() != contextAfter {
		t.Errorf("ContextLen() = %d after round trip, want %d", s.ContextLen(), contextAfter)
	}
	if !s.HasHandle() {
		t.Error("Gemini handle dropped by switching away")
	}

	s.Send(ctx, "second openai turn")
	// Context picked up where it left off: primer + 2 + 2 turns.
	if len(oc.lastMsgs) != 5 {
		t.Errorf("last OpenAI request carried %d messages, want 5", len(oc.lastMsgs))
	}
	if gc.starts != 1 {
		t.Errorf("StartSession called %d times, want 1", gc.starts)
	}
}

func TestQuotaOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		err      error
		wantText string
	}{
		{
			name:     "openai rate limited",
			kind:     KindOpenAI,
			err:      fmt.Errorf("max retries exceeded: %w", openai.ErrRateLimited),
			wantText: "❌ OpenAI quota exceeded. Visit https://platform.openai.com/account/usage",
		},
		{
			name:     "openai out of credits",
			kind:     KindOpenAI,
			err:      openai.ErrInsufficientCredits,
			wantText: "❌ OpenAI quota exceeded. Visit https://platform.openai.com/account/usage",
		},
		{
			name:     "gemini resource exhausted",
			kind:     KindGemini,
			err:      fmt.Errorf("%w: per-project quota", gemini.ErrResourceExhausted),
			wantText: "❌ Gemini quota exceeded. Visit https://makersuite.google.com/app/apikey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, oc, gc := newTestSession()
			if tt.kind == KindGemini {
				s.Switch()
				gc.startErr = tt.err
			} else {
				oc.err = tt.err
			}

			out := s.Send(context.Background(), "hello")
			if out.Kind != OutcomeQuotaExceeded {
				t.Fatalf("outcome kind = %v, want OutcomeQuotaExceeded", out.Kind)
			}
			if out.Provider != tt.kind {
				t.Errorf("outcome provider = %v, want %v", out.Provider, tt.kind)
			}
			if out.Text() != tt.wantText {
				t.Errorf("Text() = %q, want %q", out.Text(), tt.wantText)
			}
		})
	}
}

func TestGeminiQuotaOnStartLeavesNoHandle(t *testing.T) {
	s, _, gc := newTestSession()
	s.Switch()
	gc.startErr = gemini.ErrResourceExhausted

	out := s.Send(context.Background(), "hello")
	if out.Kind != OutcomeQuotaExceeded {
		t.Fatalf("outcome kind = %v, want OutcomeQuotaExceeded", out.Kind)
	}
	if s.HasHandle() {
		t.Error("HasHandle() = true after failed session start")
	}

	// Recovery establishes the session on the next send.
	gc.startErr = nil
	if out := s.Send(context.Background(), "retry"); !out.OK() {
		t.Fatalf("Send() outcome = %+v", out)
	}
	if gc.starts != 2 {
		t.Errorf("StartSession called %d times, want 2", gc.starts)
	}
}

func TestGenericFailureText(t *testing.T) {
	s, oc, _ := newTestSession()
	oc.err = errors.New("connection refused")

	out := s.Send(context.Background(), "hello")
	if out.Kind != OutcomeFailure {
		t.Fatalf("outcome kind = %v, want OutcomeFailure", out.Kind)
	}
	if out.Text() != "❌ Error: connection refused" {
		t.Errorf("Text() = %q", out.Text())
	}
}

func TestTimeoutFailureText(t *testing.T) {
	s, oc, _ := newTestSession()
	oc.err = fmt.Errorf("request failed: %w", context.DeadlineExceeded)

	out := s.Send(context.Background(), "hello")
	if out.Kind != OutcomeFailure {
		t.Fatalf("outcome kind = %v, want OutcomeFailure", out.Kind)
	}
	if out.Text() != "❌ Error: timeout" {
		t.Errorf("Text() = %q, want %q", out.Text(), "❌ Error: timeout")
	}
}

func TestKindStrings(t *testing.T) {
	if KindOpenAI.String() != "OpenAI" || KindGemini.String() != "Gemini" {
		t.Errorf("String() = %q, %q", KindOpenAI.String(), KindGemini.String())
	}
	if KindOpenAI.Slug() != "openai" || KindGemini.Slug() != "gemini" {
		t.Errorf("Slug() = %q, %q", KindOpenAI.Slug(), KindGemini.Slug())
	}
}
