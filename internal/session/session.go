// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/duochat/internal/gemini"
	"github.com/jeranaias/duochat/internal/openai"
)

// SystemPrimer seeds the OpenAI context as the first system message.
const SystemPrimer = "You are a helpful assistant."

// Fixed user-facing error texts. These are part of the display
// contract and must not change between releases.
const (
	openAIQuotaText = "❌ OpenAI quota exceeded. Visit https://platform.openai.com/account/usage"
	geminiQuotaText = "❌ Gemini quota exceeded. Visit https://makersuite.google.com/app/apikey"
)

// Kind identifies a provider.
type Kind int

const (
	KindOpenAI Kind = iota
	KindGemini
)

// String returns the provider's display name.
func (k Kind) String() string {
	switch k {
	case KindGemini:
		return "Gemini"
	default:
		return "OpenAI"
	}
}

// Slug returns the provider name in the lowercase form used in
// filenames.
func (k Kind) Slug() string {
	return strings.ToLower(k.String())
}

// ChatCompleter is the stateless OpenAI-side backend. Implementations
// receive the full message context on every call.
type ChatCompleter interface {
	Chat(ctx context.Context, messages []openai.Message) (*openai.ChatResponse, error)
}

// SessionBackend is the stateful Gemini-side backend. StartSession is
// called at most once per reset; Send carries only the new prompt.
type SessionBackend interface {
	StartSession(ctx context.Context) (*gemini.Session, error)
	Send(ctx context.Context, sess *gemini.Session, prompt string) (string, error)
}

// OutcomeKind classifies the result of a Send.
type OutcomeKind int

const (
	// OutcomeSuccess carries a reply.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeQuotaExceeded means the provider's quota is exhausted.
	OutcomeQuotaExceeded
	// OutcomeFailure covers every other error.
	OutcomeFailure
)

// Outcome is the result of one Send. Provider records which provider
// handled the call, since the active provider may change afterwards.
type Outcome struct {
	Kind     OutcomeKind
	Provider Kind
	Reply    string // set on success
	Message  string // fixed display text, set on quota or failure
}

// OK reports whether the send succeeded.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// Text returns what should be displayed for this outcome: the reply on
// success, the error text otherwise.
func (o Outcome) Text() string {
	if o.Kind == OutcomeSuccess {
		return o.Reply
	}
	return o.Message
}

// Session multiplexes one conversation across the two providers.
// Exactly one provider is active at a time; both providers' state
// survives a switch and only Reset discards it.
type Session struct {
	mu     sync.Mutex
	active Kind

	openaiClient ChatCompleter
	geminiClient SessionBackend

	// OpenAI context: system primer plus alternating user/assistant
	// turns. Replayed in full on every OpenAI send.
	messages []openai.Message

	// Gemini handle: nil until the first Gemini send after a reset.
	handle *gemini.Session
}

// New creates a session with OpenAI active and a fresh context holding
// only the system primer.
func New(openaiClient ChatCompleter, geminiClient SessionBackend) *Session {
	return &Session{
		active:       KindOpenAI,
		openaiClient: openaiClient,
		geminiClient: geminiClient,
		messages:     []openai.Message{openai.NewSystemMessage(SystemPrimer)},
	}
}

// Active returns the currently active provider.
func (s *Session) Active() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Switch toggles the active provider and returns the new one. Neither
// provider's state is touched: the OpenAI context and the Gemini
// handle both survive and are picked up again on the next switch back.
func (s *Session) Switch() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == KindOpenAI {
		s.active = KindGemini
	} else {
		s.active = KindOpenAI
	}
	return s.active
}

// Reset discards both providers' conversational state: the OpenAI
// context shrinks back to the system primer and the Gemini handle is
// dropped, so the next Gemini send starts a new server-side session.
// The active provider is unchanged.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []openai.Message{openai.NewSystemMessage(SystemPrimer)}
	s.handle = nil
}

// ContextLen returns the number of messages in the OpenAI context,
// including the system primer.
func (s *Session) ContextLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// HasHandle reports whether a Gemini server-side session is live.
func (s *Session) HasHandle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// Send delivers one prompt to the active provider and returns the
// outcome. Errors never roll back state: on an OpenAI failure the user
// turn stays in the context, and on a Gemini failure an established
// handle stays live.
func (s *Session) Send(ctx context.Context, prompt string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == KindGemini {
		return s.sendGemini(ctx, prompt)
	}
	return s.sendOpenAI(ctx, prompt)
}

// sendOpenAI appends the user turn, replays the full context, and
// appends the assistant turn on success. The user turn is appended
// before the call and deliberately kept on failure, so the provider
// still sees the question if the user retries with a follow-up.
func (s *Session) sendOpenAI(ctx context.Context, prompt string) Outcome {
	s.messages = append(s.messages, openai.NewUserMessage(prompt))

	resp, err := s.openaiClient.Chat(ctx, s.messages)
	if err != nil {
		return classify(KindOpenAI, err)
	}

	reply := resp.GetContent()
	s.messages = append(s.messages, openai.NewAssistantMessage(reply))
	return Outcome{Kind: OutcomeSuccess, Provider: KindOpenAI, Reply: reply}
}

// sendGemini lazily establishes the server-side session on first use,
// then delivers only the new prompt. A handle established before a
// failed send stays live.
func (s *Session) sendGemini(ctx context.Context, prompt string) Outcome {
	if s.handle == nil {
		handle, err := s.geminiClient.StartSession(ctx)
		if err != nil {
			return classify(KindGemini, err)
		}
		s.handle = handle
	}

	reply, err := s.geminiClient.Send(ctx, s.handle, prompt)
	if err != nil {
		return classify(KindGemini, err)
	}
	return Outcome{Kind: OutcomeSuccess, Provider: KindGemini, Reply: reply}
}

// classify maps a provider error to its outcome and fixed display
// text.
func classify(kind Kind, err error) Outcome {
	switch kind {
	case KindOpenAI:
		if errors.Is(err, openai.ErrRateLimited) || errors.Is(err, openai.ErrInsufficientCredits) {
			return Outcome{Kind: OutcomeQuotaExceeded, Provider: kind, Message: openAIQuotaText}
		}
	case KindGemini:
		if errors.Is(err, gemini.ErrResourceExhausted) {
			return Outcome{Kind: OutcomeQuotaExceeded, Provider: kind, Message: geminiQuotaText}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Kind: OutcomeFailure, Provider: kind, Message: "❌ Error: timeout"}
	}
	return Outcome{Kind: OutcomeFailure, Provider: kind, Message: fmt.Sprintf("❌ Error: %v", err)}
}
