// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key").WithBaseURL(server.URL)
}

func TestStartSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions" {
			t.Errorf("path = %q, want /sessions", r.URL.Path)
		}
		if key := r.Header.Get("x-goog-api-key"); key != "test-key" {
			t.Errorf("api key header = %q", key)
		}
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "models/"+DefaultModel {
			t.Errorf("model = %q", req.Model)
		}
		w.Write([]byte(`{"name": "sessions/abc123"}`))
	})

	sess, err := client.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if sess.Name != "sessions/abc123" {
		t.Errorf("session name = %q", sess.Name)
	}
}

func TestStartSessionNotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.StartSession(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("StartSession() error = %v, want ErrNotConfigured", err)
	}
}

func TestSendCarriesOnlyNewPrompt(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/abc123:sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"reply": {"text": "the answer"}}`))
	})

	reply, err := client.Send(context.Background(), &Session{Name: "sessions/abc123"}, "a question")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply != "the answer" {
		t.Errorf("reply = %q", reply)
	}
	if gotBody["text"] != "a question" {
		t.Errorf("request text = %v", gotBody["text"])
	}
	if len(gotBody) != 1 {
		t.Errorf("request body has %d fields, want only the new prompt", len(gotBody))
	}
}

func TestSendNilSession(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.Send(context.Background(), nil, "x")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Send() error = %v, want ErrSessionNotFound", err)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "resource exhausted status",
			status:  http.StatusTooManyRequests,
			body:    `{"error": {"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"}}`,
			wantErr: ErrResourceExhausted,
		},
		{
			name:    "auth failed",
			status:  http.StatusForbidden,
			body:    `{"error": {"code": 403, "message": "bad key", "status": "PERMISSION_DENIED"}}`,
			wantErr: ErrAuthFailed,
		},
		{
			name:    "session gone",
			status:  http.StatusNotFound,
			body:    `{"error": {"code": 404, "message": "unknown session", "status": "NOT_FOUND"}}`,
			wantErr: ErrSessionNotFound,
		},
		{
			name:    "unparseable body falls back on status",
			status:  http.StatusTooManyRequests,
			body:    `not json`,
			wantErr: ErrResourceExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.Send(context.Background(), &Session{Name: "sessions/x"}, "hi")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Send() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
