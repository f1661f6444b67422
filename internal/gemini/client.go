// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements a client for the Gemini chat API. Unlike
// the stateless OpenAI API, Gemini keeps conversational context on the
// server: StartSession creates a server-side session once, and each
// Send carries only the new prompt against that session handle.
package gemini

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Configuration constants for the Gemini API.
const (
	// DefaultBaseURL is the base URL for the Gemini API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-1.5-flash"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// Error variables for common Gemini API errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("Gemini API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrResourceExhausted indicates the per-project quota is exhausted.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrSessionNotFound indicates the server no longer knows the session handle.
	ErrSessionNotFound = errors.New("session not found")
)

// APIError represents an error payload returned by the Gemini API.
type APIError struct {
	Code    int
	Status  string
	Message string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini api error %d (%s): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini api error %d: %s", e.Code, e.Message)
}

// Session is an opaque handle to a server-side chat session. All
// conversational state lives on the server; the handle only names it.
type Session struct {
	Name string `json:"name"`
}

// apiErrorResponse is the error envelope the API returns on failure.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type startSessionRequest struct {
	Model string `json:"model"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Reply struct {
		Text string `json:"text"`
	} `json:"reply"`
}

// Client is a Gemini API client.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a client with default settings.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: sharedHTTPClient,
	}
}

// WithBaseURL overrides the API base URL. Useful for tests and proxies.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// WithTimeout overrides the HTTP timeout. This replaces the shared
// pooled client with a dedicated one.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient = &http.Client{
		Transport: sharedHTTPClient.Transport,
		Timeout:   timeout,
	}
	return c
}

// SetModel changes the model used for new sessions.
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// GetModel returns the model used for new sessions.
func (c *Client) GetModel() string {
	return c.model
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// StartSession creates a new server-side chat session and returns its
// handle. The caller owns the handle's lifetime; the server keeps the
// conversation history for it.
func (c *Client) StartSession(ctx context.Context) (*Session, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	url := c.baseURL + "/sessions"
	body, err := c.post(ctx, url, startSessionRequest{Model: "models/" + c.model})
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if sess.Name == "" {
		return nil, errors.New("server returned session without a name")
	}
	return &sess, nil
}

// Send delivers one prompt to an existing session and returns the
// reply text. Only the new prompt crosses the wire; the server
// supplies the conversational context.
func (c *Client) Send(ctx context.Context, sess *Session, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if sess == nil || sess.Name == "" {
		return "", ErrSessionNotFound
	}

	url := c.baseURL + "/" + sess.Name + ":sendMessage"
	body, err := c.post(ctx, url, sendMessageRequest{Text: prompt})
	if err != nil {
		return "", err
	}

	var resp sendMessageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse reply: %w", err)
	}
	return resp.Reply.Text, nil
}

// post performs one JSON POST and returns the raw response body.
func (c *Client) post(ctx context.Context, requestURL string, reqBody any) ([]byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	// Log method and path only; headers and body may carry secrets.
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, time.Since(start))

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		e := &APIError{
			Code:    apiErr.Error.Code,
			Status:  apiErr.Error.Status,
			Message: apiErr.Error.Message,
		}
		switch {
		case e.Status == "RESOURCE_EXHAUSTED" || statusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrResourceExhausted, e.Message)
		case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrAuthFailed, e.Message)
		case statusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrSessionNotFound, e.Message)
		default:
			return e
		}
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrResourceExhausted
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrSessionNotFound
	default:
		return &APIError{Code: statusCode, Message: string(body)}
	}
}
