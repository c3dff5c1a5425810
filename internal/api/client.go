// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/parley-tui/internal/debuglog"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultTimeout is the default timeout for completion requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all completion requests.
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

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single message in the outbound wire format.
type ChatMessage struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // The message content
}

// chatRequest is the outbound request body: {model, messages}.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// Request carries everything one completion call needs. It is passed in
// explicitly per call - the adapter holds no ambient settings state - so the
// client stays pure and unit-testable.
type Request struct {
	BaseURL         string
	Credential      string
	Model           string
	SystemDirective string
	History         []ChatMessage
}

// =============================================================================
// CLIENT
// =============================================================================

// Client performs completion requests against an OpenAI-compatible endpoint.
type Client struct {
	httpClient *http.Client
	sink       debuglog.Sink
}

// NewClient creates a client that records request/response payloads to sink.
// A nil sink discards.
func NewClient(sink debuglog.Sink) *Client {
	if sink == nil {
		sink = debuglog.Discard
	}
	return &Client{
		httpClient: sharedHTTPClient,
		sink:       sink,
	}
}

// WithHTTPClient overrides the HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout overrides the per-request timeout, keeping the shared
// pooled transport.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d <= 0 {
		return c
	}
	hc := *c.httpClient
	hc.Timeout = d
	c.httpClient = &hc
	return c
}

// Complete sends one chat completion request and returns the assistant text.
//
// The outbound message list is the optional system directive followed by the
// full history in order - no truncation, no summarization, full replay each
// turn. The call is synchronous from the caller's perspective; run it in a
// goroutine (or a tea.Cmd) to keep the UI responsive.
//
// Failures map onto the adapter taxonomy: *NetworkError for transport
// failures, *APIError for provider-reported errors, *MalformedResponseError
// when no known reply shape matches. The call is never retried here.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	url := strings.TrimSuffix(req.BaseURL, "/") + "/chat/completions"

	body := chatRequest{
		Model:    req.Model,
		Messages: buildMessages(req.SystemDirective, req.History),
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// Observability first: the request is recorded before the outcome is
	// known, and the outcome is recorded before returning. The sink has no
	// failure mode, so logging can never replace the adapter outcome.
	c.sink.Record(debuglog.KindRequest, "POST "+url+" "+string(bodyBytes))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		nerr := &NetworkError{Err: err}
		c.sink.Record(debuglog.KindError, nerr.Error())
		return "", nerr
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)
	httpReq.Header.Set("User-Agent", "parley/0.1.0")

	c.logRequest(httpReq)
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)

	// SECURITY: Clear Authorization header immediately after the request so
	// it can never reach a log.
	httpReq.Header.Del("Authorization")

	if err != nil {
		nerr := &NetworkError{Err: err}
		c.sink.Record(debuglog.KindError, nerr.Error())
		return "", nerr
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	respBody, err := readResponse(resp)
	if err != nil {
		nerr := &NetworkError{Err: err}
		c.sink.Record(debuglog.KindError, nerr.Error())
		return "", nerr
	}

	c.sink.Record(debuglog.KindResponse, fmt.Sprintf("HTTP %d %s", resp.StatusCode, respBody))

	reply, err := extractReply(respBody, resp.StatusCode)
	if err != nil {
		c.sink.Record(debuglog.KindError, err.Error())
		return "", err
	}
	return reply, nil
}

// buildMessages assembles the ordered outbound list: optional leading system
// directive, then the full history in order.
func buildMessages(directive string, history []ChatMessage) []ChatMessage {
	messages := make([]ChatMessage, 0, len(history)+1)
	if directive != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: directive})
	}
	return append(messages, history...)
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// logRequest logs an API request without exposing sensitive data.
// Never log headers (auth) or bodies (user content).
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status code and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}
