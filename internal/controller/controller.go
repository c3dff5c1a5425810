// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller orchestrates a conversation turn: validate input,
// persist the user message, call the completion endpoint, persist the
// assistant reply.
//
// A turn is split in two so a UI can render the user's message before
// the network round-trip starts:
//
//	pending, err := ctl.Begin(convID, input)   // synchronous, fast
//	reply, err := ctl.Await(ctx, pending)      // blocking network call
//
// Submit combines both for callers without a frame loop.
//
// While a conversation has a turn in flight, further submissions on it
// are rejected deterministically; other conversations are unaffected.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/debuglog"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/repo"
	"github.com/jeranaias/parley-tui/internal/settings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput is returned when the submitted text is empty after
	// trimming. Nothing is persisted and no request is sent.
	ErrEmptyInput = errors.New("empty input")

	// ErrTurnInFlight is returned when the conversation already has an
	// unanswered request outstanding.
	ErrTurnInFlight = errors.New("a response is already pending for this conversation")

	// ErrStaleReply is returned when a reply arrives for a conversation
	// that no longer exists. The reply is discarded; the request and
	// response were still recorded in the debug log.
	ErrStaleReply = errors.New("reply arrived for a deleted conversation")
)

// ConfigurationError indicates the turn cannot proceed because required
// settings are missing. The user message has already been persisted; the
// user should not lose typed text to a settings problem.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Missing, ", "))
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Completer is the completion adapter surface the controller needs.
// *api.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req api.Request) (string, error)
}

// Controller coordinates repository, settings, and the completion
// adapter for conversation turns.
type Controller struct {
	repo     *repo.Repository
	settings *settings.Settings
	client   Completer
	sink     debuglog.Sink

	mu   sync.Mutex
	busy map[string]bool // conversation IDs with a turn in flight
}

// New creates a Controller. A nil sink discards debug records.
func New(r *repo.Repository, s *settings.Settings, client Completer, sink debuglog.Sink) *Controller {
	if sink == nil {
		sink = debuglog.Discard
	}
	return &Controller{
		repo:     r,
		settings: s,
		client:   client,
		sink:     sink,
		busy:     make(map[string]bool),
	}
}

// PendingTurn carries the state between Begin and Await.
type PendingTurn struct {
	ConvID      string
	UserMessage model.Message
	Request     api.Request
}

// Begin validates and persists the user's message and prepares the
// completion request. On success the conversation is marked busy until
// Await (or Abort) runs.
//
// Order matters: the user message is appended before the configuration
// check, so a missing API key never swallows typed text. On a
// *ConfigurationError the message is persisted, the busy mark is
// released, and no request is sent.
func (c *Controller) Begin(convID, input string) (*PendingTurn, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	if c.busy[convID] {
		c.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	c.busy[convID] = true
	c.mu.Unlock()

	userMsg, err := c.repo.AppendMessage(convID, model.RoleUser, text)
	if err != nil {
		c.release(convID)
		return nil, err
	}

	conv, err := c.repo.Get(convID)
	if err != nil {
		c.release(convID)
		return nil, err
	}

	req := api.Request{
		BaseURL:         c.settings.BaseURL(),
		Credential:      c.settings.Credential(),
		Model:           c.settings.Model(),
		SystemDirective: conv.SystemDirective,
		History:         historyFor(conv),
	}

	var missing []string
	if req.Credential == "" {
		missing = append(missing, "api key")
	}
	if req.BaseURL == "" {
		missing = append(missing, "base URL")
	}
	if req.Model == "" {
		missing = append(missing, "model")
	}
	if len(missing) > 0 {
		c.release(convID)
		return nil, &ConfigurationError{Missing: missing}
	}

	return &PendingTurn{
		ConvID:      convID,
		UserMessage: userMsg,
		Request:     req,
	}, nil
}

// Await performs the completion call for a pending turn and persists
// the assistant reply. It blocks until the endpoint responds, the
// request fails, or ctx is cancelled.
//
// On any error the conversation history keeps the user message and
// gains nothing else; the turn is over and the conversation accepts new
// submissions. If the conversation was deleted while the request was in
// flight the reply is discarded and ErrStaleReply returned - the debug
// log still holds the full exchange.
func (c *Controller) Await(ctx context.Context, pending *PendingTurn) (model.Message, error) {
	defer c.release(pending.ConvID)

	reply, err := c.client.Complete(ctx, pending.Request)
	if err != nil {
		return model.Message{}, err
	}

	// The conversation may have been deleted mid-flight.
	if _, err := c.repo.Get(pending.ConvID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.sink.Record(debuglog.KindError, fmt.Sprintf("discarding reply for deleted conversation %s", pending.ConvID))
			return model.Message{}, ErrStaleReply
		}
		return model.Message{}, err
	}

	return c.repo.AppendMessage(pending.ConvID, model.RoleAssistant, reply)
}

// Abort releases a pending turn without sending anything. Used when the
// caller decides not to proceed after Begin.
func (c *Controller) Abort(pending *PendingTurn) {
	c.release(pending.ConvID)
}

// Submit runs a full turn synchronously: Begin then Await.
func (c *Controller) Submit(ctx context.Context, convID, input string) (model.Message, error) {
	pending, err := c.Begin(convID, input)
	if err != nil {
		return model.Message{}, err
	}
	return c.Await(ctx, pending)
}

// InFlight reports whether the conversation has an unanswered request.
func (c *Controller) InFlight(convID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[convID]
}

func (c *Controller) release(convID string) {
	c.mu.Lock()
	delete(c.busy, convID)
	c.mu.Unlock()
}

// historyFor converts a conversation's messages to the wire format.
// The system directive travels separately on the Request.
func historyFor(conv *model.Conversation) []api.ChatMessage {
	history := make([]api.ChatMessage, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		history = append(history, api.ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return history
}
