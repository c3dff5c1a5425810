// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// TurnCompleteMsg arrives when the completion endpoint replied and the
// assistant message was persisted.
type TurnCompleteMsg struct {
	ConvID string
	Reply  model.Message
}

// TurnErrorMsg arrives when a turn failed after the user message was
// sent. The conversation keeps the user message.
type TurnErrorMsg struct {
	ConvID string
	Err    error
}

// RevealTickMsg drives the incremental reveal of the latest reply.
type RevealTickMsg struct{}

// statusExpiredMsg clears a transient status line.
type statusExpiredMsg struct {
	id int
}

// searchResultsMsg carries full-text search hits for the overlay.
type searchResultsMsg struct {
	query   string
	results []searchHit
	err     error
}

// searchHit is one search result prepared for display.
type searchHit struct {
	ConvID    string
	ConvTitle string
	Snippet   string
}

// exportDoneMsg reports the outcome of an export command.
type exportDoneMsg struct {
	path string
	err  error
}
