// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// DefaultTitle is the placeholder title a conversation carries until its
// first user message overwrites it.
const DefaultTitle = "New Conversation"

// TitleMaxRunes bounds the auto-generated title length.
const TitleMaxRunes = 50

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat thread with history and metadata.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Optional instruction prepended to every outbound request.
	SystemDirective string `json:"system_directive,omitempty"`

	// Messages, append-only, oldest first.
	Messages []Message `json:"messages"`
}

// NewConversation creates a new empty conversation with a generated ID
// and the default placeholder title.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateConversationID(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the conversation history.
//
// If this is the conversation's first message and its role is user, the
// title is set from a bounded prefix of the content. The title is set at
// most once this way; later messages never change it.
func (c *Conversation) Append(msg Message) {
	if len(c.Messages) == 0 && msg.Role == RoleUser {
		c.Title = titleFrom(msg.Content)
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// LastMessage returns the most recent message and true, or false if empty.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// SetSystemDirective replaces the conversation's system directive.
func (c *Conversation) SetSystemDirective(text string) {
	c.SystemDirective = text
	c.UpdatedAt = time.Now()
}

// Preview returns a one-line preview of the first user message, or the
// empty string if there is none.
func (c *Conversation) Preview(maxRunes int) string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return msg.Preview(maxRunes)
		}
	}
	return ""
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// titleFrom derives a bounded, single-line title from message content.
func titleFrom(content string) string {
	msg := Message{Content: content}
	title := msg.Preview(TitleMaxRunes)
	if title == "" {
		return DefaultTitle
	}
	return title
}

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}
