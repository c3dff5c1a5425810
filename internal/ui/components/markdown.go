// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders completed assistant replies as terminal
// markdown. Rendering failures fall back to the plain text, so a
// broken renderer never hides a reply.
type MarkdownRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer creates a renderer wrapping at width columns.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	m := &MarkdownRenderer{}
	m.SetWidth(width)
	return m
}

// SetWidth rebuilds the renderer for a new wrap width. Called on
// terminal resize.
func (m *MarkdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width = width
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Render converts markdown to styled terminal output. Returns content
// unchanged if rendering is unavailable or fails.
func (m *MarkdownRenderer) Render(content string) string {
	m.mu.Lock()
	renderer := m.renderer
	m.mu.Unlock()

	if renderer == nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
