// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/controller"
	"github.com/jeranaias/parley-tui/internal/reveal"
)

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TurnCompleteMsg:
		return m.handleTurnComplete(msg)

	case TurnErrorMsg:
		return m.handleTurnError(msg)

	case RevealTickMsg:
		return m.handleRevealTick()

	case statusExpiredMsg:
		if msg.id == m.statusSeq {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil

	case searchResultsMsg:
		return m.handleSearchResults(msg)

	case exportDoneMsg:
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("export failed: %v", msg.err), true)
		}
		return m, m.setStatus("exported to "+msg.path, false)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Header (1) + input area (3) + status bar (1).
	viewportHeight := msg.Height - 5
	if viewportHeight < 3 {
		viewportHeight = 3
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = viewportHeight
	m.input.Width = msg.Width - 4
	m.markdown.SetWidth(msg.Width - 4)

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay != overlayNone {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		// Esc skips the remaining reveal; the full reply is already
		// stored, so jump straight to it.
		if m.revealing() {
			m.finishReveal()
			return m, nil
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.NewConv):
		return m.commandNew()

	case key.Matches(msg, m.keyMap.ListConv):
		m.overlay = overlayList
		m.listCursor = 0
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keyMap.Up), key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayList:
		return m.handleListKey(msg)
	case overlaySearch:
		return m.handleSearchOverlayKey(msg)
	default:
		// Help and log overlays close on any key.
		m.overlay = overlayNone
		return m, nil
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	summaries := m.repo.List()
	switch msg.String() {
	case "esc", "q", "ctrl+o":
		m.overlay = overlayNone
	case "up", "k":
		if m.listCursor > 0 {
			m.listCursor--
		}
	case "down", "j":
		if m.listCursor < len(summaries)-1 {
			m.listCursor++
		}
	case "enter":
		if m.listCursor < len(summaries) {
			return m.switchTo(summaries[m.listCursor].ID)
		}
	case "d":
		if m.listCursor < len(summaries) {
			return m.deleteConversation(summaries[m.listCursor].ID)
		}
	}
	return m, nil
}

func (m Model) handleSearchOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.overlay = overlayNone
		m.searchHits = nil
	case "up", "k":
		if m.listCursor > 0 {
			m.listCursor--
		}
	case "down", "j":
		if m.listCursor < len(m.searchHits)-1 {
			m.listCursor++
		}
	case "enter":
		if m.listCursor < len(m.searchHits) {
			hit := m.searchHits[m.listCursor]
			m.searchHits = nil
			return m.switchTo(hit.ConvID)
		}
	}
	return m, nil
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := m.input.Value()

	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		m.input.SetValue("")
		return m.handleCommand(strings.TrimSpace(text))
	}

	conv, ok := m.repo.Active()
	if !ok {
		return m, m.setStatus("no active conversation", true)
	}

	// A new submission supersedes the previous reveal.
	m.cancelReveal()

	pending, err := m.ctl.Begin(conv.ID, text)
	if err != nil {
		return m.handleBeginError(err)
	}

	m.input.SetValue("")
	m.state = StateAwaiting
	m.awaitStart = time.Now()
	m.lastError = nil
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(awaitTurn(m.ctl, pending), m.spinner.Tick)
}

func (m Model) handleBeginError(err error) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(err, controller.ErrEmptyInput):
		// Silently ignore empty submissions.
		return m, nil

	case errors.Is(err, controller.ErrTurnInFlight):
		return m, m.setStatus("still waiting for the previous reply", true)

	default:
		var cfgErr *controller.ConfigurationError
		if errors.As(err, &cfgErr) {
			// The message was persisted; show it and prompt for setup.
			m.input.SetValue("")
			m.refreshViewport()
			m.viewport.GotoBottom()
			return m, m.setStatus(
				fmt.Sprintf("not configured: set %s (run `parley setup` or /help)", strings.Join(cfgErr.Missing, ", ")),
				true,
			)
		}
		return m, m.setStatus(err.Error(), true)
	}
}

// =============================================================================
// TURN OUTCOMES
// =============================================================================

func (m Model) handleTurnComplete(msg TurnCompleteMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady

	// Reply for a conversation we are no longer viewing: persist
	// happened in the controller, nothing to animate here.
	if active, ok := m.repo.Active(); !ok || active.ID != msg.ConvID {
		return m, nil
	}

	m.revealBuf = reveal.NewBuffer()
	m.revealer = reveal.New(msg.Reply.Content, m.charsPerTick, m.revealBuf)
	m.revealMsgID = msg.Reply.ID
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, revealTickCmd(m.revealTick)
}

func (m Model) handleTurnError(msg TurnErrorMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	m.lastError = msg.Err
	m.refreshViewport()

	if errors.Is(msg.Err, controller.ErrStaleReply) {
		// Conversation went away mid-flight; nothing else to show.
		return m, m.setStatus("conversation was deleted before the reply arrived", true)
	}
	return m, m.setStatus(describeTurnError(msg.Err), true)
}

func (m Model) handleRevealTick() (tea.Model, tea.Cmd) {
	if m.revealer == nil {
		return m, nil
	}
	more := m.revealer.Tick()
	m.refreshViewport()
	m.viewport.GotoBottom()
	if !more {
		// Reveal finished: re-render so markdown formatting applies.
		m.revealer = nil
		m.revealMsgID = ""
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	}
	return m, revealTickCmd(m.revealTick)
}

func (m Model) handleSearchResults(msg searchResultsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.setStatus(fmt.Sprintf("search failed: %v", msg.err), true)
	}
	if len(msg.results) == 0 {
		return m, m.setStatus(fmt.Sprintf("no matches for %q", msg.query), false)
	}
	m.overlay = overlaySearch
	m.searchHits = msg.results
	m.searchText = msg.query
	m.listCursor = 0
	return m, nil
}

// describeTurnError maps adapter errors onto user-facing text.
func describeTurnError(err error) string {
	var netErr *api.NetworkError
	var apiErr *api.APIError
	var malErr *api.MalformedResponseError

	switch {
	case errors.As(err, &netErr):
		return "network error: could not reach the endpoint (message kept; try again)"
	case errors.As(err, &apiErr):
		return "endpoint error: " + apiErr.Message
	case errors.As(err, &malErr):
		return "the endpoint returned an unrecognized response shape"
	default:
		return err.Error()
	}
}
