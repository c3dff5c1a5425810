// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/repo"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand dispatches a /command typed into the input.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/new":
		return m.commandNew()

	case "/list":
		m.overlay = overlayList
		m.listCursor = 0
		return m, nil

	case "/switch":
		return m.commandSwitch(args)

	case "/delete":
		return m.commandDelete(args)

	case "/system":
		return m.commandSystem(rest)

	case "/export":
		return m.commandExport(args)

	case "/search":
		return m.commandSearch(rest)

	case "/theme":
		return m.commandTheme(args)

	case "/log":
		m.overlay = overlayLog
		return m, nil

	case "/help":
		m.overlay = overlayHelp
		return m, nil

	case "/clear":
		m.viewport.SetContent("")
		m.refreshViewport()
		return m, nil

	case "/quit", "/exit":
		return m, tea.Quit

	default:
		return m, m.setStatus(fmt.Sprintf("unknown command %s (try /help)", cmd), true)
	}
}

func (m Model) commandNew() (tea.Model, tea.Cmd) {
	m.cancelReveal()
	conv, err := m.repo.Create()
	if err != nil {
		return m, m.setStatus(fmt.Sprintf("create failed: %v", err), true)
	}
	m.lastError = nil
	m.refreshViewport()
	m.viewport.GotoTop()
	return m, m.setStatus("started "+conv.Title, false)
}

func (m Model) commandSwitch(args []string) (tea.Model, tea.Cmd) {
	if len(args) != 1 {
		return m, m.setStatus("usage: /switch <number> (see /list)", true)
	}
	n, err := strconv.Atoi(args[0])
	summaries := m.repo.List()
	if err != nil || n < 1 || n > len(summaries) {
		return m, m.setStatus(fmt.Sprintf("no conversation %q (1-%d)", args[0], len(summaries)), true)
	}
	return m.switchTo(summaries[n-1].ID)
}

func (m Model) switchTo(id string) (tea.Model, tea.Cmd) {
	m.cancelReveal()
	if err := m.repo.SetActive(id); err != nil {
		return m, m.setStatus(fmt.Sprintf("switch failed: %v", err), true)
	}
	m.overlay = overlayNone
	m.lastError = nil
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) commandDelete(args []string) (tea.Model, tea.Cmd) {
	summaries := m.repo.List()
	id := m.repo.ActiveID()
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(summaries) {
			return m, m.setStatus(fmt.Sprintf("no conversation %q (1-%d)", args[0], len(summaries)), true)
		}
		id = summaries[n-1].ID
	}
	return m.deleteConversation(id)
}

func (m Model) deleteConversation(id string) (tea.Model, tea.Cmd) {
	if active := m.repo.ActiveID(); active == id {
		m.cancelReveal()
	}
	if err := m.repo.Delete(id); err != nil {
		// A stale reference to an already-removed conversation is a no-op.
		if errors.Is(err, repo.ErrNotFound) {
			m.overlay = overlayNone
			m.listCursor = 0
			return m, nil
		}
		return m, m.setStatus(fmt.Sprintf("delete failed: %v", err), true)
	}
	if m.idx != nil {
		// Best effort; the watcher reindex would catch it anyway.
		_ = m.idx.RemoveConversation(id)
	}
	m.overlay = overlayNone
	m.listCursor = 0
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, m.setStatus("conversation deleted", false)
}

func (m Model) commandSystem(text string) (tea.Model, tea.Cmd) {
	conv, ok := m.repo.Active()
	if !ok {
		return m, m.setStatus("no active conversation", true)
	}
	if err := m.repo.SetSystemDirective(conv.ID, text); err != nil {
		return m, m.setStatus(fmt.Sprintf("failed to set directive: %v", err), true)
	}
	m.refreshViewport()
	if text == "" {
		return m, m.setStatus("system directive cleared", false)
	}
	return m, m.setStatus("system directive set", false)
}

func (m Model) commandExport(args []string) (tea.Model, tea.Cmd) {
	conv, ok := m.repo.Active()
	if !ok {
		return m, m.setStatus("no active conversation", true)
	}
	if conv.IsEmpty() {
		return m, m.setStatus("nothing to export yet", true)
	}
	format := "markdown"
	if len(args) > 0 {
		format = args[0]
	}
	return m, exportCmd(conv, format, ".")
}

func (m Model) commandSearch(query string) (tea.Model, tea.Cmd) {
	if m.idx == nil {
		return m, m.setStatus("search index unavailable", true)
	}
	if strings.TrimSpace(query) == "" {
		return m, m.setStatus("usage: /search <text>", true)
	}
	return m, searchCmd(m.idx, query)
}

func (m Model) commandTheme(args []string) (tea.Model, tea.Cmd) {
	if len(args) != 1 {
		return m, m.setStatus("usage: /theme dark|light|auto", true)
	}
	pref := strings.ToLower(args[0])
	switch pref {
	case "dark", "light", "auto":
	default:
		return m, m.setStatus("usage: /theme dark|light|auto", true)
	}
	if err := m.settings.SetTheme(pref); err != nil {
		return m, m.setStatus(fmt.Sprintf("failed to save theme: %v", err), true)
	}
	return m, m.setStatus("theme preference saved (applies on restart)", false)
}
