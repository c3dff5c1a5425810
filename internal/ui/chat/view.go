// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/debuglog"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/util"
)

// View renders the full chat screen.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	switch m.overlay {
	case overlayList:
		return m.viewConversationList()
	case overlayHelp:
		return m.viewHelp()
	case overlaySearch:
		return m.viewSearchResults()
	case overlayLog:
		return m.viewLog()
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.viewInput())
	b.WriteString("\n")
	b.WriteString(m.viewStatusBar())
	return b.String()
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m Model) viewHeader() string {
	title := "parley"
	if conv, ok := m.repo.Active(); ok {
		title = conv.Title
	}
	return m.theme.Header.Width(m.width).Render(util.TruncateWidth(title, m.width-4))
}

func (m Model) viewInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) viewStatusBar() string {
	var left string
	switch {
	case m.statusMsg != "" && m.statusErr:
		left = m.theme.ErrorTitle.Render(m.statusMsg)
	case m.statusMsg != "":
		left = m.theme.Success.Render(m.statusMsg)
	case m.state == StateAwaiting:
		left = m.spinner.View() + m.theme.ThinkingText.Render(" waiting for reply...")
	default:
		left = m.theme.ShortcutKey.Render("Enter") + m.theme.ShortcutDesc.Render(" send  ") +
			m.theme.ShortcutKey.Render("C-n") + m.theme.ShortcutDesc.Render(" new  ") +
			m.theme.ShortcutKey.Render("C-o") + m.theme.ShortcutDesc.Render(" list  ") +
			m.theme.ShortcutKey.Render("/help") + m.theme.ShortcutDesc.Render(" commands")
	}

	right := m.theme.ListMeta.Render(m.settings.Model())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport rebuilds the transcript from the active conversation.
func (m *Model) refreshViewport() {
	conv, ok := m.repo.Active()
	if !ok {
		m.viewport.SetContent(m.theme.ThinkingText.Render("No conversation. Press C-n to start one."))
		return
	}

	contentWidth := m.viewport.Width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	var b strings.Builder

	if conv.SystemDirective != "" {
		b.WriteString(m.theme.SystemBanner.Width(contentWidth).Render("system: " + conv.SystemDirective))
		b.WriteString("\n\n")
	}

	for _, msg := range conv.Messages {
		b.WriteString(m.renderMessage(msg, contentWidth))
		b.WriteString("\n\n")
	}

	if m.state == StateAwaiting {
		b.WriteString(m.theme.RoleAssistant.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(m.theme.ThinkingText.Render("thinking..."))
		b.WriteString("\n")
	}

	if m.lastError != nil {
		b.WriteString(m.theme.ErrorBox.Width(contentWidth).Render(describeTurnError(m.lastError)))
		b.WriteString("\n")
	}

	if conv.IsEmpty() && m.state == StateReady && m.lastError == nil {
		b.WriteString(m.theme.ThinkingText.Render("Send a message to begin."))
	}

	m.viewport.SetContent(b.String())
}

// renderMessage renders one transcript entry. The message currently
// being revealed shows only its exposed prefix, unformatted; markdown
// formatting applies once the reveal completes.
func (m *Model) renderMessage(msg model.Message, width int) string {
	var label, body string

	switch msg.Role {
	case model.RoleUser:
		label = m.theme.RoleUser.Render(msg.Role.DisplayName())
		body = m.theme.UserBubble.Width(width).Render(msg.Content)

	case model.RoleAssistant:
		label = m.theme.RoleAssistant.Render(msg.Role.DisplayName())
		if m.revealer != nil && msg.ID == m.revealMsgID {
			body = m.theme.AssistantBubble.Width(width).Render(m.revealBuf.String())
		} else if m.cfg.UI.Markdown {
			body = strings.TrimRight(m.markdown.Render(msg.Content), "\n")
		} else {
			// Markdown off still highlights fenced code blocks.
			body = m.theme.AssistantBubble.Width(width).Render(
				components.ParseCodeBlocks(msg.Content, width))
		}

	default:
		label = m.theme.Timestamp.Render(msg.Role.DisplayName())
		body = m.theme.SystemBanner.Width(width).Render(msg.Content)
	}

	timestamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	return label + " " + timestamp + "\n" + body
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) viewConversationList() string {
	summaries := m.repo.List()

	var b strings.Builder
	b.WriteString(m.theme.ListTitle.Render("Conversations"))
	b.WriteString("\n")

	for i, s := range summaries {
		marker := "  "
		if s.IsActive {
			marker = "* "
		}
		line := fmt.Sprintf("%s%2d. %s", marker, i+1,
			util.TruncateWidth(s.Title, m.width-30))
		meta := fmt.Sprintf("  %d msgs, %s", s.MessageCount, s.UpdatedAt.Format("Jan 2 15:04"))

		if i == m.listCursor {
			b.WriteString(m.theme.ListItemSelected.Render("> " + line))
		} else {
			b.WriteString(m.theme.ListItem.Render(line))
		}
		b.WriteString(m.theme.ListMeta.Render(meta))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("enter: open  d: delete  esc: close"))
	return m.theme.ListBox.Width(m.width - 4).Render(b.String())
}

func (m Model) viewSearchResults() string {
	var b strings.Builder
	b.WriteString(m.theme.ListTitle.Render(fmt.Sprintf("Results for %q", m.searchText)))
	b.WriteString("\n")

	for i, hit := range m.searchHits {
		title := util.TruncateWidth(hit.ConvTitle, m.width-12)
		snippet := util.TruncateWidth(util.Flatten(hit.Snippet), m.width-12)
		if i == m.listCursor {
			b.WriteString(m.theme.ListItemSelected.Render("> " + title))
		} else {
			b.WriteString(m.theme.ListItem.Render(title))
		}
		b.WriteString("\n")
		b.WriteString(m.theme.ListMeta.Render("    " + snippet))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("enter: open conversation  esc: close"))
	return m.theme.ListBox.Width(m.width - 4).Render(b.String())
}

func (m Model) viewLog() string {
	entries := m.log.Entries()

	var b strings.Builder
	b.WriteString(m.theme.ListTitle.Render(fmt.Sprintf("Debug log (%d entries)", len(entries))))
	b.WriteString("\n")

	// Newest last; show a tail that fits the screen.
	maxLines := m.height - 8
	if maxLines < 5 {
		maxLines = 5
	}
	start := 0
	if len(entries) > maxLines {
		start = len(entries) - maxLines
	}
	for _, e := range entries[start:] {
		label := string(e.Kind)
		switch e.Kind {
		case debuglog.KindError:
			label = m.theme.ErrorTitle.Render(label)
		case debuglog.KindRequest:
			label = m.theme.ShortcutKey.Render(label)
		default:
			label = m.theme.Success.Render(label)
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			m.theme.Timestamp.Render(e.Time.Format("15:04:05")),
			label,
			util.TruncateWidth(util.Flatten(e.Payload), m.width-24)))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("any key: close"))
	return m.theme.ListBox.Width(m.width - 4).Render(b.String())
}

func (m Model) viewHelp() string {
	rows := []struct{ cmd, desc string }{
		{"/new", "start a new conversation"},
		{"/list", "browse conversations (also C-o)"},
		{"/switch <n>", "switch to conversation n"},
		{"/delete [n]", "delete current (or nth) conversation"},
		{"/system <text>", "set the system directive (empty clears)"},
		{"/export [md|json]", "export the conversation to a file"},
		{"/search <text>", "full-text search across all messages"},
		{"/theme dark|light|auto", "save theme preference"},
		{"/log", "show the request/response debug log"},
		{"/clear", "clear the transcript view"},
		{"/quit", "exit"},
	}

	var b strings.Builder
	b.WriteString(m.theme.ListTitle.Render("Commands"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(m.theme.ShortcutKey.Render(fmt.Sprintf("  %-24s", r.cmd)))
		b.WriteString(m.theme.ShortcutDesc.Render(r.desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Esc skips the reveal animation. Any key closes this help."))
	return m.theme.ListBox.Width(m.width - 4).Render(b.String())
}
