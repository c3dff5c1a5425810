// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main conversation view for the parley TUI.
//
// The view is a standard Bubble Tea model: a viewport showing the
// conversation transcript, a single-line input, and a status bar.
// Completed replies are revealed incrementally; slash commands manage
// conversations, settings, search, and export.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/controller"
	"github.com/jeranaias/parley-tui/internal/debuglog"
	"github.com/jeranaias/parley-tui/internal/index"
	"github.com/jeranaias/parley-tui/internal/repo"
	"github.com/jeranaias/parley-tui/internal/reveal"
	"github.com/jeranaias/parley-tui/internal/settings"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady    State = iota // Ready for input
	StateAwaiting              // Waiting for the endpoint to reply
)

// overlay identifies which full-screen overlay is open, if any.
type overlay int

const (
	overlayNone overlay = iota
	overlayList
	overlayHelp
	overlaySearch
	overlayLog
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Deps carries the collaborators the chat view needs.
type Deps struct {
	Repo     *repo.Repository
	Ctl      *controller.Controller
	Settings *settings.Settings
	Config   *config.Config
	Log      *debuglog.Log
	Index    *index.Index // optional; nil disables /search
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state   State
	overlay overlay

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Collaborators
	repo     *repo.Repository
	ctl      *controller.Controller
	settings *settings.Settings
	cfg      *config.Config
	log      *debuglog.Log
	idx      *index.Index

	// Reveal of the latest reply
	revealer     *reveal.Revealer
	revealBuf    *reveal.Buffer
	revealMsgID  string
	revealTick   time.Duration
	charsPerTick int

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	markdown *components.MarkdownRenderer

	// Key bindings
	keyMap KeyMap

	// Status line
	statusMsg  string
	statusErr  bool
	statusSeq  int
	lastError  error
	awaitStart time.Time

	// Conversation list overlay
	listCursor int

	// Search overlay
	searchHits []searchHit
	searchText string
}

// New creates the chat model.
func New(deps Deps, theme *styles.Theme) Model {
	input := textinput.New()
	input.Placeholder = "Type a message, or / for commands"
	input.Prompt = "> "
	input.CharLimit = 0
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		state:        StateReady,
		theme:        theme,
		repo:         deps.Repo,
		ctl:          deps.Ctl,
		settings:     deps.Settings,
		cfg:          deps.Config,
		log:          deps.Log,
		idx:          deps.Index,
		revealBuf:    reveal.NewBuffer(),
		revealTick:   time.Duration(deps.Config.Reveal.TickMs) * time.Millisecond,
		charsPerTick: deps.Config.Reveal.CharsPerTick,
		viewport:     viewport.New(80, 20),
		input:        input,
		spinner:      sp,
		markdown:     components.NewMarkdownRenderer(78),
		keyMap:       DefaultKeyMap(),
	}
}

// Init starts the cursor blink and spinner. The transcript renders on
// the first WindowSizeMsg.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// revealing reports whether a reveal is still in progress.
func (m Model) revealing() bool {
	return m.revealer != nil && !m.revealer.IsDone()
}

// finishReveal exposes the full reply immediately.
func (m *Model) finishReveal() {
	if m.revealer == nil {
		return
	}
	for m.revealer.Tick() {
	}
	m.refreshViewport()
}

// cancelReveal permanently stops an in-progress reveal. The stored
// conversation always holds the full reply, so nothing is lost.
func (m *Model) cancelReveal() {
	if m.revealer != nil {
		m.revealer.Cancel()
		m.revealer = nil
		m.revealMsgID = ""
	}
}

// setStatus shows a transient status line and returns the command that
// later clears it.
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusMsg = text
	m.statusErr = isErr
	m.statusSeq++
	return expireStatusCmd(m.statusSeq)
}
