// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/controller"
	"github.com/jeranaias/parley-tui/internal/export"
	"github.com/jeranaias/parley-tui/internal/index"
	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// awaitTurn runs the network half of a turn off the UI loop and
// delivers the outcome as a message.
func awaitTurn(ctl *controller.Controller, pending *controller.PendingTurn) tea.Cmd {
	return func() tea.Msg {
		reply, err := ctl.Await(context.Background(), pending)
		if err != nil {
			return TurnErrorMsg{ConvID: pending.ConvID, Err: err}
		}
		return TurnCompleteMsg{ConvID: pending.ConvID, Reply: reply}
	}
}

// revealTickCmd schedules the next reveal frame.
func revealTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return RevealTickMsg{}
	})
}

// expireStatusCmd clears a transient status line after a delay. The id
// guards against clearing a newer status.
func expireStatusCmd(id int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusExpiredMsg{id: id}
	})
}

// searchCmd runs a full-text search against the message index.
func searchCmd(idx *index.Index, query string) tea.Cmd {
	return func() tea.Msg {
		results, err := idx.Search(query, 20)
		if err != nil {
			return searchResultsMsg{query: query, err: err}
		}
		hits := make([]searchHit, 0, len(results))
		for _, r := range results {
			hits = append(hits, searchHit{
				ConvID:    r.ConvID,
				ConvTitle: r.ConvTitle,
				Snippet:   r.Snippet,
			})
		}
		return searchResultsMsg{query: query, results: hits}
	}
}

// exportCmd writes the conversation to a file in the given format.
func exportCmd(conv *model.Conversation, format, outputDir string) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		opts.OutputDir = outputDir
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := export.ToFile(conv, exporter, opts)
		return exportDoneMsg{path: path, err: err}
	}
}
