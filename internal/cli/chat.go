// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/controller"
	"github.com/jeranaias/parley-tui/internal/debuglog"
	"github.com/jeranaias/parley-tui/internal/export"
	"github.com/jeranaias/parley-tui/internal/index"
	"github.com/jeranaias/parley-tui/internal/repo"
	"github.com/jeranaias/parley-tui/internal/reveal"
	"github.com/jeranaias/parley-tui/internal/settings"
	"github.com/jeranaias/parley-tui/internal/ui/components"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// inputReader provides line editing and input history for the plain
// REPL, backed by liner.
type inputReader struct {
	line        *liner.State
	historyFile string
}

func newInputReader(dataDir string) *inputReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &inputReader{
		line:        line,
		historyFile: filepath.Join(dataDir, "chat_history"),
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *inputReader) read(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// close saves history with owner-only permissions and releases the tty.
func (r *inputReader) close() {
	if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		r.line.WriteHistory(f)
		f.Close()
	}
	r.line.Close()
}

// =============================================================================
// PLAIN REPL
// =============================================================================

// Session holds the collaborators for the line-mode chat REPL.
type Session struct {
	Repo     *repo.Repository
	Ctl      *controller.Controller
	Settings *settings.Settings
	Config   *config.Config
	Log      *debuglog.Log
	Index    *index.Index // optional
	DataDir  string

	markdown *components.MarkdownRenderer
}

// renderReply formats a completed reply for printing. Markdown
// formatting follows the config toggle; plain text passes through.
func (s *Session) renderReply(content string) string {
	if !s.Config.UI.Markdown {
		return content
	}
	if s.markdown == nil {
		s.markdown = components.NewMarkdownRenderer(TerminalWidth())
	}
	return strings.TrimRight(s.markdown.Render(content), "\n")
}

// writerSink streams reveal output straight to a writer. Clear is a
// no-op; a terminal line cannot be unprinted.
type writerSink struct {
	w io.Writer
}

func (s writerSink) Clear()              {}
func (s writerSink) Append(chunk string) { fmt.Fprint(s.w, chunk) }

// RunChat runs the plain line-mode REPL (the --plain flag). Replies are
// revealed incrementally on a TTY and printed whole otherwise.
func (s *Session) RunChat() error {
	input := newInputReader(s.DataDir)
	defer input.close()

	if conv, ok := s.Repo.Active(); ok && !conv.IsEmpty() {
		fmt.Printf("Resuming %q (%d messages). /help for commands.\n\n", conv.Title, conv.MessageCount())
	} else {
		fmt.Println("parley - /help for commands, Ctrl+D to exit.")
		fmt.Println()
	}

	for {
		text, err := input.read("parley> ")
		if err != nil {
			// Ctrl+C (ErrPromptAborted) or Ctrl+D both exit cleanly.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				fmt.Fprintf(os.Stderr, "input error: %v\n", err)
			}
			fmt.Println()
			return nil
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			quit, err := s.handleCommand(text)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := s.processMessage(text); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func (s *Session) processMessage(text string) error {
	conv, ok := s.Repo.Active()
	if !ok {
		return fmt.Errorf("no active conversation")
	}

	reply, err := s.Ctl.Submit(context.Background(), conv.ID, text)
	if err != nil {
		return describeError(err)
	}

	if IsStdoutTTY() {
		r := reveal.Start(
			reply.Content,
			s.Config.Reveal.CharsPerTick,
			reveal.DefaultTickInterval,
			writerSink{w: os.Stdout},
		)
		<-r.Done()
		fmt.Println()
	} else {
		fmt.Println(s.renderReply(reply.Content))
	}
	return nil
}

// describeError maps adapter errors onto REPL-friendly messages.
func describeError(err error) error {
	var cfgErr *controller.ConfigurationError
	var netErr *api.NetworkError
	var apiErr *api.APIError
	var malErr *api.MalformedResponseError

	switch {
	case errors.As(err, &cfgErr):
		return fmt.Errorf("missing %s - run `parley setup`", strings.Join(cfgErr.Missing, ", "))
	case errors.As(err, &netErr):
		return fmt.Errorf("could not reach the endpoint (your message was kept; try again)")
	case errors.As(err, &apiErr):
		return fmt.Errorf("endpoint error: %s", apiErr.Message)
	case errors.As(err, &malErr):
		return fmt.Errorf("the endpoint returned an unrecognized response shape (see /log)")
	default:
		return err
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand executes a /command. Returns true when the REPL should
// exit.
func (s *Session) handleCommand(input string) (bool, error) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/new":
		conv, err := s.Repo.Create()
		if err != nil {
			return false, err
		}
		fmt.Printf("started %s\n", conv.Title)
		return false, nil

	case "/list":
		s.printList()
		return false, nil

	case "/switch":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /switch <number>")
		}
		summaries := s.Repo.List()
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(summaries) {
			return false, fmt.Errorf("no conversation %q (1-%d)", args[0], len(summaries))
		}
		if err := s.Repo.SetActive(summaries[n-1].ID); err != nil {
			return false, err
		}
		fmt.Printf("switched to %q\n", summaries[n-1].Title)
		return false, nil

	case "/delete":
		return false, s.deleteCommand(args)

	case "/system":
		conv, ok := s.Repo.Active()
		if !ok {
			return false, fmt.Errorf("no active conversation")
		}
		if err := s.Repo.SetSystemDirective(conv.ID, rest); err != nil {
			return false, err
		}
		if rest == "" {
			fmt.Println("system directive cleared")
		} else {
			fmt.Println("system directive set")
		}
		return false, nil

	case "/export":
		return false, s.exportCommand(args)

	case "/search":
		return false, s.searchCommand(rest)

	case "/log":
		s.printLog()
		return false, nil

	case "/help":
		s.printHelp()
		return false, nil

	case "/quit", "/exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

func (s *Session) deleteCommand(args []string) error {
	summaries := s.Repo.List()
	id := s.Repo.ActiveID()
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(summaries) {
			return fmt.Errorf("no conversation %q (1-%d)", args[0], len(summaries))
		}
		id = summaries[n-1].ID
	}
	if err := s.Repo.Delete(id); err != nil {
		return err
	}
	if s.Index != nil {
		_ = s.Index.RemoveConversation(id)
	}
	fmt.Println("conversation deleted")
	return nil
}

func (s *Session) exportCommand(args []string) error {
	conv, ok := s.Repo.Active()
	if !ok {
		return fmt.Errorf("no active conversation")
	}
	if conv.IsEmpty() {
		return fmt.Errorf("nothing to export yet")
	}
	format := "markdown"
	if len(args) > 0 {
		format = args[0]
	}
	opts := export.DefaultOptions()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}
	path, err := export.ToFile(conv, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func (s *Session) searchCommand(query string) error {
	if s.Index == nil {
		return fmt.Errorf("search index unavailable")
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("usage: /search <text>")
	}
	results, err := s.Index.Search(query, 20)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("no matches for %q\n", query)
		return nil
	}
	for _, r := range results {
		fmt.Printf("  [%s] %s\n", r.ConvTitle, r.Snippet)
	}
	return nil
}

func (s *Session) printList() {
	for i, sum := range s.Repo.List() {
		marker := " "
		if sum.IsActive {
			marker = "*"
		}
		fmt.Printf("%s %2d. %s (%d msgs, %s)\n",
			marker, i+1, sum.Title, sum.MessageCount, sum.UpdatedAt.Format("Jan 2 15:04"))
	}
}

func (s *Session) printLog() {
	entries := s.Log.Entries()
	if len(entries) == 0 {
		fmt.Println("debug log is empty")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s %-8s %s\n", e.Time.Format("15:04:05"), e.Kind, e.Payload)
	}
}

func (s *Session) printHelp() {
	fmt.Print(`commands:
  /new                    start a new conversation
  /list                   list conversations
  /switch <n>             switch to conversation n
  /delete [n]             delete current (or nth) conversation
  /system <text>          set the system directive (empty clears)
  /export [md|json]       export the conversation to a file
  /search <text>          full-text search across all messages
  /log                    show the request/response debug log
  /quit                   exit
`)
}
