// parley - a terminal client for OpenAI-compatible chat endpoints.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/cli"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/controller"
	"github.com/jeranaias/parley-tui/internal/debuglog"
	"github.com/jeranaias/parley-tui/internal/index"
	"github.com/jeranaias/parley-tui/internal/repo"
	"github.com/jeranaias/parley-tui/internal/settings"
	"github.com/jeranaias/parley-tui/internal/store"
	"github.com/jeranaias/parley-tui/internal/ui/chat"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	args := cli.NewArgParser(os.Args[1:])

	switch args.Subcommand() {
	case "version":
		fmt.Printf("parley %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	case "setup":
		runSetup()
	case "list":
		runList()
	case "help":
		printUsage()
	case "":
		if args.BoolFlag("version") {
			fmt.Printf("parley %s\n", Version)
			return
		}
		if args.BoolFlag("help") {
			printUsage()
			return
		}
		if args.BoolFlag("plain") || !cli.IsStdoutTTY() {
			runPlain()
		} else {
			runTUI()
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args.Subcommand())
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`parley - terminal chat for OpenAI-compatible endpoints

usage:
  parley              launch the chat TUI
  parley --plain      line-mode REPL (no alternate screen)
  parley setup        interactive configuration wizard
  parley list         list stored conversations
  parley version      print version information

environment:
  PARLEY_DATA_DIR, PARLEY_BASE_URL, PARLEY_MODEL,
  PARLEY_TIMEOUT_SECS, PARLEY_THEME override config.toml.
`)
}

// =============================================================================
// WIRING
// =============================================================================

// app bundles everything the entry points share.
type app struct {
	cfg      *config.Config
	dataDir  string
	store    *store.FileStore
	settings *settings.Settings
	repo     *repo.Repository
	log      *debuglog.Log
	ctl      *controller.Controller
	idx      *index.Index        // nil when the index could not open
	watcher  *index.StoreWatcher // nil when idx is nil
}

func (a *app) close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.idx != nil {
		a.idx.Close()
	}
}

// buildApp wires the full stack. The search index is best-effort: a
// failure to open it disables /search but never blocks chatting.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}

	st, err := store.Open(filepath.Join(dataDir, "state.json"))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	ks, err := settings.OpenKeystore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening keystore: %w", err)
	}
	sets := settings.New(st, ks, cfg.API.BaseURL, cfg.API.Model)

	r, err := repo.Open(st)
	if err != nil {
		return nil, fmt.Errorf("opening conversations: %w", err)
	}

	log := debuglog.New(0)
	client := api.NewClient(log).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second)
	ctl := controller.New(r, sets, client, log)

	a := &app{
		cfg:      cfg,
		dataDir:  dataDir,
		store:    st,
		settings: sets,
		repo:     r,
		log:      log,
		ctl:      ctl,
	}

	// RELIABILITY: a corrupt or locked index is not fatal.
	idx, err := index.Open(filepath.Join(dataDir, "index.db"))
	if err != nil {
		log.Record(debuglog.KindError, fmt.Sprintf("search index unavailable: %v", err))
		return a, nil
	}
	a.idx = idx
	if err := idx.ReindexAll(r.All()); err != nil {
		log.Record(debuglog.KindError, fmt.Sprintf("initial reindex failed: %v", err))
	}

	// Keep the index current when another process rewrites the store.
	w, err := index.NewStoreWatcher(st.Path(), index.DefaultWatchDebounce, func() {
		if err := st.Reload(); err != nil {
			return
		}
		if err := r.Reload(); err != nil {
			return
		}
		if err := idx.ReindexAll(r.All()); err != nil {
			log.Record(debuglog.KindError, fmt.Sprintf("reindex failed: %v", err))
		}
	})
	if err == nil {
		if err := w.Watch(); err == nil {
			a.watcher = w
		} else {
			w.Close()
		}
	}
	return a, nil
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

func runTUI() {
	a, err := buildApp()
	if err != nil {
		fatal(err)
	}
	defer a.close()

	// A stored theme preference wins over the config file.
	pref := a.settings.Theme()
	if pref == "" {
		pref = a.cfg.UI.Theme
	}
	styles.ApplyPreference(pref)
	theme := styles.NewTheme()

	m := chat.New(chat.Deps{
		Repo:     a.repo,
		Ctl:      a.ctl,
		Settings: a.settings,
		Config:   a.cfg,
		Log:      a.log,
		Index:    a.idx,
	}, theme)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatal(fmt.Errorf("running TUI: %w", err))
	}
}

func runPlain() {
	a, err := buildApp()
	if err != nil {
		fatal(err)
	}
	defer a.close()

	s := &cli.Session{
		Repo:     a.repo,
		Ctl:      a.ctl,
		Settings: a.settings,
		Config:   a.cfg,
		Log:      a.log,
		Index:    a.idx,
		DataDir:  a.dataDir,
	}
	if err := s.RunChat(); err != nil {
		fatal(err)
	}
}

func runSetup() {
	a, err := buildApp()
	if err != nil {
		fatal(err)
	}
	defer a.close()

	if err := cli.RunSetup(a.settings); err != nil {
		fatal(err)
	}
}

func runList() {
	a, err := buildApp()
	if err != nil {
		fatal(err)
	}
	defer a.close()

	summaries := a.repo.List()
	if len(summaries) == 0 {
		fmt.Println("no conversations yet")
		return
	}
	for i, s := range summaries {
		marker := " "
		if s.IsActive {
			marker = "*"
		}
		fmt.Printf("%s %2d. %s (%d msgs, %s)\n",
			marker, i+1, s.Title, s.MessageCount, s.UpdatedAt.Format("Jan 2 15:04"))
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "parley: %v\n", err)
	os.Exit(1)
}
