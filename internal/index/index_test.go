// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/parley-tui/internal/model"
)

func newConv(t *testing.T, title string, contents ...string) *model.Conversation {
	t.Helper()
	conv := model.NewConversation()
	role := model.RoleUser
	for _, content := range contents {
		conv.Append(model.NewMessage(role, content))
		if role == model.RoleUser {
			role = model.RoleAssistant
		} else {
			role = model.RoleUser
		}
	}
	if title != "" {
		conv.Title = title
	}
	return conv
}

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexAndSearch(t *testing.T) {
	idx := openTestIndex(t)

	convs := []*model.Conversation{
		newConv(t, "", "how do goroutines work", "Goroutines are lightweight threads managed by the Go runtime."),
		newConv(t, "", "best pasta recipe", "Start with good tomatoes and fresh basil."),
	}
	if err := idx.ReindexAll(convs); err != nil {
		t.Fatalf("ReindexAll() error = %v", err)
	}

	n, err := idx.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("MessageCount() = %d, want 4", n)
	}

	results, err := idx.Search("goroutines", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search(goroutines) returned %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.ConvID != convs[0].ID {
			t.Errorf("result conv = %q, want %q", r.ConvID, convs[0].ID)
		}
		if !strings.Contains(strings.ToLower(r.Snippet), "goroutines") {
			t.Errorf("snippet %q does not contain match", r.Snippet)
		}
	}

	results, err = idx.Search("basil", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ConvID != convs[1].ID {
		t.Errorf("Search(basil) = %+v, want one hit in the pasta conversation", results)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	idx := openTestIndex(t)
	if err := idx.ReindexAll([]*model.Conversation{newConv(t, "", "something")}); err != nil {
		t.Fatal(err)
	}

	for _, query := range []string{"", "   "} {
		results, err := idx.Search(query, 0)
		if err != nil {
			t.Errorf("Search(%q) error = %v", query, err)
		}
		if len(results) != 0 {
			t.Errorf("Search(%q) returned %d results, want 0", query, len(results))
		}
	}
}

func TestSearch_OperatorInputMatchedLiterally(t *testing.T) {
	idx := openTestIndex(t)
	convs := []*model.Conversation{
		newConv(t, "", `what does "AND" mean in SQL`, "AND combines two conditions."),
	}
	if err := idx.ReindexAll(convs); err != nil {
		t.Fatal(err)
	}

	// fts5 operators and quotes in user input must not break the query.
	for _, query := range []string{`AND`, `"quoted"`, `NEAR(x y)`, `term*`, `^caret`} {
		if _, err := idx.Search(query, 0); err != nil {
			t.Errorf("Search(%q) error = %v", query, err)
		}
	}
}

func TestIndexConversation_ReplacesPrevious(t *testing.T) {
	idx := openTestIndex(t)
	conv := newConv(t, "", "original question")
	if err := idx.IndexConversation(conv); err != nil {
		t.Fatal(err)
	}

	conv.Append(model.NewMessage(model.RoleAssistant, "a fresh answer"))
	if err := idx.IndexConversation(conv); err != nil {
		t.Fatal(err)
	}

	n, _ := idx.MessageCount()
	if n != 2 {
		t.Errorf("MessageCount() = %d, want 2 (no duplicates)", n)
	}
	results, err := idx.Search("fresh", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("Search(fresh) returned %d results, want 1", len(results))
	}
}

func TestRemoveConversation(t *testing.T) {
	idx := openTestIndex(t)
	keep := newConv(t, "", "keep this message")
	drop := newConv(t, "", "drop this message")
	if err := idx.ReindexAll([]*model.Conversation{keep, drop}); err != nil {
		t.Fatal(err)
	}

	if err := idx.RemoveConversation(drop.ID); err != nil {
		t.Fatalf("RemoveConversation() error = %v", err)
	}

	results, err := idx.Search("drop", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("Search(drop) returned %d results after removal, want 0", len(results))
	}
	results, _ = idx.Search("keep", 0)
	if len(results) != 1 {
		t.Errorf("Search(keep) returned %d results, want 1", len(results))
	}
}

func TestSearch_Limit(t *testing.T) {
	idx := openTestIndex(t)
	contents := make([]string, 10)
	for i := range contents {
		contents[i] = "repeated needle phrase"
	}
	if err := idx.ReindexAll([]*model.Conversation{newConv(t, "", contents...)}); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search("needle", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("Search() with limit 3 returned %d results", len(results))
	}
}

func TestStoreWatcher_FiresOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 1)
	w, err := NewStoreWatcher(path, 50*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewStoreWatcher() error = %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Simulate the store's atomic write: temp file then rename.
	tmp := filepath.Join(dir, "state.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"k":"v"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire after store change")
	}
}

func TestStoreWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 1)
	w, err := NewStoreWatcher(path, 50*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
