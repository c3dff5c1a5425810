// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repo

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/store"
)

func newTestRepo(t *testing.T) (*Repository, *store.FileStore) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	r, err := Open(st)
	if err != nil {
		t.Fatalf("repo.Open failed: %v", err)
	}
	return r, st
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestOpen_CreatesFirstConversation(t *testing.T) {
	r, _ := newTestRepo(t)

	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (implicit first conversation)", r.Len())
	}
	if _, ok := r.Active(); !ok {
		t.Error("first conversation should be active")
	}
}

func TestCreate_FrontOfOrderAndActive(t *testing.T) {
	r, _ := newTestRepo(t)

	c2, err := r.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list := r.List()
	if list[0].ID != c2.ID {
		t.Errorf("newest conversation should be first, got %q", list[0].ID)
	}
	if !list[0].IsActive {
		t.Error("newest conversation should be active")
	}
	if r.ActiveID() != c2.ID {
		t.Errorf("ActiveID = %q, want %q", r.ActiveID(), c2.ID)
	}
}

// Creating N conversations then deleting the active one always leaves
// exactly one conversation active unless the collection is empty.
func TestDelete_ActiveReassignment(t *testing.T) {
	for n := 1; n <= 5; n++ {
		r, _ := newTestRepo(t)
		for i := 1; i < n; i++ {
			if _, err := r.Create(); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		if err := r.Delete(r.ActiveID()); err != nil {
			t.Fatalf("n=%d: Delete failed: %v", n, err)
		}

		if n == 1 {
			if id := r.ActiveID(); id != "" {
				t.Errorf("n=1: active = %q, want unset on empty collection", id)
			}
			continue
		}

		active := 0
		for _, s := range r.List() {
			if s.IsActive {
				active++
			}
		}
		if active != 1 {
			t.Errorf("n=%d: %d active conversations, want exactly 1", n, active)
		}
	}
}

func TestDelete_NonActiveKeepsActive(t *testing.T) {
	r, _ := newTestRepo(t)
	first := r.ActiveID()
	second, _ := r.Create()

	if err := r.Delete(first); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if r.ActiveID() != second.ID {
		t.Errorf("active = %q, want untouched %q", r.ActiveID(), second.ID)
	}
}

func TestDelete_AbsentID(t *testing.T) {
	r, _ := newTestRepo(t)

	err := r.Delete("conv_nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete of absent id = %v, want ErrNotFound", err)
	}
}

func TestSetActive(t *testing.T) {
	r, _ := newTestRepo(t)
	first := r.ActiveID()
	r.Create()

	if err := r.SetActive(first); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if r.ActiveID() != first {
		t.Errorf("ActiveID = %q, want %q", r.ActiveID(), first)
	}

	if err := r.SetActive("conv_nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive of absent id = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestAppendMessage(t *testing.T) {
	r, _ := newTestRepo(t)
	id := r.ActiveID()

	if _, err := r.AppendMessage(id, model.RoleUser, "Explain recursion in depth"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	conv, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if conv.MessageCount() != 1 {
		t.Fatalf("MessageCount = %d, want 1", conv.MessageCount())
	}
	if conv.Title == model.DefaultTitle {
		t.Error("title should be set from first user message")
	}

	if _, err := r.AppendMessage("conv_nope", model.RoleUser, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AppendMessage to absent id = %v, want ErrNotFound", err)
	}
}

func TestSetSystemDirective(t *testing.T) {
	r, _ := newTestRepo(t)
	id := r.ActiveID()

	if err := r.SetSystemDirective(id, "You are terse."); err != nil {
		t.Fatalf("SetSystemDirective failed: %v", err)
	}
	conv, _ := r.Get(id)
	if conv.SystemDirective != "You are terse." {
		t.Errorf("SystemDirective = %q", conv.SystemDirective)
	}

	if err := r.SetSystemDirective("conv_nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetSystemDirective to absent id = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// PERSISTENCE TESTS
// =============================================================================

// appendMessage followed by a persistence round-trip reproduces an identical
// ordered message sequence, including empty strings and Unicode content.
func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st, _ := store.Open(path)
	r, err := Open(st)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id := r.ActiveID()

	inputs := []struct {
		role    model.Role
		content string
	}{
		{model.RoleUser, "héllo 世界 🌍"},
		{model.RoleAssistant, ""},
		{model.RoleUser, "line\none\nline two\ttabbed"},
		{model.RoleSystem, `quotes "and" backslashes \`},
	}
	for _, in := range inputs {
		if _, err := r.AppendMessage(id, in.role, in.content); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}
	r.SetSystemDirective(id, "directive ünïcode")

	// Simulate a restart: fresh store handle, fresh repository.
	st2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen store failed: %v", err)
	}
	r2, err := Open(st2)
	if err != nil {
		t.Fatalf("reopen repo failed: %v", err)
	}

	conv, err := r2.Get(id)
	if err != nil {
		t.Fatalf("Get after restart failed: %v", err)
	}
	if conv.MessageCount() != len(inputs) {
		t.Fatalf("MessageCount = %d, want %d", conv.MessageCount(), len(inputs))
	}
	for i, in := range inputs {
		got := conv.Messages[i]
		if got.Role != in.role || got.Content != in.content {
			t.Errorf("message %d = (%q, %q), want (%q, %q)",
				i, got.Role, got.Content, in.role, in.content)
		}
	}
	if conv.SystemDirective != "directive ünïcode" {
		t.Errorf("SystemDirective = %q", conv.SystemDirective)
	}
	if r2.ActiveID() != id {
		t.Errorf("ActiveID after restart = %q, want %q", r2.ActiveID(), id)
	}
}

func TestDelete_ActivePointerPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st, _ := store.Open(path)
	r, _ := Open(st)
	r.Create()
	r.Delete(r.ActiveID())
	want := r.ActiveID()

	st2, _ := store.Open(path)
	r2, err := Open(st2)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if r2.ActiveID() != want {
		t.Errorf("ActiveID after restart = %q, want %q", r2.ActiveID(), want)
	}
}

func TestLoad_DanglingActivePointer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st, _ := store.Open(path)
	r, _ := Open(st)
	id := r.ActiveID()

	// Corrupt the pointer behind the repository's back.
	st.Set(KeyActive, "conv_gone")

	st2, _ := store.Open(path)
	r2, err := Open(st2)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	// The dangling pointer must be repaired to an existing conversation.
	if r2.ActiveID() != id {
		t.Errorf("ActiveID = %q, want repaired to %q", r2.ActiveID(), id)
	}
}

// =============================================================================
// ISOLATION TESTS
// =============================================================================

func TestGet_ReturnsCopy(t *testing.T) {
	r, _ := newTestRepo(t)
	id := r.ActiveID()
	r.AppendMessage(id, model.RoleUser, "original")

	conv, _ := r.Get(id)
	conv.Append(model.NewMessage(model.RoleUser, "smuggled"))

	fresh, _ := r.Get(id)
	if fresh.MessageCount() != 1 {
		t.Errorf("external mutation leaked into repository, count = %d", fresh.MessageCount())
	}
}

// flakyStore wraps a Store and fails Apply on demand, for exercising
// commit rollback paths.
type flakyStore struct {
	store.Store
	failApply bool
}

func (f *flakyStore) Apply(set map[string]string, remove []string) error {
	if f.failApply {
		return errors.New("disk full")
	}
	return f.Store.Apply(set, remove)
}

func TestCreate_FailedCommitRestoresActivePointer(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	fs := &flakyStore{Store: st}
	r, err := Open(fs)
	if err != nil {
		t.Fatalf("repo.Open failed: %v", err)
	}

	c2, err := r.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Make the older conversation active before the failing create.
	first := r.List()[1].ID
	if err := r.SetActive(first); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	fs.failApply = true
	if _, err := r.Create(); err == nil {
		t.Fatal("Create should fail when the commit fails")
	}

	if r.ActiveID() != first {
		t.Errorf("ActiveID = %q, want %q (pre-call active pointer)", r.ActiveID(), first)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2 (failed create must not leave a conversation)", r.Len())
	}
	if r.List()[0].ID != c2.ID {
		t.Errorf("order head = %q, want %q", r.List()[0].ID, c2.ID)
	}
}
