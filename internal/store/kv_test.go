// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestFileStore_SetGet(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("model", "gpt-4o-mini"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, ok := s.Get("model")
	if !ok || v != "gpt-4o-mini" {
		t.Errorf("Get = (%q, %v), want (%q, true)", v, ok, "gpt-4o-mini")
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("Get of missing key should report absent")
	}
}

func TestFileStore_Remove(t *testing.T) {
	s := newTestStore(t)

	s.Set("theme", "dark")
	if err := s.Remove("theme"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := s.Get("theme"); ok {
		t.Error("key should be gone after Remove")
	}

	// Removing an absent key is a no-op, not an error.
	if err := s.Remove("theme"); err != nil {
		t.Errorf("Remove of absent key returned error: %v", err)
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s1.Set("api_key", "sk-test")
	s1.Set("conversations", `[{"id":"conv_1","title":"héllo 世界"}]`)

	// Simulate a process restart.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	v, ok := s2.Get("conversations")
	if !ok || v != `[{"id":"conv_1","title":"héllo 世界"}]` {
		t.Errorf("value did not round-trip exactly, got %q", v)
	}
	if v, _ := s2.Get("api_key"); v != "sk-test" {
		t.Errorf("api_key = %q, want %q", v, "sk-test")
	}
}

func TestFileStore_Apply(t *testing.T) {
	s := newTestStore(t)
	s.Set("active_conversation", "conv_1")

	err := s.Apply(map[string]string{
		"conversations": "[]",
	}, []string{"active_conversation"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if _, ok := s.Get("active_conversation"); ok {
		t.Error("removed key still present after Apply")
	}
	if v, _ := s.Get("conversations"); v != "[]" {
		t.Errorf("conversations = %q, want %q", v, "[]")
	}
}

func TestFileStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s1, _ := Open(path)
	s1.Set("model", "first")

	// A second handle writes a newer value.
	s2, _ := Open(path)
	s2.Set("model", "second")

	if err := s1.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if v, _ := s1.Get("model"); v != "second" {
		t.Errorf("after Reload model = %q, want %q", v, "second")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "does", "not", "exist.json"))
	if err != nil {
		t.Fatalf("Open of missing file should succeed, got %v", err)
	}
	if _, ok := s.Get("anything"); ok {
		t.Error("fresh store should be empty")
	}
}
