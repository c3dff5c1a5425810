// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"testing"
	"time"
)

func TestReveal_NothingBeforeFirstTick(t *testing.T) {
	buf := NewBuffer()
	r := New("Hello there", 1, buf)

	if got := buf.String(); got != "" {
		t.Errorf("before first tick buffer = %q, want empty", got)
	}
	if r.IsDone() {
		t.Error("reveal done before any tick")
	}
}

func TestReveal_CompleteAfterExactTicks(t *testing.T) {
	const text = "Hello there"
	buf := NewBuffer()
	r := New(text, 1, buf)

	ticks := 0
	for r.Tick() {
		ticks++
	}
	ticks++ // final Tick returned false but exposed the last chunk

	if ticks != len([]rune(text)) {
		t.Errorf("ticks = %d, want %d", ticks, len([]rune(text)))
	}
	if got := buf.String(); got != text {
		t.Errorf("buffer = %q, want %q", got, text)
	}
	if !r.IsDone() {
		t.Error("reveal not done after final tick")
	}
}

func TestReveal_NoSkipsNoDuplicates(t *testing.T) {
	const text = "abcdefghij"
	buf := NewBuffer()
	r := New(text, 3, buf)

	// Each tick appends exactly the next chunk; cumulative content is
	// always a prefix of the full text.
	prev := ""
	for {
		more := r.Tick()
		got := buf.String()
		if len(got) < len(prev) || got[:len(prev)] != prev {
			t.Fatalf("buffer regressed: had %q, now %q", prev, got)
		}
		if got != text[:len(got)] {
			t.Fatalf("buffer %q is not a prefix of %q", got, text)
		}
		prev = got
		if !more {
			break
		}
	}
	if prev != text {
		t.Errorf("final buffer = %q, want %q", prev, text)
	}
}

func TestReveal_Unicode(t *testing.T) {
	const text = "héllo 世界 🎉"
	buf := NewBuffer()
	r := New(text, 1, buf)

	for r.Tick() {
	}
	if got := buf.String(); got != text {
		t.Errorf("buffer = %q, want %q", got, text)
	}
	if r.Total() != len([]rune(text)) {
		t.Errorf("Total() = %d, want rune count %d", r.Total(), len([]rune(text)))
	}
}

func TestReveal_CancelMidway(t *testing.T) {
	buf := NewBuffer()
	r := New("abcdefghij", 2, buf)

	r.Tick()
	r.Tick()
	partial := buf.String()
	if partial != "abcd" {
		t.Fatalf("after 2 ticks buffer = %q, want %q", partial, "abcd")
	}

	r.Cancel()

	// Ticks after cancellation are no-ops.
	if r.Tick() {
		t.Error("Tick() = true after cancel")
	}
	if got := buf.String(); got != partial {
		t.Errorf("buffer changed after cancel: %q, want %q", got, partial)
	}
	if !r.IsDone() {
		t.Error("reveal not done after cancel")
	}

	// Cancel is idempotent.
	r.Cancel()
}

func TestReveal_EmptyText(t *testing.T) {
	buf := NewBuffer()
	r := New("", 2, buf)

	if !r.IsDone() {
		t.Error("empty reveal should be done immediately")
	}
	if r.Tick() {
		t.Error("Tick() = true on empty reveal")
	}
}

func TestReveal_ClearsSinkOnStart(t *testing.T) {
	buf := NewBuffer()
	buf.Append("stale text from previous reveal")

	New("new", 1, buf)
	if got := buf.String(); got != "" {
		t.Errorf("sink not cleared on start: %q", got)
	}
}

func TestReveal_IndependentSinks(t *testing.T) {
	bufA := NewBuffer()
	bufB := NewBuffer()
	a := New("aaaa", 1, bufA)
	b := New("bbbb", 1, bufB)

	a.Tick()
	a.Tick()
	b.Tick()

	if got := bufA.String(); got != "aa" {
		t.Errorf("sink A = %q, want %q", got, "aa")
	}
	if got := bufB.String(); got != "b" {
		t.Errorf("sink B = %q, want %q", got, "b")
	}
}

func TestRun_CompletesAndSignalsDone(t *testing.T) {
	const text = "run to completion"
	buf := NewBuffer()
	r := Start(text, 4, time.Millisecond, buf)

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("reveal did not complete in time")
	}

	if got := buf.String(); got != text {
		t.Errorf("buffer = %q, want %q", got, text)
	}
}

func TestRun_Cancel(t *testing.T) {
	buf := NewBuffer()
	r := Start("a long response that takes a while to reveal", 1, 50*time.Millisecond, buf)

	r.Cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("cancel did not signal done")
	}

	// Give any in-flight tick a moment, then confirm no further growth.
	snapshot := buf.Len()
	time.Sleep(120 * time.Millisecond)
	if buf.Len() != snapshot {
		t.Errorf("buffer grew after cancel: %d -> %d", snapshot, buf.Len())
	}
}

func TestReveal_DefaultCharsPerTick(t *testing.T) {
	buf := NewBuffer()
	r := New("abcdef", 0, buf)

	r.Tick()
	if got := buf.String(); len([]rune(got)) != DefaultCharsPerTick {
		t.Errorf("first tick revealed %q, want %d chars", got, DefaultCharsPerTick)
	}
}
