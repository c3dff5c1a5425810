// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package debuglog

import "testing"

func TestLog_Record(t *testing.T) {
	l := New(10)

	l.Record(KindRequest, "POST /chat/completions")
	l.Record(KindResponse, "200 OK")

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("Len = %d, want 2", len(entries))
	}
	if entries[0].Kind != KindRequest || entries[1].Kind != KindResponse {
		t.Errorf("entries out of order: %v, %v", entries[0].Kind, entries[1].Kind)
	}
	if entries[0].Time.IsZero() {
		t.Error("entry time should be set")
	}
}

func TestLog_BoundedRetention(t *testing.T) {
	l := New(3)

	l.Record(KindRequest, "one")
	l.Record(KindRequest, "two")
	l.Record(KindRequest, "three")
	l.Record(KindRequest, "four")

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d, want 3", len(entries))
	}
	// Oldest entry dropped, most recent retained.
	if entries[0].Payload != "two" || entries[2].Payload != "four" {
		t.Errorf("retained wrong entries: %q .. %q", entries[0].Payload, entries[2].Payload)
	}
}

func TestLog_Clear(t *testing.T) {
	l := New(10)
	l.Record(KindError, "boom")
	l.Clear()

	if l.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", l.Len())
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := New(10)
	l.Record(KindRequest, "one")

	entries := l.Entries()
	entries[0].Payload = "tampered"

	if l.Entries()[0].Payload != "one" {
		t.Error("Entries should return a copy")
	}
}
