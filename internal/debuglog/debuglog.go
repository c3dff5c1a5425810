// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package debuglog

import (
	"sync"
	"time"
)

// DefaultMaxEntries is the default bounded retention for the ring.
const DefaultMaxEntries = 200

// =============================================================================
// KINDS
// =============================================================================

// Kind classifies a log entry.
type Kind string

const (
	KindRequest  Kind = "REQUEST"
	KindResponse Kind = "RESPONSE"
	KindError    Kind = "ERROR"
)

// =============================================================================
// SINK INTERFACE
// =============================================================================

// Sink is the recording contract components depend on. Recording is
// fire-and-forget: it has no error return so a logging problem can never
// mask the outcome of the operation being logged.
type Sink interface {
	Record(kind Kind, payload string)
}

// Discard is a Sink that drops everything. Useful in tests.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(Kind, string) {}

// =============================================================================
// LOG RING
// =============================================================================

// Entry is one recorded debug event.
type Entry struct {
	Kind    Kind
	Payload string
	Time    time.Time
}

// Log is a bounded, append-only ring of debug entries.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// New creates a log retaining at most max entries. A max of zero or less
// uses DefaultMaxEntries.
func New(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{max: max}
}

// Record appends an entry, dropping the oldest when over capacity.
func (l *Log) Record(kind Kind, payload string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{
		Kind:    kind,
		Payload: payload,
		Time:    time.Now(),
	})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops all retained entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
