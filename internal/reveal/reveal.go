// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal implements the incremental display of a completed
// assistant reply.
//
// The full reply text is already in hand when a reveal starts; the
// Revealer exposes it a few characters at a time so the response appears
// to be typed out. Ticks can be driven two ways:
//  1. Manually via Tick(), for callers with their own frame loop
//     (the Bubble Tea UI polls on a timer).
//  2. Automatically via Run(), which starts an internal ticker goroutine
//     (used by the plain line-mode REPL).
//
// A reveal is cancellable at any point; cancellation is permanent and
// idempotent. The stored conversation always holds the full reply -
// the reveal is presentation only.
package reveal

import (
	"context"
	"sync"
	"time"
)

// DefaultCharsPerTick is how many characters each tick exposes.
const DefaultCharsPerTick = 2

// DefaultTickInterval is the pacing used by Run.
// PERFORMANCE: ~30fps, smooth without excessive redraw.
const DefaultTickInterval = 33 * time.Millisecond

// Sink receives reveal output. Clear is called once when the reveal
// starts; Append is called with each newly exposed chunk.
type Sink interface {
	Clear()
	Append(chunk string)
}

// =============================================================================
// REVEALER
// =============================================================================

// Revealer exposes a fixed text chunk by chunk.
//
// Thread-safety: all methods are protected by a mutex since Run ticks
// from a goroutine while the owner may Cancel or query from another.
type Revealer struct {
	mu           sync.Mutex
	text         []rune
	pos          int
	charsPerTick int
	sink         Sink
	cancelled    bool
	done         chan struct{}
	doneOnce     sync.Once
	stop         context.CancelFunc
}

// New creates a Revealer over text without starting any goroutine.
// The sink is cleared immediately. Callers drive progress with Tick.
func New(text string, charsPerTick int, sink Sink) *Revealer {
	if charsPerTick <= 0 {
		charsPerTick = DefaultCharsPerTick
	}
	r := &Revealer{
		// UNICODE: reveal rune-by-rune so multi-byte characters are
		// never split mid-sequence.
		text:         []rune(text),
		charsPerTick: charsPerTick,
		sink:         sink,
		done:         make(chan struct{}),
	}
	sink.Clear()
	if len(r.text) == 0 {
		r.finish()
	}
	return r
}

// Start creates a Revealer and immediately begins ticking it on an
// internal goroutine at the given interval.
func Start(text string, charsPerTick int, interval time.Duration, sink Sink) *Revealer {
	r := New(text, charsPerTick, sink)
	r.Run(interval)
	return r
}

// Tick exposes the next chunk. Returns true while the reveal is still
// in progress, false once it has completed or been cancelled. A tick
// after completion or cancellation is a no-op.
func (r *Revealer) Tick() bool {
	r.mu.Lock()

	if r.cancelled || r.pos >= len(r.text) {
		r.mu.Unlock()
		return false
	}

	end := r.pos + r.charsPerTick
	if end > len(r.text) {
		end = len(r.text)
	}
	chunk := string(r.text[r.pos:end])
	r.pos = end
	finished := r.pos >= len(r.text)
	sink := r.sink
	r.mu.Unlock()

	// Append outside the lock: sinks may render synchronously.
	sink.Append(chunk)

	if finished {
		r.finish()
		return false
	}
	return true
}

// Run drives Tick on an internal goroutine until the reveal completes
// or is cancelled. Wait on Done for completion.
func (r *Revealer) Run(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.stop = cancel
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !r.Tick() {
					return
				}
			}
		}
	}()
}

// Cancel permanently stops the reveal. Already exposed text stays in
// the sink; nothing further is appended. Safe to call multiple times
// and after completion.
func (r *Revealer) Cancel() {
	r.mu.Lock()
	r.cancelled = true
	stop := r.stop
	r.mu.Unlock()

	if stop != nil {
		stop()
	}
	r.finish()
}

// Done returns a channel closed when the reveal completes or is
// cancelled.
func (r *Revealer) Done() <-chan struct{} {
	return r.done
}

// IsDone reports whether the reveal has completed or been cancelled.
func (r *Revealer) IsDone() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Revealed returns how many characters have been exposed so far.
func (r *Revealer) Revealed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// Total returns the total character count of the reveal text.
func (r *Revealer) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.text)
}

func (r *Revealer) finish() {
	r.doneOnce.Do(func() { close(r.done) })
}
