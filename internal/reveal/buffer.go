// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"strings"
	"sync"
)

// Buffer is a thread-safe Sink that accumulates revealed text in
// memory. The UI polls String each frame to render progress.
type Buffer struct {
	mu sync.Mutex
	sb strings.Builder
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Clear discards any accumulated text.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sb.Reset()
}

// Append adds chunk to the buffer.
func (b *Buffer) Append(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sb.WriteString(chunk)
}

// String returns the text revealed so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

// Len returns the byte length of the text revealed so far.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Len()
}
