// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package repo owns the in-memory conversation collection and the
// active-conversation pointer.
//
// All conversation mutation flows through the Repository: create, delete,
// activate, append-message and directive edits. Every mutator commits the
// full collection and the active pointer to the durable store in a single
// atomic write before returning, so the store never reflects a partial
// update. No other component mutates conversation state directly.
package repo
