// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// A Conversation is one independent chat thread: an identity, a display
// title, an optional system directive and an ordered message history.
// Messages are immutable once appended; append is the only mutation the
// history supports. All higher-level state (active selection, persistence)
// lives in the repo package, which is the sole owner of Conversation
// mutation.
package model
