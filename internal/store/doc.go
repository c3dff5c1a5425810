// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides durable key-value persistence for parley.
//
// The store backs the conversation collection, the active-conversation
// pointer and the settings passthrough values (credential, base URL, model,
// theme). It is a single JSON file written atomically with fsync on every
// mutation, so a crash never leaves a partially written state file.
package store
