// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions shared across parley.
//
// It contains:
//   - Atomic file writing with fsync for crash-safe persistence
//   - Rune- and width-aware string truncation for Unicode safety
//   - Small numeric formatting helpers
package util
