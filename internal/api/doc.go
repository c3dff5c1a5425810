// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the completion adapter for OpenAI-compatible
// chat endpoints.
//
// The adapter turns a conversation's directive and history into a single
// POST <base>/chat/completions request with bearer authorization, and
// extracts the assistant reply from the heterogeneous response envelopes
// that different compatible providers return. There are no automatic
// retries anywhere: a failed turn is retried only by the user resubmitting.
package api
