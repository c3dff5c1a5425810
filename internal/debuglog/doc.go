// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package debuglog provides the in-memory request/response log for parley.
//
// Every outbound completion request, its response, and any error is recorded
// here for the /log viewer. The log is an append-only ring with bounded
// retention: the most recent entries are kept, older ones are dropped. It is
// observability only - recording can never fail and never influences the
// outcome of the operation being recorded.
package debuglog
