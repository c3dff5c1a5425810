// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "fmt"

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// NetworkError is a transport-level failure: DNS, connection refused,
// timeout. The request may never have reached the provider.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a structured error reported by the provider in the response
// body, of the assumed shape {"error": {"message": ...}}.
type APIError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}

// MalformedResponseError is a transport-successful response with no
// recognizable reply field in any known envelope shape.
type MalformedResponseError struct {
	Snippet string
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	if e.Snippet == "" {
		return "malformed response: no recognizable reply field"
	}
	return fmt.Sprintf("malformed response: no recognizable reply field in %s", e.Snippet)
}
