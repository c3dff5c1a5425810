// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"

	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// REPLY EXTRACTION
// =============================================================================

// envelope covers the response shapes of the OpenAI-compatible providers we
// have seen in the wild. Providers vary the envelope, so extraction probes a
// significance-ordered list of candidate fields and the first match wins; no
// merging of multiple candidates.
type envelope struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`

	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`

	OutputText string `json:"output_text"`
	Content    string `json:"content"`
}

// extractReply pulls the assistant text out of a raw response body.
//
// Probe order:
//  1. choices[0].message.content (chat completions)
//  2. choices[0].text            (legacy completions)
//  3. output_text                (responses-style APIs)
//  4. content                    (bare content envelope)
//
// A body carrying an {"error":{"message":...}} object fails with *APIError
// regardless of HTTP status, since some providers report errors with 200.
func extractReply(body []byte, status int) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &MalformedResponseError{Snippet: snippet(body)}
	}

	if env.Error != nil && env.Error.Message != "" {
		return "", &APIError{Message: env.Error.Message, Status: status}
	}

	if len(env.Choices) > 0 {
		if c := env.Choices[0].Message.Content; c != "" {
			return c, nil
		}
		if c := env.Choices[0].Text; c != "" {
			return c, nil
		}
	}
	if env.OutputText != "" {
		return env.OutputText, nil
	}
	if env.Content != "" {
		return env.Content, nil
	}

	return "", &MalformedResponseError{Snippet: snippet(body)}
}

// snippet bounds a body for inclusion in an error message.
func snippet(body []byte) string {
	return util.TruncateRunes(string(body), 120)
}
