// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/controller"
)

func TestRenderReply_MarkdownEnabled(t *testing.T) {
	s := &Session{Config: config.Default()}

	out := s.renderReply("# Heading\n\nsome **bold** text")
	if !strings.Contains(out, "Heading") {
		t.Errorf("rendered output lost the heading:\n%s", out)
	}
	if !strings.Contains(out, "bold") {
		t.Errorf("rendered output lost body text:\n%s", out)
	}
}

func TestRenderReply_MarkdownDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.UI.Markdown = false
	s := &Session{Config: cfg}

	in := "# Heading\n\nplain *stars* kept"
	if got := s.renderReply(in); got != in {
		t.Errorf("renderReply altered content with markdown off:\ngot  %q\nwant %q", got, in)
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config", &controller.ConfigurationError{Missing: []string{"api key"}}, "parley setup"},
		{"network", &api.NetworkError{Err: errors.New("refused")}, "could not reach"},
		{"api", &api.APIError{Message: "model overloaded", Status: 429}, "model overloaded"},
		{"malformed", &api.MalformedResponseError{Snippet: "{}"}, "unrecognized response shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeError(tt.err)
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("describeError(%v) = %q, want substring %q", tt.err, got, tt.want)
			}
		})
	}
}
