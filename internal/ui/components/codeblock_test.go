// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
)

func TestParseCodeBlocks_FencedBlock(t *testing.T) {
	in := "before\n```go\nreturn nil\n```\nafter"

	out := ParseCodeBlocks(in, 80)
	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Errorf("surrounding prose was dropped:\n%s", out)
	}
	if !strings.Contains(out, "return") {
		t.Errorf("code body was dropped:\n%s", out)
	}
	if strings.Contains(out, "```") {
		t.Errorf("fence markers leaked through:\n%s", out)
	}
}

func TestParseCodeBlocks_UnclosedFence(t *testing.T) {
	in := "```python\nprint(1)"

	out := ParseCodeBlocks(in, 80)
	if !strings.Contains(out, "print") {
		t.Errorf("unclosed fence content was dropped:\n%s", out)
	}
}

func TestParseCodeBlocks_NoFences(t *testing.T) {
	in := "just prose\nacross two lines"
	if out := ParseCodeBlocks(in, 80); out != in {
		t.Errorf("prose-only input altered:\ngot  %q\nwant %q", out, in)
	}
}
