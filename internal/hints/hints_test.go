// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_Python(t *testing.T) {
	body := `def divide(a, b):
    """
    @invariant: b must not be zero
    @pre: a and b are integers
    """
    # @post: result * b == a
    return a // b
`
	hs := Extract(body, "python", 10)
	var kinds []string
	for _, h := range hs {
		kinds = append(kinds, string(h.Kind))
	}
	assert.Contains(t, kinds, "invariant")
	assert.Contains(t, kinds, "pre")
	assert.Contains(t, kinds, "post")
	for _, h := range hs {
		assert.GreaterOrEqual(t, h.Line, 10)
	}
}

func TestExtract_CLikeBlockAndLine(t *testing.T) {
	body := `int clamp(int x, int lo, int hi) {
    /* @invariant: lo <= hi */
    // @requires: x is finite
    return x < lo ? lo : (x > hi ? hi : x);
}
`
	hs := Extract(body, "cpp", 1)
	var kinds []string
	for _, h := range hs {
		kinds = append(kinds, string(h.Kind))
	}
	assert.Contains(t, kinds, "invariant")
	assert.Contains(t, kinds, "requires")
}

func TestExtract_IgnoresHashInsideStringLiteral(t *testing.T) {
	body := "def f(x):\n    s = \"#not an annotation\"\n    return s\n"
	hs := Extract(body, "python", 1)
	assert.Empty(t, hs)
}

func TestExtract_DedupesSameLineAndText(t *testing.T) {
	body := "/* @invariant: x > 0 */ /* @invariant: x > 0 */\nint f(int x) { return x; }\n"
	hs := Extract(body, "cpp", 1)
	count := 0
	for _, h := range hs {
		if h.Kind == KindInvariant {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
