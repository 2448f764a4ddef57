// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/sessiongate/pkg/slug"
)

func TestFrom(t *testing.T) {
	tests := map[string]string{
		"Zoë Ådler":         "zoe-adler",
		"  Hello,  World! ": "hello-world",
		"ada.lovelace":      "ada-lovelace",
		"日本":                "",
		"---":               "",
	}

	for input, want := range tests {
		assert.Equal(t, want, slug.From(input), input)
	}
}

func TestUsername(t *testing.T) {
	assert.Equal(t, "ada-lovelace", slug.Username(32, "user", "", "Ada Lovelace"))
	assert.Equal(t, "user", slug.Username(32, "user", "!!!", ""))
	assert.Equal(t, "abc", slug.Username(4, "user", "abc-def"))
}
