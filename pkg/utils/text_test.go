package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verifai/automcp/pkg/utils"
)

func TestCollapseWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  My Folder  ", "My Folder"},
		{"a\t\tb\n c", "a b c"},
		{"already clean", "already clean"},
		{"   ", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, utils.CollapseWhitespace(c.in))
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", utils.TruncateRunes("abc", 5))
	assert.Equal(t, "abc", utils.TruncateRunes("abcdef", 3))
	assert.Equal(t, "héll", utils.TruncateRunes("héllo", 4))
	assert.Equal(t, "abcdef", utils.TruncateRunes("abcdef", 0))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, utils.ContainsFold("Refund Policy", "refund"))
	assert.True(t, utils.ContainsFold("nothing", ""))
	assert.False(t, utils.ContainsFold("Refund", "refunds"))
}
