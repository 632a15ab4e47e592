package checker

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineEqual(t *testing.T, answer, submission string) bool {
	t.Helper()
	ok, err := LineCompare(strings.NewReader(answer), strings.NewReader(submission))
	require.NoError(t, err)
	return ok
}

func TestLineCompare(t *testing.T) {
	tests := []struct {
		name       string
		answer     string
		submission string
		want       bool
	}{
		{"both empty", "", "", true},
		{"identical", "a\nb\n", "a\nb\n", true},
		{"trailing whitespace per line", "a\nb\n", "a \nb\t\n", true},
		{"crlf line endings", "a\nb\n", "a\r\nb\r\n", true},
		{"answer missing final newline", "a\nb", "a\nb\n\n", true},
		{"submission missing final newline", "a\nb\n", "a\nb", true},
		{"single value without newline", "3\n", "3", true},
		{"trailing blank lines with spaces", "a\n", "a\n  \n\t\n\r\n", true},
		{"answer has trailing blank lines", "a\n\n\n", "a", true},
		{"genuine extra line", "a\nb", "a\nb\nc", false},
		{"genuine missing line", "a\nb\nc\n", "a\nb\n", false},
		{"extra line after blanks", "a\n", "a\n\n\nb\n", false},
		{"interior whitespace significant", "a b\n", "a  b\n", false},
		{"leading whitespace significant", "a\n", " a\n", false},
		{"content differs", "1\n2\n", "1\n3\n", false},
		{"empty answer non-blank submission", "", "x", false},
		{"empty answer blank submission", "", "\n\n", true},
		{"missing blank line in the middle", "a\n\nb\n", "a\nb\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lineEqual(t, tt.answer, tt.submission))
		})
	}
}

func TestLineCompareReflexive(t *testing.T) {
	inputs := []string{
		"",
		"\n",
		"a",
		"a\nb\nc\n",
		"  leading\ttabs\t\n\n\nlast",
		strings.Repeat("x", 70000) + "\n" + strings.Repeat("y ", 40000),
	}
	for _, in := range inputs {
		assert.True(t, lineEqual(t, in, in))
	}
}

func TestLineCompareSymmetricCases(t *testing.T) {
	pairs := [][2]string{
		{"a\nb", "a\nb\n\n"},
		{"a\nb", "a\nb\nc"},
		{"a b\n", "a  b\n"},
	}
	for _, p := range pairs {
		assert.Equal(t, lineEqual(t, p[0], p[1]), lineEqual(t, p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestLineCompareShortReads(t *testing.T) {
	answer := "1 2\n3 4\n"
	ok, err := LineCompare(
		iotest.OneByteReader(strings.NewReader(answer)),
		iotest.HalfReader(strings.NewReader("1 2  \n3 4\n\n")),
	)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLineCompareReadError(t *testing.T) {
	boom := errors.New("boom")

	ok, err := LineCompare(iotest.ErrReader(boom), strings.NewReader("x\n"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	// The error surfaces while scanning the leftover lines of the longer stream.
	ok, err = LineCompare(strings.NewReader("a"), iotest.TimeoutReader(strings.NewReader("a\n\n")))
	assert.False(t, ok)
	assert.ErrorIs(t, err, iotest.ErrTimeout)
}

func TestStrictAndLineDisagreeOnTrailingNewline(t *testing.T) {
	assert.True(t, lineEqual(t, "3\n", "3"))
	assert.False(t, strictEqual(t, "3\n", "3"))
}
