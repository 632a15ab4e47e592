// Package checker implements the output comparators used to judge a
// submission's output against the expected answer.
package checker

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Func compares an answer stream with a submission stream. A mismatch is a
// false result, never an error; errors are reserved for failed reads.
type Func func(answer, submission io.Reader) (bool, error)

const (
	Strict = "strict"
	Line   = "line"
)

var ErrUnknownChecker = errors.New("unknown checker")

var registry = map[string]Func{
	Strict: StrictCompare,
	Line:   LineCompare,
}

// Canonical returns the canonical checker name for name, resolving aliases.
// An empty name selects the line checker.
func Canonical(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Line, "lcmp":
		return Line, nil
	case Strict, "fcmp":
		return Strict, nil
	default:
		return "", errors.Wrapf(ErrUnknownChecker, "%q", name)
	}
}

// Lookup resolves a checker by name or alias.
func Lookup(name string) (Func, error) {
	canonical, err := Canonical(name)
	if err != nil {
		return nil, err
	}
	return registry[canonical], nil
}

// Names lists the canonical checker names.
func Names() []string {
	return []string{Line, Strict}
}
