package checker

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// whitespace is the set of characters trimmed from the end of each line.
const whitespace = " \n\r\t"

// lineReader yields newline-delimited lines and remembers whether the
// underlying stream has been exhausted. Text ending in '\n' produces one
// trailing empty line before eof is set, and an empty stream produces a
// single empty line.
type lineReader struct {
	r   *bufio.Reader
	eof bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (lr *lineReader) next() (string, error) {
	line, err := lr.r.ReadString('\n')
	if err == io.EOF {
		lr.eof = true
		return line, nil
	}
	if err != nil {
		return "", err
	}
	return line[:len(line)-1], nil
}

func trimTrailing(s string) string {
	return strings.TrimRight(s, whitespace)
}

// LineCompare reports whether answer and submission hold the same lines once
// trailing whitespace is stripped from each line. Blank lines at the end of
// whichever stream is longer are ignored.
func LineCompare(answer, submission io.Reader) (bool, error) {
	ans := newLineReader(answer)
	usr := newLineReader(submission)

	for ans.eof == usr.eof {
		if ans.eof {
			return true, nil
		}
		s, err := ans.next()
		if err != nil {
			return false, errors.Wrap(err, "failed to read answer")
		}
		t, err := usr.next()
		if err != nil {
			return false, errors.Wrap(err, "failed to read submission")
		}
		if trimTrailing(s) != trimTrailing(t) {
			return false, nil
		}
	}

	// One stream ended first; whatever is left in the other must be blank.
	rest, name := ans, "answer"
	if ans.eof {
		rest, name = usr, "submission"
	}
	for !rest.eof {
		s, err := rest.next()
		if err != nil {
			return false, errors.Wrapf(err, "failed to read %s", name)
		}
		if trimTrailing(s) != "" {
			return false, nil
		}
	}
	return true, nil
}
