package checker

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// DefaultBlockSize is the chunk size StrictCompare reads from each stream.
const DefaultBlockSize = 64 * 1024

// StrictCompare reports whether answer and submission are byte-for-byte
// identical, including length.
func StrictCompare(answer, submission io.Reader) (bool, error) {
	return StrictCompareSize(answer, submission, DefaultBlockSize)
}

// StrictCompareSize is StrictCompare with an explicit block size. A
// non-positive size falls back to DefaultBlockSize.
func StrictCompareSize(answer, submission io.Reader, blockSize int) (bool, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	ansBuf := make([]byte, blockSize)
	usrBuf := make([]byte, blockSize)

	for {
		ansN, ansEOF, err := readBlock(answer, ansBuf)
		if err != nil {
			return false, errors.Wrap(err, "failed to read answer")
		}
		usrN, usrEOF, err := readBlock(submission, usrBuf)
		if err != nil {
			return false, errors.Wrap(err, "failed to read submission")
		}

		if ansEOF != usrEOF || ansN != usrN {
			return false, nil
		}
		if !bytes.Equal(ansBuf[:ansN], usrBuf[:usrN]) {
			return false, nil
		}
		if ansEOF {
			return true, nil
		}
	}
}

// readBlock fills buf unless the stream ends first. eof is set when the read
// ran into the end of the stream, even if some bytes were returned.
func readBlock(r io.Reader, buf []byte) (n int, eof bool, err error) {
	n, err = io.ReadFull(r, buf)
	switch err {
	case nil:
		return n, false, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return n, true, nil
	default:
		return n, false, err
	}
}
