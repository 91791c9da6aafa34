package output

import (
	"errors"
	"io"
	"os"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("output: writer closed")

func isStdStream(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (f == os.Stdout || f == os.Stderr)
}
