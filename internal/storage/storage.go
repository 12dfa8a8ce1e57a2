package storage

import (
	"io"
	"os"
)

// Sink is a destination for an encoded batch output. Put reports whether the
// destination was modified.
type Sink interface {
	Put(data []byte) (bool, error)
}

// NewSink returns a WriterSink for "-" (using stdout) and a FileSink otherwise.
func NewSink(path string, stdout io.Writer) Sink {
	if path == "" || path == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return NewWriterSink(stdout)
	}
	return NewFileSink(path)
}
