package storage

import (
	"fmt"
	"io"
	"sync"
)

// WriterSink writes every output to an io.Writer.
type WriterSink struct {
	w  io.Writer
	mu sync.Mutex
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Put(data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(data); err != nil {
		return false, fmt.Errorf("write output: %w", err)
	}
	return true, nil
}
