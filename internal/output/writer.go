package output

import (
	"fmt"
	"io"
	"sync"
)

// WriterSink prints events as text. It backs the --dry flag and the tests.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "note ch=%d key=%d vel=%d dur=%.3f at=%.3f\n",
		ev.Channel, ev.Key, ev.Velocity, ev.Duration, ev.When)
	return err
}

func (s *WriterSink) Silence() error { return nil }

func (s *WriterSink) Close() error { return nil }
