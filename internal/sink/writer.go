package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fim-go/internal/fim"
)

// WriterSink writes one framed message per line to an io.Writer. Newlines
// inside a message body (diff dumps) are escaped so every alert stays on
// one line.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

var _ fim.MessageSink = (*WriterSink)(nil)

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// NewFileSink appends to the file at path, creating it and its directory.
func NewFileSink(path string) (*WriterSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating alert directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("opening alert file: %w", err)
	}
	return &WriterSink{w: f, closer: f}, nil
}

var lineEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func (s *WriterSink) Send(msg fim.Message) error {
	line := lineEscaper.Replace(frame(msg)) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("writing alert: %w", err)
	}
	return nil
}

// Close closes the underlying file, if the sink owns one.
func (s *WriterSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
