package sink

import (
	"sync"

	"fim-go/internal/fim"
)

// MemorySink records every message. It is safe for concurrent use.
type MemorySink struct {
	mu       sync.Mutex
	messages []fim.Message
	err      error
}

var _ fim.MessageSink = (*MemorySink)(nil)

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Send(msg fim.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// FailWith makes every following Send return err. Pass nil to recover.
func (m *MemorySink) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Messages returns a copy of the recorded messages.
func (m *MemorySink) Messages() []fim.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fim.Message(nil), m.messages...)
}

// Bodies returns the recorded message bodies.
func (m *MemorySink) Bodies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.Body
	}
	return out
}

// Reset drops the recorded messages.
func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
