package sink

import (
	"fmt"
	"net"
	"sync"
	"time"

	"fim-go/internal/fim"
)

// SocketSink writes framed messages to a unix datagram queue socket.
// A failed write reconnects once and retries.
type SocketSink struct {
	address string
	logger  fim.Logger
	sleep   func(time.Duration)

	mu   sync.Mutex
	conn net.Conn
}

var _ fim.MessageSink = (*SocketSink)(nil)

// NewSocketSink creates a sink for the socket at address. The connection
// is opened lazily on the first Send.
func NewSocketSink(address string, logger fim.Logger) *SocketSink {
	if logger == nil {
		logger = fim.NewNopLogger()
	}
	return &SocketSink{address: address, logger: logger, sleep: time.Sleep}
}

// Send delivers msg and then waits msg.Delay.
func (s *SocketSink) Send(msg fim.Message) error {
	data := []byte(frame(msg))

	s.mu.Lock()
	err := s.write(data)
	if err != nil {
		s.logger.Warn("queue write failed, reconnecting", "address", s.address, "error", err)
		s.closeLocked()
		err = s.write(data)
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("sending to %s: %w", s.address, err)
	}

	if msg.Delay > 0 {
		s.sleep(msg.Delay)
	}
	return nil
}

func (s *SocketSink) write(data []byte) error {
	if s.conn == nil {
		conn, err := net.Dial("unixgram", s.address)
		if err != nil {
			return fmt.Errorf("connecting: %w", err)
		}
		s.conn = conn
	}
	_, err := s.conn.Write(data)
	return err
}

// Close closes the underlying connection.
func (s *SocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *SocketSink) closeLocked() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
