package fim

import "time"

// Queue routing for engine messages.
const (
	SyscheckQueue  = "syscheck"
	SyscheckOrigin = "syscheck"
	SyscheckKind   = '8'
)

// Message is one alert handed to a MessageSink.
type Message struct {
	Delay  time.Duration
	Queue  string
	Body   string
	Origin string
	Kind   byte
}

// MessageSink delivers alerts. Retrying and queueing are the sink's job;
// the engine calls Send exactly once per alert.
type MessageSink interface {
	Send(msg Message) error
}
