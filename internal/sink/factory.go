package sink

import (
	"fmt"
	"os"

	"fim-go/internal/config"
	"fim-go/internal/fim"
)

// NewSinkFromConfig creates a MessageSink implementation based on the sink config type.
func NewSinkFromConfig(cfg config.SinkConfig, logger fim.Logger) (fim.MessageSink, error) {
	switch cfg.Type {
	case "memory":
		return NewMemorySink(), nil
	case "stdout":
		return NewWriterSink(os.Stdout), nil
	case "socket":
		if cfg.Address == "" {
			return nil, fmt.Errorf("socket sink requires address to be set")
		}
		return NewSocketSink(cfg.Address, logger), nil
	case "file", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file sink requires path to be set")
		}
		return NewFileSink(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}
