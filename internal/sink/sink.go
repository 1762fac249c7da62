package sink

import (
	"fmt"

	"fim-go/internal/fim"
)

// frame renders a message the way the agent queue expects it:
// <kind>:<origin>:<body>.
func frame(msg fim.Message) string {
	return fmt.Sprintf("%c:%s:%s", msg.Kind, msg.Origin, msg.Body)
}
