package fim

import "time"

// SetSleep replaces the throttling pause, for tests.
func (e *Engine) SetSleep(fn func(time.Duration)) { e.sleep = fn }
