package handlers

import "time"

// SetPongWait shortens the WebSocket silence deadline for tests.
func SetPongWait(d time.Duration) (restore func()) {
	prev := wsPongWait
	wsPongWait = d
	return func() { wsPongWait = prev }
}
