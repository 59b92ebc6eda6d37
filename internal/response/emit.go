package response

import (
	"sync"

	"github.com/gin-gonic/gin"
)

const contextEmitterKey = "response_emitter"

// EmitFunc sends body with status to the client.
type EmitFunc func(c *gin.Context, status int, body Body)

// Plain is the emission every other EmitFunc eventually forwards to.
func Plain(c *gin.Context, status int, body Body) {
	c.JSON(status, body.Wire())
}

// Install makes emit the function Emit uses for the rest of this request.
func Install(c *gin.Context, emit EmitFunc) {
	c.Set(contextEmitterKey, emit)
}

// Emit sends body through the emitter installed on c, or Plain.
func Emit(c *gin.Context, status int, body Body) {
	if v, ok := c.Get(contextEmitterKey); ok {
		if emit, ok := v.(EmitFunc); ok && emit != nil {
			emit(c, status, body)
			return
		}
	}
	Plain(c, status, body)
}

// Capture holds the body of the first emission of a request.
type Capture struct {
	mu       sync.Mutex
	body     Body
	status   int
	captured bool
}

// Body returns the captured body and whether anything was emitted.
func (cp *Capture) Body() (Body, bool) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.body, cp.captured
}

// Status is the status passed with the captured body (0 when none).
func (cp *Capture) Status() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.status
}

func (cp *Capture) store(status int, body Body) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.captured {
		return
	}
	cp.body = body
	cp.status = status
	cp.captured = true
}

// Wrap returns an EmitFunc that behaves exactly like emit but records the
// body into capture before anything is transmitted. Only the first emission
// is recorded.
func Wrap(emit EmitFunc, capture *Capture) EmitFunc {
	if emit == nil {
		emit = Plain
	}
	return func(c *gin.Context, status int, body Body) {
		if capture != nil {
			capture.store(status, body)
		}
		emit(c, status, body)
	}
}
