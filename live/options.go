package live

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultReconnectInterval is the wait between a close and the next connection attempt.
const DefaultReconnectInterval = 3 * time.Second

// Handlers are called on the connection's reader goroutine, in order. They must not block.
type Handlers struct {
	OnOpen    func()
	OnMessage func(Event)
	OnClose   func()
	OnError   func(error)
}

type Option func(*Channel)

func WithHandlers(h Handlers) Option {
	return func(c *Channel) {
		c.handlers = h
	}
}

func OnOpen(fn func()) Option {
	return func(c *Channel) {
		c.handlers.OnOpen = fn
	}
}

func OnMessage(fn func(Event)) Option {
	return func(c *Channel) {
		c.handlers.OnMessage = fn
	}
}

func OnClose(fn func()) Option {
	return func(c *Channel) {
		c.handlers.OnClose = fn
	}
}

func OnError(fn func(error)) Option {
	return func(c *Channel) {
		c.handlers.OnError = fn
	}
}

// WithReconnect enables or disables automatic reconnection (enabled by default).
func WithReconnect(enabled bool) Option {
	return func(c *Channel) {
		c.reconnect = enabled
	}
}

func WithReconnectInterval(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithDialer(d Dialer) Option {
	return func(c *Channel) {
		if d != nil {
			c.dialer = d
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHeader sets extra handshake headers, e.g. X-User-ID.
func WithHeader(h http.Header) Option {
	return func(c *Channel) {
		c.header = h.Clone()
	}
}
