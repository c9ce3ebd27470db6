package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/moyoez/nanalyzer-go/metrics"
	"github.com/moyoez/nanalyzer-go/tool"
)

// ErrNotConnected is returned by Send when the channel has no open connection.
var ErrNotConnected = errors.New("live channel not connected")

// Status is the state of the current physical connection.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusOpen       Status = "open"
	StatusClosing    Status = "closing"
	StatusClosed     Status = "closed"
)

// Channel keeps one push connection to a live endpoint and reconnects per policy.
type Channel struct {
	url       string
	header    http.Header
	dialer    Dialer
	logger    *log.Logger
	handlers  Handlers
	reconnect bool
	interval  time.Duration

	mu          sync.Mutex
	status      Status
	conn        Conn
	gen         uint64 // bumped for every physical connection; callbacks of older ones are dropped
	manual      bool   // Disconnect was called; no automatic reconnect
	torndown    bool   // Close was called; nothing happens anymore
	timer       *time.Timer
	lastMessage *Event

	writeMu sync.Mutex
}

// New builds a channel for url. Nothing is dialed until Start. An empty url yields a
// channel that stays closed.
func New(url string, opts ...Option) *Channel {
	c := &Channel{
		url:       url,
		dialer:    NewWebSocketDialer(DefaultHandshakeTimeout),
		logger:    tool.DefaultLogger,
		reconnect: true,
		interval:  DefaultReconnectInterval,
		status:    StatusClosed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens the first connection in the background.
func (c *Channel) Start() {
	if c.url == "" {
		c.logger.Debug("[Live] No endpoint configured, channel stays idle")
		return
	}
	c.mu.Lock()
	if c.torndown || c.status != StatusClosed || c.timer != nil {
		c.mu.Unlock()
		return
	}
	c.manual = false
	gen := c.nextGenLocked()
	c.mu.Unlock()
	go c.run(gen)
}

func (c *Channel) URL() string {
	return c.url
}

func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Channel) IsConnected() bool {
	return c.Status() == StatusOpen
}

// LastMessage returns the most recent well-formed event.
func (c *Channel) LastMessage() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastMessage == nil {
		return Event{}, false
	}
	return *c.lastMessage, true
}

// Send writes evt on the open connection. When the channel is not open it logs a warning
// and returns ErrNotConnected without touching any connection.
func (c *Channel) Send(evt Event) error {
	c.mu.Lock()
	conn := c.conn
	open := c.status == StatusOpen
	c.mu.Unlock()
	if !open || conn == nil {
		c.logger.Warn("live channel not connected", "type", evt.Type, "url", c.url)
		return ErrNotConnected
	}

	data, err := sonic.Marshal(evt)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Disconnect closes the connection and suppresses automatic reconnection until Reconnect.
// OnClose still fires for the closed connection.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.torndown {
		c.mu.Unlock()
		return
	}
	c.manual = true
	c.stopTimerLocked()
	conn := c.conn
	if conn != nil {
		c.status = StatusClosing
	} else {
		c.status = StatusClosed
	}
	c.mu.Unlock()

	if conn != nil {
		c.logger.Infof("[Live] Disconnecting from %s", c.url)
		c.closeConn(conn)
	}
}

// Reconnect drops the current connection (if any) and dials again immediately, re-enabling
// the reconnect policy after a Disconnect. OnClose fires for the dropped connection before
// the new dial starts.
func (c *Channel) Reconnect() {
	if c.url == "" {
		return
	}
	c.mu.Lock()
	if c.torndown {
		c.mu.Unlock()
		return
	}
	c.manual = false
	c.stopTimerLocked()
	old := c.conn
	c.conn = nil
	gen := c.nextGenLocked()
	c.mu.Unlock()

	if old != nil {
		c.closeConn(old)
		// the old read loop belongs to a stale gen and stays silent
		if c.handlers.OnClose != nil {
			c.handlers.OnClose()
		}
	}
	metrics.RecordLiveConnection("reconnect")
	go c.run(gen)
}

// Close tears the channel down for good: the connection is always closed, pending
// reconnects are cancelled and no handler fires afterwards.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.torndown {
		c.mu.Unlock()
		return
	}
	c.torndown = true
	c.manual = true
	c.stopTimerLocked()
	c.gen++
	conn := c.conn
	c.conn = nil
	c.status = StatusClosed
	c.mu.Unlock()

	if conn != nil {
		c.closeConn(conn)
	}
	c.logger.Debugf("[Live] Channel for %s closed", c.url)
}

func (c *Channel) nextGenLocked() uint64 {
	c.gen++
	c.status = StatusConnecting
	return c.gen
}

func (c *Channel) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) closeConn(conn Conn) {
	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	if err := conn.Close(); err != nil {
		c.logger.Debugf("[Live] Close error: %v", err)
	}
}

func (c *Channel) run(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultHandshakeTimeout)
	conn, err := c.dialer.Dial(ctx, c.url, c.header)
	cancel()
	if err != nil {
		c.logger.Warnf("[Live] Failed to connect to %s: %v", c.url, err)
		metrics.RecordLiveConnection("error")
		c.onDisconnected(gen, err)
		return
	}

	c.mu.Lock()
	if gen != c.gen || c.manual {
		if gen == c.gen {
			c.status = StatusClosed
		}
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.status = StatusOpen
	c.mu.Unlock()

	metrics.RecordLiveConnection("open")
	c.logger.Infof("[Live] Connected to %s", c.url)
	if c.handlers.OnOpen != nil {
		c.handlers.OnOpen()
	}
	c.readLoop(gen, conn)
}

func (c *Channel) readLoop(gen uint64, conn Conn) {
	defer metrics.RecordLiveConnection("close")
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			c.onDisconnected(gen, err)
			return
		}
		c.handleFrame(gen, frame)
	}
}

func (c *Channel) handleFrame(gen uint64, frame []byte) {
	evt, err := ParseEvent(frame)
	if err != nil {
		metrics.RecordLiveParseError()
		c.logger.Warnf("[Live] Dropping frame from %s: %v", c.url, err)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.lastMessage = &evt
	c.mu.Unlock()

	metrics.RecordLiveEvent(string(evt.Type))
	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(evt)
	}
}

// onDisconnected reports err (if any, and not caused by Disconnect), moves to Closed, fires
// OnClose and schedules a reconnect when the policy allows it.
func (c *Channel) onDisconnected(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	manual := c.manual
	c.mu.Unlock()

	if err != nil && !manual {
		c.logger.Warnf("[Live] Connection error on %s: %v", c.url, err)
		if c.handlers.OnError != nil {
			c.handlers.OnError(err)
		}
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.status = StatusClosed
	scheduled := false
	if c.reconnect && !c.manual && !c.torndown && c.timer == nil {
		c.timer = time.AfterFunc(c.interval, func() { c.reconnectTick(gen) })
		scheduled = true
	}
	c.mu.Unlock()

	if scheduled {
		c.logger.Infof("[Live] Connection to %s closed, reconnecting in %s", c.url, c.interval)
	} else {
		c.logger.Infof("[Live] Connection to %s closed", c.url)
	}
	if c.handlers.OnClose != nil {
		c.handlers.OnClose()
	}
}

// reconnectTick runs on the timer goroutine. gen is the connection that closed; a timer
// that fired after Reconnect or Close finds a newer gen and does nothing.
func (c *Channel) reconnectTick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	if c.torndown || c.manual || c.status != StatusClosed {
		c.mu.Unlock()
		return
	}
	next := c.nextGenLocked()
	c.mu.Unlock()

	metrics.RecordLiveConnection("reconnect")
	c.run(next)
}
