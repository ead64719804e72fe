// Package transport keeps a websocket session to the device alive and fans
// its frames out to typed listeners.
package transport

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	logging "github.com/sacOO7/go-logger"
)

var logger = logging.GetLogger("eavesdrum/transport").SetLevel(logging.INFO)

var verbose bool

// SetVerbose enables the trace output of the underlying websocket library.
func SetVerbose(v bool) {
	verbose = v
}

// DefaultReconnectDelay is the fixed pause between a close and the next attempt.
// There is no backoff and no attempt limit; the device lives on the local network.
const DefaultReconnectDelay = 1000 * time.Millisecond

// Liveness defaults of an open socket. See WithKeepAlive.
const (
	DefaultPingInterval = 2 * time.Second
	DefaultPingTimeout  = 6 * time.Second
)

type State int

const (
	Idle State = iota
	Connecting
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Option func(*Transport)

func WithReconnectDelay(d time.Duration) Option {
	return func(t *Transport) {
		t.reconnectDelay = d
	}
}

// WithKeepAlive sets how often an open socket is pinged and how long it may
// stay silent before it is treated as lost. A zero interval disables the check.
func WithKeepAlive(interval, timeout time.Duration) Option {
	return func(t *Transport) {
		t.keepAlive = keepAlive{Interval: interval, Timeout: timeout}
	}
}

// Transport owns the socket lifecycle. Every socket instance gets a new
// generation; callbacks of older generations are dropped.
type Transport struct {
	*Bus

	url            string
	reconnectDelay time.Duration
	keepAlive      keepAlive
	dial           dialFunc
	events         dispatcher

	mu         sync.Mutex
	active     bool
	state      State
	generation uint64
	sock       socket
	timer      *time.Timer
}

// URLForHost returns the device websocket endpoint for host. Full ws:// or
// wss:// URLs are returned unchanged.
func URLForHost(host string) string {
	if strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		return host
	}
	return "ws://" + strings.TrimSuffix(host, "/") + "/ws"
}

func New(url string, opts ...Option) *Transport {
	t := &Transport{
		Bus:            NewBus(),
		url:            url,
		reconnectDelay: DefaultReconnectDelay,
		keepAlive:      keepAlive{Interval: DefaultPingInterval, Timeout: DefaultPingTimeout},
		dial:           dialWebsocket,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) URL() string {
	return t.url
}

func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) Connected() bool {
	return t.State() == Open
}

// Connect activates the connection. It returns immediately; the dial runs in
// the background. Calling it on an active transport only logs.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.active {
		t.mu.Unlock()
		logger.Info.Println("connection already activated")
		return
	}
	t.active = true
	sock := t.openLocked()
	t.mu.Unlock()

	logger.Info.Printf("connection activated: %s\n", t.url)
	go sock.Connect()
}

// Disconnect closes the socket and cancels a pending reconnect. It is safe to
// call repeatedly.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	wasOpen := t.state == Open
	sock := t.sock
	t.active = false
	t.sock = nil
	t.state = Idle
	t.generation++
	if wasOpen {
		t.events.enqueue(func() { t.PublishConnection(false) })
	}
	t.mu.Unlock()

	logger.Info.Println("connection deactivated")
	t.events.drain()
	if sock != nil {
		sock.Close()
	}
}

// SendText sends a text frame. It is dropped silently unless the socket is open.
func (t *Transport) SendText(message string) {
	if sock := t.openSocket(); sock != nil {
		sock.SendText(message)
	}
}

// SendBinary sends a binary frame. It is dropped silently unless the socket is open.
func (t *Transport) SendBinary(data []byte) {
	if sock := t.openSocket(); sock != nil {
		sock.SendBinary(data)
	}
}

func (t *Transport) openSocket() socket {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Open {
		return nil
	}
	return t.sock
}

// openLocked creates the socket of the next generation. The caller dials it
// after releasing t.mu.
func (t *Transport) openLocked() socket {
	t.generation++
	gen := t.generation
	t.state = Connecting
	t.sock = t.dial(t.url, t.keepAlive, socketHandlers{
		onOpen:   func() { t.handleOpen(gen) },
		onClose:  func(err error) { t.handleClose(gen, err) },
		onText:   func(message string) { t.handleText(gen, message) },
		onBinary: func(data []byte) { t.handleBinary(gen, data) },
	})
	return t.sock
}

func (t *Transport) current(gen uint64) bool {
	return t.active && gen == t.generation
}

func (t *Transport) handleOpen(gen uint64) {
	t.mu.Lock()
	if !t.current(gen) || t.state != Connecting {
		t.mu.Unlock()
		return
	}
	t.state = Open
	t.events.enqueue(func() { t.PublishConnection(true) })
	t.mu.Unlock()

	logger.Info.Println("websocket open")
	t.events.drain()
}

func (t *Transport) handleClose(gen uint64, err error) {
	t.mu.Lock()
	if !t.current(gen) || t.state == Closed {
		t.mu.Unlock()
		logger.Info.Printf("stale websocket closed: %v\n", err)
		return
	}
	wasOpen := t.state == Open
	t.state = Closed
	t.sock = nil
	if wasOpen {
		t.events.enqueue(func() { t.PublishConnection(false) })
	}
	t.timer = time.AfterFunc(t.reconnectDelay, func() { t.reconnect(gen) })
	t.mu.Unlock()

	logger.Warning.Printf("websocket closed (%v) -> reconnect in %s\n", err, t.reconnectDelay)
	t.events.drain()
}

func (t *Transport) reconnect(gen uint64) {
	t.mu.Lock()
	if !t.current(gen) || t.state != Closed {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	sock := t.openLocked()
	t.mu.Unlock()

	sock.Connect()
}

func (t *Transport) handleText(gen uint64, message string) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(message), &obj); err != nil {
		logger.Error.Printf("dropping malformed json frame: %v\n", err)
		return
	}
	t.deliver(gen, func() { t.PublishJSON(obj) })
}

func (t *Transport) handleBinary(gen uint64, data []byte) {
	t.deliver(gen, func() { t.PublishBinary(data) })
}

// deliver queues a data event of generation gen. The generation is checked
// again at delivery so nothing of a superseded socket reaches listeners.
func (t *Transport) deliver(gen uint64, publish func()) {
	t.mu.Lock()
	if !t.current(gen) || t.state != Open {
		t.mu.Unlock()
		return
	}
	t.events.enqueue(func() {
		t.mu.Lock()
		ok := t.current(gen)
		t.mu.Unlock()
		if ok {
			publish()
		}
	})
	t.mu.Unlock()

	t.events.drain()
}
