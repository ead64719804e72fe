package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sacOO7/gowebsocket"
)

// socket is one underlying connection attempt. A socket is used for a single
// generation and never reopened.
type socket interface {
	// Connect dials and blocks until the handshake finished or failed.
	Connect()
	SendText(message string)
	SendBinary(data []byte)
	Close()
}

type socketHandlers struct {
	onOpen   func()
	onClose  func(err error)
	onText   func(message string)
	onBinary func(data []byte)
}

// keepAlive configures the liveness check of an open socket. The socket is
// pinged every Interval and declared dead when nothing, pongs included, was
// received for Timeout.
type keepAlive struct {
	Interval time.Duration
	Timeout  time.Duration
}

type dialFunc func(url string, ka keepAlive, h socketHandlers) socket

const handshakeTimeout = 5 * time.Second

var errPeerSilent = errors.New("no data or pong from device within keep alive timeout")

// wsSocket adapts gowebsocket. gowebsocket touches its connection without
// checking whether the dial succeeded, so writes and Close are gated on open.
// Its reader ends silently when the peer drops the TCP connection without a
// close frame, so a watchdog pings the device and reports the loss itself.
type wsSocket struct {
	ka keepAlive
	h  socketHandlers

	mu       sync.Mutex
	ws       gowebsocket.Socket
	open     bool
	closed   bool
	reported bool
	lastSeen time.Time
	stop     chan struct{}
}

func dialWebsocket(url string, ka keepAlive, h socketHandlers) socket {
	s := &wsSocket{ws: gowebsocket.New(url), ka: ka, h: h}
	s.ws.WebsocketDialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	s.ws.OnConnected = func(gowebsocket.Socket) {
		s.mu.Lock()
		closed := s.closed
		if !closed {
			s.open = true
			s.lastSeen = time.Now()
			s.stop = make(chan struct{})
			go s.watch(s.ws.Conn, s.stop)
		}
		s.mu.Unlock()
		if !closed {
			h.onOpen()
		}
	}
	s.ws.OnConnectError = func(err error, _ gowebsocket.Socket) {
		s.lost(err)
	}
	s.ws.OnDisconnected = func(err error, _ gowebsocket.Socket) {
		s.lost(err)
	}
	s.ws.OnPongReceived = func(string, gowebsocket.Socket) {
		s.seen()
	}
	s.ws.OnTextMessage = func(message string, _ gowebsocket.Socket) {
		s.seen()
		h.onText(message)
	}
	s.ws.OnBinaryMessage = func(data []byte, _ gowebsocket.Socket) {
		s.seen()
		h.onBinary(data)
	}
	if verbose {
		s.ws.EnableLogging()
	}
	return s
}

func (s *wsSocket) seen() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// lost reports the end of the socket to the transport exactly once.
func (s *wsSocket) lost(err error) {
	s.mu.Lock()
	s.open = false
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	report := !s.reported
	s.reported = true
	s.mu.Unlock()
	if report {
		s.h.onClose(err)
	}
}

func (s *wsSocket) watch(conn *websocket.Conn, stop chan struct{}) {
	if s.ka.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.ka.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			silent := now.Sub(s.lastSeen) > s.ka.Timeout
			s.mu.Unlock()

			err := errPeerSilent
			if !silent {
				// WriteControl may run concurrently with gowebsocket's writes.
				err = conn.WriteControl(websocket.PingMessage, nil, now.Add(s.ka.Interval))
			}
			if err != nil {
				conn.Close()
				s.lost(err)
				return
			}
		}
	}
}

func (s *wsSocket) Connect() {
	s.ws.Connect()

	// Close was called while dialing.
	s.mu.Lock()
	shutdown := s.closed && s.ws.Conn != nil
	s.mu.Unlock()
	if shutdown {
		s.ws.Conn.Close()
	}
}

func (s *wsSocket) SendText(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.ws.SendText(message)
	}
}

func (s *wsSocket) SendBinary(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.ws.SendBinary(data)
	}
}

// Close is a local shutdown. The transport has already moved on, so it is not
// reported back.
func (s *wsSocket) Close() {
	s.mu.Lock()
	wasOpen := s.open
	s.open = false
	s.closed = true
	s.reported = true
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
	if wasOpen {
		s.ws.Close()
	}
}
