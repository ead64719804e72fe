package transport

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSocket struct {
	mu     sync.Mutex
	h      socketHandlers
	sent   []string
	closed bool
}

func (s *fakeSocket) Connect() {}

func (s *fakeSocket) SendText(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, message)
}

func (s *fakeSocket) SendBinary(data []byte) {}

func (s *fakeSocket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSocket) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

type fakeDialer struct {
	mu      sync.Mutex
	sockets []*fakeSocket
}

func (d *fakeDialer) dial(url string, _ keepAlive, h socketHandlers) socket {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &fakeSocket{h: h}
	d.sockets = append(d.sockets, s)
	return s
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sockets)
}

func (d *fakeDialer) socket(i int) *fakeSocket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sockets[i]
}

type recorder struct {
	mu    sync.Mutex
	conns []bool
	json  []string
	bins  int
}

func (r *recorder) attach(t *Transport) {
	t.OnConnectionChange(func(c bool) {
		r.mu.Lock()
		r.conns = append(r.conns, c)
		r.mu.Unlock()
	})
	t.OnJSON(func(obj map[string]json.RawMessage) {
		r.mu.Lock()
		for k := range obj {
			r.json = append(r.json, k)
		}
		r.mu.Unlock()
	})
	t.OnBinaryData(func([]byte) {
		r.mu.Lock()
		r.bins++
		r.mu.Unlock()
	})
}

func (r *recorder) connections() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.conns...)
}

func newTestTransport(delay time.Duration) (*Transport, *fakeDialer, *recorder) {
	d := &fakeDialer{}
	tr := New("ws://device/ws", WithReconnectDelay(delay))
	tr.dial = d.dial
	r := &recorder{}
	r.attach(tr)
	return tr, d, r
}

func TestURLForHost(t *testing.T) {
	assert.Equal(t, "ws://192.168.4.1/ws", URLForHost("192.168.4.1"))
	assert.Equal(t, "ws://drum.local:81/ws", URLForHost("drum.local:81/"))
	assert.Equal(t, "wss://x/y", URLForHost("wss://x/y"))
}

func TestConnectTwiceOpensOnce(t *testing.T) {
	tr, d, r := newTestTransport(time.Hour)

	tr.Connect()
	tr.Connect()
	require.Equal(t, 1, d.count())

	d.socket(0).h.onOpen()
	assert.True(t, tr.Connected())
	assert.Equal(t, []bool{true}, r.connections())
}

func TestSendDroppedUnlessOpen(t *testing.T) {
	tr, d, _ := newTestTransport(time.Hour)

	tr.SendText("lost")
	tr.Connect()
	tr.SendText("still lost")
	d.socket(0).h.onOpen()
	tr.SendText("sent")

	assert.Equal(t, []string{"sent"}, d.socket(0).Sent())
}

func TestFailedDialDoesNotPublishDisconnect(t *testing.T) {
	tr, d, r := newTestTransport(10 * time.Millisecond)

	tr.Connect()
	d.socket(0).h.onClose(errors.New("refused"))

	assert.Empty(t, r.connections())
	assert.Eventually(t, func() bool { return d.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Connecting, tr.State())
	tr.Disconnect()
}

func TestReconnectAfterClose(t *testing.T) {
	tr, d, r := newTestTransport(10 * time.Millisecond)

	tr.Connect()
	d.socket(0).h.onOpen()
	d.socket(0).h.onClose(errors.New("reset"))
	assert.Equal(t, []bool{true, false}, r.connections())

	require.Eventually(t, func() bool { return d.count() == 2 }, time.Second, 5*time.Millisecond)
	d.socket(1).h.onOpen()
	assert.Equal(t, []bool{true, false, true}, r.connections())
	tr.Disconnect()
}

func TestDoubleCloseSchedulesOneReconnect(t *testing.T) {
	tr, d, _ := newTestTransport(10 * time.Millisecond)

	tr.Connect()
	d.socket(0).h.onOpen()
	d.socket(0).h.onClose(errors.New("read"))
	d.socket(0).h.onClose(errors.New("read again"))

	require.Eventually(t, func() bool { return d.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, d.count())
	tr.Disconnect()
}

func TestDisconnectCancelsReconnect(t *testing.T) {
	tr, d, r := newTestTransport(20 * time.Millisecond)

	tr.Connect()
	d.socket(0).h.onOpen()
	d.socket(0).h.onClose(errors.New("reset"))
	tr.Disconnect()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, d.count())
	assert.Equal(t, []bool{true, false}, r.connections())
	assert.Equal(t, Idle, tr.State())
}

func TestDisconnectWhileOpen(t *testing.T) {
	tr, d, r := newTestTransport(10 * time.Millisecond)

	tr.Connect()
	d.socket(0).h.onOpen()
	tr.Disconnect()
	tr.Disconnect()

	assert.True(t, d.socket(0).closed)
	assert.Equal(t, []bool{true, false}, r.connections())

	// Late callbacks of the closed socket are ignored.
	d.socket(0).h.onClose(errors.New("closed"))
	d.socket(0).h.onText(`{"config":{}}`)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, d.count())
	assert.Equal(t, []bool{true, false}, r.connections())
}

func TestStaleSocketIgnored(t *testing.T) {
	tr, d, r := newTestTransport(10 * time.Millisecond)

	tr.Connect()
	d.socket(0).h.onOpen()
	d.socket(0).h.onClose(errors.New("reset"))
	require.Eventually(t, func() bool { return d.count() == 2 }, time.Second, 5*time.Millisecond)
	d.socket(1).h.onOpen()

	stale := d.socket(0).h
	stale.onText(`{"stats":{}}`)
	stale.onBinary([]byte{1})
	stale.onOpen()
	stale.onClose(errors.New("late"))

	assert.True(t, tr.Connected())
	assert.Equal(t, []bool{true, false, true}, r.connections())
	assert.Empty(t, r.json)
	assert.Zero(t, r.bins)
	tr.Disconnect()
}

func TestTextFramesParsed(t *testing.T) {
	tr, d, r := newTestTransport(time.Hour)

	tr.Connect()
	h := d.socket(0).h
	h.onOpen()
	h.onText(`{"config":{"pads":[]}}`)
	h.onText(`not json`)
	h.onText(`[1,2]`)
	h.onBinary([]byte{0})

	assert.Equal(t, []string{"config"}, r.json)
	assert.Equal(t, 1, r.bins)
	tr.Disconnect()
}

func TestReconnectFromListener(t *testing.T) {
	tr, d, _ := newTestTransport(time.Hour)

	// A listener that talks back on connect must not deadlock.
	tr.OnConnectionChange(func(c bool) {
		if c {
			tr.SendText(`{"getConfig":{}}`)
		}
	})
	tr.Connect()
	d.socket(0).h.onOpen()

	assert.Equal(t, []string{`{"getConfig":{}}`}, d.socket(0).Sent())
	tr.Disconnect()
}
