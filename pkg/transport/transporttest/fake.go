// Package transporttest provides an in-memory connection for tests.
package transporttest

import (
	"encoding/json"
	"sync"

	"github.com/automatedhome/eavesdrum-bridge/pkg/transport"
)

// Fake behaves like a transport that opens instantly. Frames sent while it is
// closed are dropped, as the real transport does, and recorded in Dropped.
type Fake struct {
	*transport.Bus

	mu        sync.Mutex
	connected bool
	sent      []string
	dropped   []string
}

func New() *Fake {
	return &Fake{Bus: transport.NewBus()}
}

func (f *Fake) Connect() {
	f.mu.Lock()
	was := f.connected
	f.connected = true
	f.mu.Unlock()
	if !was {
		f.PublishConnection(true)
	}
}

func (f *Fake) Disconnect() {
	f.mu.Lock()
	was := f.connected
	f.connected = false
	f.mu.Unlock()
	if was {
		f.PublishConnection(false)
	}
}

func (f *Fake) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *Fake) SendText(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected {
		f.sent = append(f.sent, message)
	} else {
		f.dropped = append(f.dropped, message)
	}
}

func (f *Fake) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *Fake) Dropped() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dropped...)
}

func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.dropped = nil
}

// Receive delivers a JSON text frame as if the device had sent it.
func (f *Fake) Receive(frame string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(frame), &obj); err != nil {
		return err
	}
	f.PublishJSON(obj)
	return nil
}

func (f *Fake) ReceiveBinary(data []byte) {
	f.PublishBinary(data)
}
