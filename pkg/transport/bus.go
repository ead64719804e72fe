package transport

import (
	"encoding/json"
	"sync"
)

type eventKind int

const (
	kindConnection eventKind = iota
	kindBinary
	kindJSON
)

// Handle identifies a registered listener. The zero Handle is never registered.
type Handle struct {
	id uint64
}

type listener struct {
	id           uint64
	kind         eventKind
	onConnection func(bool)
	onBinary     func([]byte)
	onJSON       func(map[string]json.RawMessage)
}

// Bus is a typed observer registry for the three connection events.
// Listeners run in registration order. Registering and unregistering is allowed
// from within a listener; changes apply to the next publish.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listener
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) register(l listener) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	l.id = b.nextID
	b.listeners = append(b.listeners, l)
	return Handle{id: l.id}
}

// Unregister removes the listener behind h. Unknown or already removed handles are ignored.
func (b *Bus) Unregister(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, l := range b.listeners {
		if l.id == h.id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

func (b *Bus) OnConnectionChange(fn func(connected bool)) Handle {
	return b.register(listener{kind: kindConnection, onConnection: fn})
}

func (b *Bus) OnBinaryData(fn func(data []byte)) Handle {
	return b.register(listener{kind: kindBinary, onBinary: fn})
}

// OnJSON receives every parsed JSON frame.
func (b *Bus) OnJSON(fn func(obj map[string]json.RawMessage)) Handle {
	return b.register(listener{kind: kindJSON, onJSON: fn})
}

// OnJSONData receives the value of the top level property key of JSON frames
// that contain it, e.g. "config", "stats" or "events".
func (b *Bus) OnJSONData(key string, fn func(data json.RawMessage)) Handle {
	return b.OnJSON(func(obj map[string]json.RawMessage) {
		if v, ok := obj[key]; ok {
			fn(v)
		}
	})
}

func (b *Bus) snapshot(kind eventKind) []listener {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		if l.kind == kind {
			out = append(out, l)
		}
	}
	return out
}

func (b *Bus) PublishConnection(connected bool) {
	for _, l := range b.snapshot(kindConnection) {
		l.onConnection(connected)
	}
}

func (b *Bus) PublishBinary(data []byte) {
	for _, l := range b.snapshot(kindBinary) {
		l.onBinary(data)
	}
}

func (b *Bus) PublishJSON(obj map[string]json.RawMessage) {
	for _, l := range b.snapshot(kindJSON) {
		l.onJSON(obj)
	}
}
