// Package store holds the client side mirror of the device configuration.
//
// The device is authoritative: every "config" frame replaces the mirror
// wholesale. Local edits are applied optimistically and are overwritten by the
// next frame. Edits copy only the path they touch, so observers can tell which
// part of the snapshot changed by comparing identities.
package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/automatedhome/eavesdrum-bridge/pkg/types"
)

// Observer is called after every state change with the previous and the new snapshot.
type Observer func(prev, next types.DeviceConfig)

type Subscription struct {
	id uint64
}

type observer struct {
	id uint64
	fn Observer
}

// Store is a single mutex protected cell. Snapshots returned by State share
// structure with the store and must be treated as read only.
type Store struct {
	mu        sync.RWMutex
	state     types.DeviceConfig
	nextID    uint64
	observers []observer
}

func New() *Store {
	return &Store{state: types.EmptyDeviceConfig()}
}

func (s *Store) State() types.DeviceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) IsDirty() bool {
	return s.State().IsDirty
}

func (s *Store) Subscribe(fn Observer) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.observers = append(s.observers, observer{id: s.nextID, fn: fn})
	return Subscription{id: s.nextID}
}

// Unsubscribe is a no-op for unknown subscriptions.
func (s *Store) Unsubscribe(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o.id == sub.id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// Replace discards the current state, including pending local edits, and
// installs cfg. The dirty flag is taken from cfg.
func (s *Store) Replace(cfg types.DeviceConfig) {
	s.set(func(types.DeviceConfig) (types.DeviceConfig, bool) { return cfg, true })
}

// ReplaceJSON replaces the state with the payload of a "config" frame.
func (s *Store) ReplaceJSON(data []byte) error {
	cfg := types.EmptyDeviceConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("decode config frame: %w", err)
	}
	s.Replace(cfg)
	return nil
}

func (s *Store) MarkDirty() {
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		if cur.IsDirty {
			return cur, false
		}
		cur.IsDirty = true
		return cur, true
	})
}

// Update applies fn to a deep copy of the state. Prefer the narrower setters,
// which keep untouched sections shared.
func (s *Store) Update(fn func(cfg *types.DeviceConfig)) {
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		next := cur.Clone()
		fn(&next)
		return next, true
	})
}

// set runs change under the lock and notifies observers outside of it.
func (s *Store) set(change func(cur types.DeviceConfig) (types.DeviceConfig, bool)) {
	s.mu.Lock()
	prev := s.state
	next, changed := change(prev)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.state = next
	observers := append([]observer(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.fn(prev, next)
	}
}
