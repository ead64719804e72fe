// Package bridge mirrors the device session onto MQTT and turns messages on
// <prefix>/cmd/<command> into device commands.
package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/automatedhome/eavesdrum-bridge/pkg/client"
	"github.com/automatedhome/eavesdrum-bridge/pkg/command"
	"github.com/automatedhome/eavesdrum-bridge/pkg/monitor"
	"github.com/automatedhome/eavesdrum-bridge/pkg/store"
	"github.com/automatedhome/eavesdrum-bridge/pkg/transport"
	"github.com/automatedhome/eavesdrum-bridge/pkg/types"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	logging "github.com/sacOO7/go-logger"
)

var logger = logging.GetLogger("eavesdrum/bridge").SetLevel(logging.INFO)

const publishTimeout = 2 * time.Second

type Bridge struct {
	mqtt   mqtt.Client
	client *client.Client
	prefix string

	mu      sync.Mutex
	handles []transport.Handle
	sub     *store.Subscription
	stop    chan struct{}
}

func New(m mqtt.Client, c *client.Client, prefix string) *Bridge {
	return &Bridge{
		mqtt:   m,
		client: c,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

// Topic returns prefix/name.
func (b *Bridge) Topic(name string) string {
	return b.prefix + "/" + name
}

// Start registers the device listeners. Nothing is published before Start.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return
	}

	b.handles = []transport.Handle{
		b.client.OnConnectionChange(b.onConnectionChange),
		b.client.OnMonitorMessage(b.onMonitorMessage, func(err error) {
			logger.Warning.Printf("Failed to decode monitor frame: %v\n", err)
		}),
		b.client.OnStats(func(stats types.Stats) { b.publishJSON("stats", false, stats) }),
		b.client.OnEvents(func(events []types.LogEvent) { b.publishJSON("events", false, events) }),
	}
	sub := b.client.OnConfigChange(b.onConfigChange)
	b.sub = &sub
}

// Stop removes the listeners and ends polling.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.handles {
		b.client.Unregister(h)
	}
	b.handles = nil
	if b.sub != nil {
		b.client.Store().Unsubscribe(*b.sub)
		b.sub = nil
	}
	if b.stop != nil {
		close(b.stop)
		b.stop = nil
	}
}

// Subscribe listens for commands. Call it from the MQTT on-connect handler so
// the subscription survives broker reconnects.
func (b *Bridge) Subscribe() error {
	topic := b.Topic("cmd/+")
	if token := b.mqtt.Subscribe(topic, 0, b.HandleMessage); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	logger.Info.Printf("Listening on %s\n", topic)
	return nil
}

// Poll requests stats and events from the device every interval while it is
// connected.
func (b *Bridge) Poll(interval time.Duration) {
	if interval <= 0 {
		return
	}
	b.mu.Lock()
	if b.stop != nil {
		b.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	b.stop = stop
	b.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if b.client.Connected() {
					b.client.RequestStats()
					b.client.RequestEvents()
				}
			}
		}
	}()
}

// HandleMessage forwards <prefix>/cmd/<command> with the payload as arguments.
// Commands that change the configuration mark the mirror dirty.
func (b *Bridge) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	name := command.Name(strings.TrimPrefix(topic, b.Topic("cmd/")))
	if name == "" || !command.Known(name) {
		logger.Warning.Printf("Unknown command on MQTT topic '%s'\n", topic)
		return
	}

	var args any
	if payload := strings.TrimSpace(string(msg.Payload())); payload != "" {
		if !json.Valid([]byte(payload)) {
			logger.Warning.Printf("Wrong data received on MQTT topic '%s' with payload: %s\n", topic, payload)
			return
		}
		args = json.RawMessage(payload)
	}

	logger.Info.Printf("Received command '%s' on MQTT\n", name)
	if err := b.client.SendCommandWithDirtyFlag(name, args, command.Mutating(name)); err != nil {
		logger.Warning.Printf("Rejected command '%s': %v\n", name, err)
	}
}

func (b *Bridge) onConnectionChange(connected bool) {
	b.publish("connected", true, fmt.Sprintf("%t", connected))
}

func (b *Bridge) onMonitorMessage(msg *monitor.Message) {
	b.publishJSON("monitor", false, monitor.NewInfo(msg))
}

func (b *Bridge) onConfigChange(prev, next types.DeviceConfig) {
	b.publishJSON("config", true, next)
	if prev.IsDirty != next.IsDirty {
		b.publish("dirty", true, fmt.Sprintf("%t", next.IsDirty))
	}
}

func (b *Bridge) publishJSON(name string, retained bool, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error.Printf("Failed to marshal %s: %v\n", name, err)
		return
	}
	b.publish(name, retained, data)
}

// publish does not wait longer than publishTimeout so a broker outage cannot
// stall device event delivery.
func (b *Bridge) publish(name string, retained bool, payload interface{}) {
	topic := b.Topic(name)
	token := b.mqtt.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		logger.Warning.Printf("Timed out publishing to %s\n", topic)
		return
	}
	if token.Error() != nil {
		logger.Error.Printf("Failed to publish packet: %s\n", token.Error())
	}
}
