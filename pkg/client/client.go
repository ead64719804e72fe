// Package client ties a device connection to the configuration mirror. It is
// the one object a front end needs: commands go out through it, and config,
// stats, events and monitor frames come back through it.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/automatedhome/eavesdrum-bridge/pkg/command"
	"github.com/automatedhome/eavesdrum-bridge/pkg/merge"
	"github.com/automatedhome/eavesdrum-bridge/pkg/monitor"
	"github.com/automatedhome/eavesdrum-bridge/pkg/store"
	"github.com/automatedhome/eavesdrum-bridge/pkg/transport"
	"github.com/automatedhome/eavesdrum-bridge/pkg/types"
	logging "github.com/sacOO7/go-logger"
)

var logger = logging.GetLogger("eavesdrum/client").SetLevel(logging.INFO)

// Conn is the part of *transport.Transport the client depends on.
type Conn interface {
	Connect()
	Disconnect()
	Connected() bool
	SendText(message string)
	OnConnectionChange(fn func(connected bool)) transport.Handle
	OnBinaryData(fn func(data []byte)) transport.Handle
	OnJSONData(key string, fn func(data json.RawMessage)) transport.Handle
	Unregister(h transport.Handle)
}

type Client struct {
	conn  Conn
	store *store.Store

	mu      sync.Mutex
	handles []transport.Handle
}

// New wires conn to st. The store follows the device's config frames, and a
// config request is sent every time the connection opens.
func New(conn Conn, st *store.Store) *Client {
	c := &Client{conn: conn, store: st}
	c.handles = []transport.Handle{
		conn.OnJSONData("config", func(data json.RawMessage) {
			if err := st.ReplaceJSON(data); err != nil {
				logger.Error.Printf("dropping config frame: %v\n", err)
			}
		}),
		conn.OnConnectionChange(func(connected bool) {
			if connected {
				c.RequestConfig()
			}
		}),
	}
	return c
}

func (c *Client) Store() *store.Store {
	return c.store
}

func (c *Client) Connect() {
	c.conn.Connect()
}

func (c *Client) Connected() bool {
	return c.conn.Connected()
}

// Close disconnects and removes every listener the client registered.
func (c *Client) Close() {
	c.conn.Disconnect()

	c.mu.Lock()
	handles := c.handles
	c.handles = nil
	c.mu.Unlock()
	for _, h := range handles {
		c.conn.Unregister(h)
	}
}

func (c *Client) track(h transport.Handle) transport.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles = append(c.handles, h)
	return h
}

// Unregister removes a listener added by one of the On methods.
func (c *Client) Unregister(h transport.Handle) {
	c.conn.Unregister(h)
}

// Send encodes cmd and hands it to the connection. Dirty commands mark the
// mirror dirty first, even if the frame is then dropped because the
// connection is down.
func (c *Client) Send(cmd command.Command) error {
	data, err := cmd.Encode()
	if err != nil {
		return err
	}
	if cmd.Dirty {
		c.store.MarkDirty()
	}
	c.conn.SendText(string(data))
	return nil
}

func (c *Client) SendCommand(name command.Name, args any) error {
	return c.Send(command.New(name, args))
}

func (c *Client) SendCommandWithDirtyFlag(name command.Name, args any, dirty bool) error {
	return c.Send(command.Command{Name: name, Args: args, Dirty: dirty})
}

func (c *Client) OnConnectionChange(fn func(connected bool)) transport.Handle {
	return c.track(c.conn.OnConnectionChange(fn))
}

// OnMonitorMessage decodes binary frames. Frames that fail to decode go to
// onErr, or to the log if onErr is nil.
func (c *Client) OnMonitorMessage(fn func(msg *monitor.Message), onErr func(err error)) transport.Handle {
	return c.track(c.conn.OnBinaryData(func(data []byte) {
		msg, err := monitor.Decode(data)
		if err != nil {
			if onErr != nil {
				onErr(err)
			} else {
				logger.Warning.Printf("dropping monitor frame: %v\n", err)
			}
			return
		}
		fn(msg)
	}))
}

func (c *Client) OnStats(fn func(stats types.Stats)) transport.Handle {
	return c.track(c.conn.OnJSONData("stats", func(data json.RawMessage) {
		var stats types.Stats
		if err := json.Unmarshal(data, &stats); err != nil {
			logger.Error.Printf("dropping stats frame: %v\n", err)
			return
		}
		fn(stats)
	}))
}

func (c *Client) OnEvents(fn func(events []types.LogEvent)) transport.Handle {
	return c.track(c.conn.OnJSONData("events", func(data json.RawMessage) {
		var events []types.LogEvent
		if err := json.Unmarshal(data, &events); err != nil {
			logger.Error.Printf("dropping events frame: %v\n", err)
			return
		}
		fn(events)
	}))
}

// OnConfigChange forwards store changes.
func (c *Client) OnConfigChange(fn store.Observer) store.Subscription {
	return c.store.Subscribe(fn)
}

// Import applies a fragment to the target described by ctx.
func (c *Client) Import(fragment merge.Fragment, ctx merge.DropContext) error {
	return merge.Apply(fragment, ctx, c)
}

// ImportFile parses a .yaml/.yml document and imports it. Use merge.Message
// for the text shown to the user.
func (c *Client) ImportFile(name string, r io.Reader, ctx merge.DropContext) error {
	fragment, err := merge.ParseFile(name, r)
	if err != nil {
		return err
	}
	if err := c.Import(fragment, ctx); err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}
	return nil
}
