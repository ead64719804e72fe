// Package command builds the single key JSON envelopes understood by the device:
//
//	{"<command>": {...args}}
package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type Name string

const (
	GetConfig      Name = "getConfig"
	SetConfig      Name = "setConfig"
	SetPadConfig   Name = "setPadConfig"
	SetSettings    Name = "setSettings"
	SetMappings    Name = "setMappings"
	SetGeneral     Name = "setGeneral"
	SetMonitor     Name = "setMonitor"
	PlayNote       Name = "playNote"
	SaveConfig     Name = "saveConfig"
	RestoreConfig  Name = "restoreConfig"
	LatencyTest    Name = "latencyTest"
	TriggerMonitor Name = "triggerMonitor"
	GetEvents      Name = "getEvents"
	GetStats       Name = "getStats"
)

// Names lists every command known to the device.
var Names = []Name{
	GetConfig, SetConfig, SetPadConfig, SetSettings, SetMappings, SetGeneral, SetMonitor,
	PlayNote, SaveConfig, RestoreConfig, LatencyTest, TriggerMonitor, GetEvents, GetStats,
}

// ReplaceKey is the mappings argument that selects replace instead of merge semantics.
const ReplaceKey = "_replace"

var ErrArgsNotObject = errors.New("command arguments must be a JSON object")

// Known reports whether n is a command the device understands.
func Known(n Name) bool {
	for _, known := range Names {
		if n == known {
			return true
		}
	}
	return false
}

// Mutating reports whether n changes persisted device state and therefore
// marks the configuration dirty.
func Mutating(n Name) bool {
	switch n {
	case SetConfig, SetPadConfig, SetSettings, SetMappings, SetGeneral:
		return true
	}
	return false
}

// Args is the argument object of a command.
type Args map[string]any

// Command is one envelope ready to be sent. Dirty commands mark the config
// mirror dirty before they are sent.
type Command struct {
	Name  Name
	Args  any
	Dirty bool
}

func New(name Name, args any) Command {
	return Command{Name: name, Args: args}
}

func NewDirty(name Name, args any) Command {
	return Command{Name: name, Args: args, Dirty: true}
}

func (c Command) Encode() ([]byte, error) {
	return Encode(c.Name, c.Args)
}

func (c Command) String() string {
	data, err := c.Encode()
	if err != nil {
		return fmt.Sprintf("%s(<%v>)", c.Name, err)
	}
	return string(data)
}

// Encode builds the envelope for name. Nil args encode as an empty object.
func Encode(name Name, args any) ([]byte, error) {
	raw := json.RawMessage("{}")
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		data = bytes.TrimSpace(data)
		switch {
		case bytes.Equal(data, []byte("null")):
		case len(data) > 0 && data[0] == '{':
			raw = data
		default:
			return nil, fmt.Errorf("encode %s: %w", name, ErrArgsNotObject)
		}
	}
	return json.Marshal(map[Name]json.RawMessage{name: raw})
}

// Decode splits an envelope into its command name and raw arguments.
func Decode(data []byte) (Name, json.RawMessage, error) {
	var env map[Name]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}
	if len(env) != 1 {
		return "", nil, fmt.Errorf("envelope must hold exactly one command, got %d", len(env))
	}
	for name, args := range env {
		return name, args, nil
	}
	return "", nil, nil
}

func index(i int) string {
	return strconv.Itoa(i)
}
