package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type ConnectorConfig struct {
	Pins []PinConfig `json:"pins" yaml:"pins"`
}

func (c ConnectorConfig) Clone() ConnectorConfig {
	out := ConnectorConfig{Pins: cloneSlice(c.Pins)}
	for i := range out.Pins {
		out.Pins[i].Mux = clonePtr(out.Pins[i].Mux)
	}
	return out
}

// MuxChannel addresses one channel of a multiplexer.
type MuxChannel struct {
	Mux     int `json:"mux" yaml:"mux"`
	Channel int `json:"channel" yaml:"channel"`
}

// PinConfig is either a bare analog input (Mux == nil) or a multiplexer channel.
// On the wire the former is a plain number, the latter an object.
type PinConfig struct {
	Analog int
	Mux    *MuxChannel
}

func AnalogPin(pin int) PinConfig {
	return PinConfig{Analog: pin}
}

func MuxPin(mux, channel int) PinConfig {
	return PinConfig{Mux: &MuxChannel{Mux: mux, Channel: channel}}
}

func (p PinConfig) IsMux() bool {
	return p.Mux != nil
}

func (p PinConfig) MarshalJSON() ([]byte, error) {
	if p.Mux != nil {
		return json.Marshal(p.Mux)
	}
	return json.Marshal(p.Analog)
}

func (p *PinConfig) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var mc MuxChannel
		if err := json.Unmarshal(data, &mc); err != nil {
			return err
		}
		*p = PinConfig{Mux: &mc}
		return nil
	}

	var pin int
	if err := json.Unmarshal(data, &pin); err != nil {
		return fmt.Errorf("pin must be a number or a mux channel: %w", err)
	}
	*p = PinConfig{Analog: pin}
	return nil
}

func (p PinConfig) MarshalYAML() (interface{}, error) {
	if p.Mux != nil {
		return p.Mux, nil
	}
	return p.Analog, nil
}

func (p *PinConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var pin int
	if err := unmarshal(&pin); err == nil {
		*p = PinConfig{Analog: pin}
		return nil
	}

	var mc MuxChannel
	if err := unmarshal(&mc); err != nil {
		return fmt.Errorf("pin must be a number or a mux channel: %w", err)
	}
	*p = PinConfig{Mux: &mc}
	return nil
}
