package client

import (
	"github.com/automatedhome/eavesdrum-bridge/pkg/command"
	"github.com/automatedhome/eavesdrum-bridge/pkg/types"
)

// The edits below update the mirror optimistically and send the matching
// command. The next config frame from the device wins either way.

func (c *Client) RequestConfig() error { return c.Send(command.RequestConfig()) }
func (c *Client) RequestStats() error  { return c.Send(command.RequestStats()) }
func (c *Client) RequestEvents() error { return c.Send(command.RequestEvents()) }
func (c *Client) TriggerMonitor() error {
	return c.Send(command.Trigger())
}

func (c *Client) SaveConfig() error    { return c.Send(command.Save()) }
func (c *Client) RestoreConfig() error { return c.Send(command.Restore()) }

func (c *Client) PlayNote(note uint8) error {
	return c.Send(command.Play(note))
}

func (c *Client) SetPadEnabled(padIndex int, enabled bool) error {
	c.store.SetPadConfig(padIndex, func(pad *types.DrumPadConfig) { pad.Enabled = enabled })
	return c.Send(command.PadConfig(padIndex, command.Args{"enabled": enabled}))
}

func (c *Client) SetPadName(padIndex int, name string) error {
	c.store.SetPadConfig(padIndex, func(pad *types.DrumPadConfig) { pad.Name = name })
	return c.Send(command.PadConfig(padIndex, command.Args{"name": name}))
}

func (c *Client) SetGeneral(general types.GeneralConfig) error {
	c.store.SetGeneral(general)
	return c.Send(command.General(general))
}

// SetPadSettings replaces the settings of the pad at padIndex.
func (c *Client) SetPadSettings(padIndex int, settings types.DrumPadSettings) error {
	c.store.SetPadSettings(padIndex, func(s *types.DrumPadSettings) { *s = settings.Clone() })
	return c.Send(command.PadSettings(padIndex, settings))
}

func (c *Client) SetPadCurve(padIndex int, curve types.CurveType) error {
	c.store.SetPadSettings(padIndex, func(s *types.DrumPadSettings) { s.CurveType = curve })
	return c.Send(command.PadSettings(padIndex, command.Args{"curveType": curve}))
}

// SetRoleMappings replaces the mappings of role.
func (c *Client) SetRoleMappings(role string, m types.DrumPadMappings) error {
	c.store.SetRoleMappings(role, func(cur *types.DrumPadMappings) { *cur = m.Clone() })
	return c.Send(command.RoleMappings(role, m, true))
}

// MonitorPad selects the pad whose frames the device streams. nil stops it.
func (c *Client) MonitorPad(padIndex *int) error {
	c.store.SetMonitoredPad(padIndex)
	return c.Send(command.MonitorPad(padIndex))
}

func (c *Client) MonitorAllPads(enabled bool) error {
	c.store.SetMonitorAllPads(enabled)
	return c.Send(command.MonitorAllPads(enabled))
}

func (c *Client) LatencyTestOn(mode command.LatencyMode, threshold int, midiNote *uint8) error {
	c.store.SetLatencyTest(true)
	return c.Send(command.LatencyTestOn(mode, threshold, midiNote))
}

func (c *Client) LatencyTestOff() error {
	c.store.SetLatencyTest(false)
	return c.Send(command.LatencyTestOff())
}
