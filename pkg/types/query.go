package types

// PadIndexByRole returns the index of the first pad playing role.
func (c DeviceConfig) PadIndexByRole(role string) (int, bool) {
	if role == "" {
		return 0, false
	}
	for i, pad := range c.Pads {
		if pad.Role == role {
			return i, true
		}
	}
	return 0, false
}

func (c DeviceConfig) PadByIndex(index int) (DrumPadConfig, bool) {
	if index < 0 || index >= len(c.Pads) {
		return DrumPadConfig{}, false
	}
	return c.Pads[index], true
}

// PadSettingsByIndex prefers the settings nested in the pad and falls back to
// the role keyed settings section.
func (c DeviceConfig) PadSettingsByIndex(index int) (DrumPadSettings, bool) {
	pad, ok := c.PadByIndex(index)
	if !ok {
		return DrumPadSettings{}, false
	}
	if pad.Settings != nil {
		return *pad.Settings, true
	}
	s, ok := c.Settings[pad.Role]
	return s, ok
}

// IsPadPinConnectedToMux reports whether pin of the pad's connector sits behind a multiplexer.
func (c DeviceConfig) IsPadPinConnectedToMux(pin, padIndex int) bool {
	pad, ok := c.PadByIndex(padIndex)
	if !ok || pad.Connector == nil {
		return false
	}
	conn, ok := c.Connectors[*pad.Connector]
	if !ok || pin < 0 || pin >= len(conn.Pins) {
		return false
	}
	return conn.Pins[pin].IsMux()
}

// ZonesCountByRole returns 0 if the role has no settings.
func (c DeviceConfig) ZonesCountByRole(role string) int {
	if s, ok := c.Settings[role]; ok {
		return s.ZonesType.ZonesCount()
	}
	if i, ok := c.PadIndexByRole(role); ok {
		if s, ok := c.PadSettingsByIndex(i); ok {
			return s.ZonesType.ZonesCount()
		}
	}
	return 0
}

// InvalidPads lists the indexes of pads whose role has no mapping entry.
// The mirror keeps such pads; this is only advisory.
func (c DeviceConfig) InvalidPads() []int {
	var invalid []int
	for i, pad := range c.Pads {
		if _, ok := c.Mappings[pad.Role]; !ok {
			invalid = append(invalid, i)
		}
	}
	return invalid
}
