package store

import "github.com/automatedhome/eavesdrum-bridge/pkg/types"

// SetPadConfig patches the pad at padIndex. It reports false if there is no such pad.
func (s *Store) SetPadConfig(padIndex int, fn func(pad *types.DrumPadConfig)) bool {
	ok := false
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		if padIndex < 0 || padIndex >= len(cur.Pads) {
			return cur, false
		}
		cur.Pads = copyPads(cur.Pads)
		pad := cur.Pads[padIndex].Clone()
		fn(&pad)
		cur.Pads[padIndex] = pad
		ok = true
		return cur, true
	})
	return ok
}

// SetPadSettings patches the settings of the pad at padIndex. Pads carrying
// their own settings are patched in place, otherwise the settings of the pad's
// role are.
func (s *Store) SetPadSettings(padIndex int, fn func(settings *types.DrumPadSettings)) bool {
	ok := false
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		if padIndex < 0 || padIndex >= len(cur.Pads) {
			return cur, false
		}
		pad := cur.Pads[padIndex]
		if pad.Settings != nil {
			settings := pad.Settings.Clone()
			fn(&settings)
			pad.Settings = &settings
			cur.Pads = copyPads(cur.Pads)
			cur.Pads[padIndex] = pad
			ok = true
			return cur, true
		}
		settings, found := cur.Settings[pad.Role]
		if !found {
			return cur, false
		}
		settings = settings.Clone()
		fn(&settings)
		cur.Settings = copyMap(cur.Settings)
		cur.Settings[pad.Role] = settings
		ok = true
		return cur, true
	})
	return ok
}

// SetRoleMappings patches the mappings of role, creating them if missing.
func (s *Store) SetRoleMappings(role string, fn func(m *types.DrumPadMappings)) {
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		m := cur.Mappings[role].Clone()
		fn(&m)
		cur.Mappings = copyMap(cur.Mappings)
		cur.Mappings[role] = m
		return cur, true
	})
}

func (s *Store) SetGeneral(general types.GeneralConfig) {
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		cur.General = general
		return cur, true
	})
}

func (s *Store) SetMonitoredPad(padIndex *int) {
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		cur.Monitor.PadIndex = nil
		if padIndex != nil {
			cur.Monitor.PadIndex = types.Ptr(*padIndex)
		}
		return cur, true
	})
}

func (s *Store) SetMonitorAllPads(enabled bool) {
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		cur.Monitor.TriggeredByAllPads = enabled
		return cur, true
	})
}

func (s *Store) SetLatencyTest(enabled bool) {
	s.set(func(cur types.DeviceConfig) (types.DeviceConfig, bool) {
		cur.LatencyTest = enabled
		return cur, true
	})
}

// copyPads copies the slice header only; the pads themselves stay shared.
func copyPads(pads []types.DrumPadConfig) []types.DrumPadConfig {
	return append([]types.DrumPadConfig(nil), pads...)
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
