package command

import "github.com/automatedhome/eavesdrum-bridge/pkg/types"

func RequestConfig() Command { return New(GetConfig, nil) }
func RequestStats() Command  { return New(GetStats, nil) }
func RequestEvents() Command { return New(GetEvents, nil) }
func Trigger() Command       { return New(TriggerMonitor, nil) }
func Save() Command          { return New(SaveConfig, nil) }
func Restore() Command       { return New(RestoreConfig, nil) }

// Play asks the device to send a note on/off pair for note.
func Play(note uint8) Command {
	return New(PlayNote, Args{"note": note})
}

// ReplaceConfig replaces the whole device configuration with values.
func ReplaceConfig(values any) Command {
	return NewDirty(SetConfig, values)
}

// PadConfig patches the pad at padIndex, e.g. Args{"enabled": false}.
func PadConfig(padIndex int, values any) Command {
	return NewDirty(SetPadConfig, Args{index(padIndex): values})
}

func General(general types.GeneralConfig) Command {
	return NewDirty(SetGeneral, general)
}

// Settings patches settings of several pads, keyed by pad index.
func Settings(values any) Command {
	return NewDirty(SetSettings, values)
}

func PadSettings(padIndex int, values any) Command {
	return Settings(Args{index(padIndex): values})
}

// Mappings patches the mappings of every role in values. With replace set the
// device drops mapping fields that are not given.
func Mappings(values map[string]any, replace bool) Command {
	args := make(Args, len(values)+1)
	for role, v := range values {
		args[role] = v
	}
	args[ReplaceKey] = replace
	return NewDirty(SetMappings, args)
}

func RoleMappings(role string, values any, replace bool) Command {
	return Mappings(map[string]any{role: values}, replace)
}

// MonitorPad selects the monitored pad. A nil index disables monitoring.
func MonitorPad(padIndex *int) Command {
	var v any
	if padIndex != nil {
		v = *padIndex
	}
	return New(SetMonitor, Args{"padIndex": v})
}

func MonitorAllPads(enabled bool) Command {
	return New(SetMonitor, Args{"triggeredByAllPads": enabled})
}

type LatencyMode int

const (
	LatencyPreview LatencyMode = iota
	LatencyMeasure
)

// LatencyTestOn starts a latency test. A nil note lets the device pick its default.
func LatencyTestOn(mode LatencyMode, threshold int, midiNote *uint8) Command {
	args := Args{
		"enabled":   true,
		"preview":   mode == LatencyPreview,
		"threshold": threshold,
	}
	if midiNote != nil {
		args["midiNote"] = *midiNote
	}
	return New(LatencyTest, args)
}

func LatencyTestOff() Command {
	return New(LatencyTest, Args{"enabled": false})
}
