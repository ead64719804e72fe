package types

// MaxSensorValue is the upper bound of the device's 10 bit sensor range.
const MaxSensorValue = 1023

// MaxGateTimeMs is the upper bound of GeneralConfig.GateTimeMs.
const MaxGateTimeMs = 30000

// DeviceConfig is the client side mirror of the device configuration as sent in
// the "config" frame.
type DeviceConfig struct {
	General     GeneralConfig              `json:"general" yaml:"general"`
	Mux         []MuxConfig                `json:"mux,omitempty" yaml:"mux,omitempty"`
	Pads        []DrumPadConfig            `json:"pads" yaml:"pads"`
	Connectors  map[string]ConnectorConfig `json:"connectors" yaml:"connectors"`
	Mappings    map[string]DrumPadMappings `json:"mappings" yaml:"mappings"`
	Settings    map[string]DrumPadSettings `json:"settings" yaml:"settings,omitempty"`
	Monitor     MonitorConfig              `json:"monitor" yaml:"-"`
	LatencyTest bool                       `json:"latencyTest" yaml:"-"`
	IsDirty     bool                       `json:"isDirty" yaml:"-"`
	Version     *VersionInfo               `json:"version,omitempty" yaml:"-"`
}

type GeneralConfig struct {
	GateTimeMs int `json:"gateTimeMs" yaml:"gateTimeMs"`
}

type MuxConfig struct {
	Type string  `json:"type" yaml:"type"`
	Pins MuxPins `json:"pins" yaml:"pins"`
}

type MuxPins struct {
	AnalogIn int   `json:"analogIn" yaml:"analogIn"`
	Enable   *int  `json:"enable,omitempty" yaml:"enable,omitempty"`
	Select   []int `json:"select" yaml:"select"`
}

type DrumPadConfig struct {
	Name          string           `json:"name" yaml:"name"`
	Role          string           `json:"role" yaml:"role"`
	Group         string           `json:"group,omitempty" yaml:"group,omitempty"`
	Enabled       bool             `json:"enabled" yaml:"enabled"`
	AutoCalibrate bool             `json:"autocalibrate" yaml:"autocalibrate"`
	Pedal         *string          `json:"pedal,omitempty" yaml:"pedal,omitempty"`
	Connector     *string          `json:"connector,omitempty" yaml:"connector,omitempty"`
	Settings      *DrumPadSettings `json:"settings,omitempty" yaml:"settings,omitempty"`
}

type ZoneThreshold struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

type DrumPadSettings struct {
	PadType        PadType         `json:"padType" yaml:"padType"`
	ZonesType      ZonesType       `json:"zonesType" yaml:"zonesType"`
	ChokeType      ChokeType       `json:"chokeType,omitempty" yaml:"chokeType,omitempty"`
	ZoneThresholds []ZoneThreshold `json:"zoneThresholds,omitempty" yaml:"zoneThresholds,omitempty"`
	CurveType      CurveType       `json:"curveType,omitempty" yaml:"curveType,omitempty"`

	ScanTimeUs *int `json:"scanTimeUs,omitempty" yaml:"scanTimeUs,omitempty"`
	MaskTimeMs *int `json:"maskTimeMs,omitempty" yaml:"maskTimeMs,omitempty"`

	// pedal
	AlmostClosedThreshold *float64 `json:"almostClosedThreshold,omitempty" yaml:"almostClosedThreshold,omitempty"`
	ClosedThreshold       *float64 `json:"closedThreshold,omitempty" yaml:"closedThreshold,omitempty"`
	MoveDetectTolerance   *int     `json:"moveDetectTolerance,omitempty" yaml:"moveDetectTolerance,omitempty"`
	ChickDetectTimeoutMs  *int     `json:"chickDetectTimeoutMs,omitempty" yaml:"chickDetectTimeoutMs,omitempty"`

	HeadRimBias      *int  `json:"headRimBias,omitempty" yaml:"headRimBias,omitempty"` // -100 .. 100
	CrossNoteEnabled *bool `json:"crossNoteEnabled,omitempty" yaml:"crossNoteEnabled,omitempty"`
}

type DrumPadMappings struct {
	NoteMain *uint8 `json:"noteMain,omitempty" yaml:"noteMain,omitempty"`
	NoteRim  *uint8 `json:"noteRim,omitempty" yaml:"noteRim,omitempty"`
	NoteCup  *uint8 `json:"noteCup,omitempty" yaml:"noteCup,omitempty"`

	ClosedNotesEnabled *bool  `json:"closedNotesEnabled,omitempty" yaml:"closedNotesEnabled,omitempty"`
	NoteCloseMain      *uint8 `json:"noteCloseMain,omitempty" yaml:"noteCloseMain,omitempty"`
	NoteCloseRim       *uint8 `json:"noteCloseRim,omitempty" yaml:"noteCloseRim,omitempty"`
	NoteCloseCup       *uint8 `json:"noteCloseCup,omitempty" yaml:"noteCloseCup,omitempty"`

	NoteCross *uint8 `json:"noteCross,omitempty" yaml:"noteCross,omitempty"`

	PedalChickEnabled *bool `json:"pedalChickEnabled,omitempty" yaml:"pedalChickEnabled,omitempty"`
}

type MonitorConfig struct {
	PadIndex           *int `json:"padIndex,omitempty"`
	TriggeredByAllPads bool `json:"triggeredByAllPads"`
}

type VersionInfo struct {
	PackageVersion string `json:"packageVersion"`
	GitCommitHash  string `json:"gitCommitHash"`
	BuildTime      string `json:"buildTime"`
}

// EmptyDeviceConfig is the state of the mirror before the first config frame arrived.
func EmptyDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Pads:       []DrumPadConfig{},
		Connectors: map[string]ConnectorConfig{},
		Mappings:   map[string]DrumPadMappings{},
		Settings:   map[string]DrumPadSettings{},
	}
}

// Clone returns a deep copy of c.
func (c DeviceConfig) Clone() DeviceConfig {
	out := c
	if c.Mux != nil {
		out.Mux = make([]MuxConfig, len(c.Mux))
		for i, m := range c.Mux {
			m.Pins.Enable = clonePtr(m.Pins.Enable)
			m.Pins.Select = cloneSlice(m.Pins.Select)
			out.Mux[i] = m
		}
	}
	if c.Pads != nil {
		out.Pads = make([]DrumPadConfig, len(c.Pads))
		for i, p := range c.Pads {
			out.Pads[i] = p.Clone()
		}
	}
	if c.Connectors != nil {
		out.Connectors = make(map[string]ConnectorConfig, len(c.Connectors))
		for id, conn := range c.Connectors {
			out.Connectors[id] = conn.Clone()
		}
	}
	if c.Mappings != nil {
		out.Mappings = make(map[string]DrumPadMappings, len(c.Mappings))
		for role, m := range c.Mappings {
			out.Mappings[role] = m.Clone()
		}
	}
	if c.Settings != nil {
		out.Settings = make(map[string]DrumPadSettings, len(c.Settings))
		for role, s := range c.Settings {
			out.Settings[role] = s.Clone()
		}
	}
	out.Monitor.PadIndex = clonePtr(c.Monitor.PadIndex)
	out.Version = clonePtr(c.Version)
	return out
}

func (p DrumPadConfig) Clone() DrumPadConfig {
	p.Pedal = clonePtr(p.Pedal)
	p.Connector = clonePtr(p.Connector)
	if p.Settings != nil {
		s := p.Settings.Clone()
		p.Settings = &s
	}
	return p
}

func (s DrumPadSettings) Clone() DrumPadSettings {
	s.ZoneThresholds = cloneSlice(s.ZoneThresholds)
	s.ScanTimeUs = clonePtr(s.ScanTimeUs)
	s.MaskTimeMs = clonePtr(s.MaskTimeMs)
	s.AlmostClosedThreshold = clonePtr(s.AlmostClosedThreshold)
	s.ClosedThreshold = clonePtr(s.ClosedThreshold)
	s.MoveDetectTolerance = clonePtr(s.MoveDetectTolerance)
	s.ChickDetectTimeoutMs = clonePtr(s.ChickDetectTimeoutMs)
	s.HeadRimBias = clonePtr(s.HeadRimBias)
	s.CrossNoteEnabled = clonePtr(s.CrossNoteEnabled)
	return s
}

func (m DrumPadMappings) Clone() DrumPadMappings {
	m.NoteMain = clonePtr(m.NoteMain)
	m.NoteRim = clonePtr(m.NoteRim)
	m.NoteCup = clonePtr(m.NoteCup)
	m.ClosedNotesEnabled = clonePtr(m.ClosedNotesEnabled)
	m.NoteCloseMain = clonePtr(m.NoteCloseMain)
	m.NoteCloseRim = clonePtr(m.NoteCloseRim)
	m.NoteCloseCup = clonePtr(m.NoteCloseCup)
	m.NoteCross = clonePtr(m.NoteCross)
	m.PedalChickEnabled = clonePtr(m.PedalChickEnabled)
	return m
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// Ptr returns a pointer to v. Handy for the optional fields above.
func Ptr[T any](v T) *T {
	return &v
}
