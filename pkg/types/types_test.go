package types

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestZonesCount(t *testing.T) {
	want := map[ZonesType]int{
		Zones1Controller:           1,
		Zones1Piezo:                1,
		Zones2Piezos:               2,
		Zones2PiezoAndSwitch:       2,
		Zones3Piezos:               3,
		Zones3PiezoAndSwitches2TRS: 3,
		Zones3PiezoAndSwitches1TRS: 3,
	}
	require.Len(t, ZonesTypes, len(want))
	for _, z := range ZonesTypes {
		assert.Equal(t, want[z], z.ZonesCount(), string(z))
	}
	assert.Equal(t, 0, ZonesType("bogus").ZonesCount())
}

func TestOrdinalLookup(t *testing.T) {
	p, err := PadTypeFromOrdinal(2)
	require.NoError(t, err)
	assert.Equal(t, PadTypePedal, p)

	_, err = PadTypeFromOrdinal(3)
	var ordErr *OrdinalError
	require.ErrorAs(t, err, &ordErr)
	assert.Equal(t, 3, ordErr.Count)

	o, ok := ChokeSwitchEdge.Ordinal()
	assert.True(t, ok)
	assert.Equal(t, uint8(1), o)

	_, ok = ChokeType("TouchSensor").Ordinal()
	assert.False(t, ok)
}

func TestPinConfigJSON(t *testing.T) {
	var conn ConnectorConfig
	require.NoError(t, json.Unmarshal([]byte(`{"pins":[26,{"mux":0,"channel":5}]}`), &conn))

	require.Len(t, conn.Pins, 2)
	assert.False(t, conn.Pins[0].IsMux())
	assert.Equal(t, 26, conn.Pins[0].Analog)
	assert.True(t, conn.Pins[1].IsMux())
	assert.Equal(t, MuxChannel{Mux: 0, Channel: 5}, *conn.Pins[1].Mux)

	out, err := json.Marshal(conn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pins":[26,{"mux":0,"channel":5}]}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"pins":["a"]}`), &conn))
}

func TestPadConfigKeys(t *testing.T) {
	var pad DrumPadConfig
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Kick","role":"kick","enabled":true,"autocalibrate":true}`), &pad))
	assert.True(t, pad.AutoCalibrate)

	out, err := json.Marshal(pad)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"autocalibrate":true`)

	y, err := yaml.Marshal(pad)
	require.NoError(t, err)
	assert.Contains(t, string(y), "autocalibrate: true")
}

func TestPinConfigYAML(t *testing.T) {
	var conn ConnectorConfig
	require.NoError(t, yaml.Unmarshal([]byte("pins:\n- 27\n- {mux: 1, channel: 3}\n"), &conn))
	assert.Equal(t, []PinConfig{AnalogPin(27), MuxPin(1, 3)}, conn.Pins)

	out, err := yaml.Marshal(conn)
	require.NoError(t, err)

	var back ConnectorConfig
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, conn, back)
}

func sampleConfig() DeviceConfig {
	cfg := EmptyDeviceConfig()
	cfg.Pads = []DrumPadConfig{
		{Name: "Snare", Role: "snare", Enabled: true, Connector: Ptr("A")},
		{Name: "Tom", Role: "tom1", Connector: Ptr("B"),
			Settings: &DrumPadSettings{PadType: PadTypeDrum, ZonesType: Zones1Piezo}},
	}
	cfg.Connectors["A"] = ConnectorConfig{Pins: []PinConfig{AnalogPin(26), MuxPin(0, 2)}}
	cfg.Mappings["snare"] = DrumPadMappings{NoteMain: Ptr[uint8](38)}
	cfg.Settings["snare"] = DrumPadSettings{PadType: PadTypeDrum, ZonesType: Zones2Piezos}
	return cfg
}

func TestQueries(t *testing.T) {
	cfg := sampleConfig()

	i, ok := cfg.PadIndexByRole("tom1")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = cfg.PadIndexByRole("kick")
	assert.False(t, ok)

	s, ok := cfg.PadSettingsByIndex(0)
	assert.True(t, ok)
	assert.Equal(t, Zones2Piezos, s.ZonesType)
	s, ok = cfg.PadSettingsByIndex(1)
	assert.True(t, ok)
	assert.Equal(t, Zones1Piezo, s.ZonesType)

	assert.False(t, cfg.IsPadPinConnectedToMux(0, 0))
	assert.True(t, cfg.IsPadPinConnectedToMux(1, 0))
	assert.False(t, cfg.IsPadPinConnectedToMux(0, 1), "unknown connector")
	assert.False(t, cfg.IsPadPinConnectedToMux(0, 9))

	assert.Equal(t, 2, cfg.ZonesCountByRole("snare"))
	assert.Equal(t, 1, cfg.ZonesCountByRole("tom1"))
	assert.Equal(t, 0, cfg.ZonesCountByRole("kick"))

	assert.Equal(t, []int{1}, cfg.InvalidPads())
}

func TestCloneIsDeep(t *testing.T) {
	cfg := sampleConfig()
	clone := cfg.Clone()
	require.Equal(t, cfg, clone)

	*clone.Pads[0].Connector = "Z"
	clone.Pads[1].Settings.ZonesType = Zones3Piezos
	clone.Connectors["A"].Pins[1].Mux.Channel = 7
	*clone.Mappings["snare"].NoteMain = 40

	assert.Equal(t, "A", *cfg.Pads[0].Connector)
	assert.Equal(t, Zones1Piezo, cfg.Pads[1].Settings.ZonesType)
	assert.Equal(t, 2, cfg.Connectors["A"].Pins[1].Mux.Channel)
	assert.Equal(t, uint8(38), *cfg.Mappings["snare"].NoteMain)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, time.Second, cfg.ReconnectDelayDuration())

	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: drum.local\ntopic_prefix: kit\nsync_interval: 5\n"), 0644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "drum.local", cfg.Device)
	assert.Equal(t, "kit", cfg.Prefix)
	assert.Equal(t, 5*time.Second, cfg.SyncInterval())
	assert.Equal(t, "tcp://127.0.0.1:1883", cfg.Broker)

	require.NoError(t, os.WriteFile(path, []byte("unknown_key: 1\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestStatsPollingInterval(t *testing.T) {
	_, _, ok := Stats{}.PollingInterval()
	assert.False(t, ok)

	interval, perSecond, ok := Stats{UpdateCountPer30s: Ptr[uint32](300000)}.PollingInterval()
	assert.True(t, ok)
	assert.Equal(t, 100*time.Microsecond, interval)
	assert.Equal(t, 10000, perSecond)
}
