package merge

import (
	"errors"
	"strings"
	"testing"

	"github.com/automatedhome/eavesdrum-bridge/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []command.Command
}

func (r *recorder) Send(cmd command.Command) error {
	r.sent = append(r.sent, cmd)
	return nil
}

func (r *recorder) encoded(t *testing.T) []string {
	var out []string
	for _, c := range r.sent {
		data, err := c.Encode()
		require.NoError(t, err)
		out = append(out, string(data))
	}
	return out
}

func parse(t *testing.T, doc string) Fragment {
	f, err := Parse([]byte(doc))
	require.NoError(t, err)
	return f
}

func TestWholeMappingsWithoutContext(t *testing.T) {
	r := &recorder{}
	err := Apply(parse(t, "mappings:\n  snare:\n    noteMain: 38\n"), DropContext{}, r)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`{"setMappings":{"_replace":true,"snare":{"noteMain":38}}}`,
		`{"getConfig":{}}`,
	}, r.encoded(t))
	assert.True(t, r.sent[0].Dirty)
	assert.False(t, r.sent[1].Dirty)
}

func TestSettingsWithoutPadIndex(t *testing.T) {
	r := &recorder{}
	err := Apply(parse(t, "settings:\n  padType: Drum\n  zonesType: Zones2_Piezos\n"),
		DropContext{Filter: FilterSettings}, r)

	assert.ErrorIs(t, err, ErrNoTargetPad)
	assert.Equal(t, "No target pad known", Message(err))
	assert.Empty(t, r.sent)
}

func TestWholeDeviceShortCircuits(t *testing.T) {
	r := &recorder{}
	doc := `
general:
  gateTimeMs: 12
pads:
  - name: Snare
    role: snare
mappings:
  snare:
    noteMain: 38
settings:
  snare:
    padType: Drum
`
	err := Apply(parse(t, doc), DropContext{}, r)
	require.NoError(t, err)

	require.Len(t, r.sent, 2)
	assert.Equal(t, command.SetConfig, r.sent[0].Name)
	assert.True(t, r.sent[0].Dirty)
	assert.Equal(t, command.GetConfig, r.sent[1].Name)
	for _, c := range r.sent {
		assert.NotEqual(t, command.SetMappings, c.Name)
		assert.NotEqual(t, command.SetSettings, c.Name)
	}
}

func TestRoleMissingFromMappings(t *testing.T) {
	r := &recorder{}
	err := Apply(parse(t, "mappings:\n  snare:\n    noteMain: 38\n"),
		DropContext{Filter: FilterMappings, PadRole: "hihat"}, r)

	assert.ErrorIs(t, err, ErrNoRoleMappings)
	assert.Equal(t, "No mappings found for this role", Message(err))
	assert.Empty(t, r.sent)
}

func TestRoleMappings(t *testing.T) {
	r := &recorder{}
	err := Apply(parse(t, "mappings:\n  hihat:\n    noteCloseMain: 42\n  snare:\n    noteMain: 38\n"),
		DropContext{Filter: FilterMappings, PadRole: "hihat"}, r)
	require.NoError(t, err)

	assert.Equal(t, `{"setMappings":{"_replace":true,"hihat":{"noteCloseMain":42}}}`, r.encoded(t)[0])
}

func TestPadSettingsLookup(t *testing.T) {
	pad := 3
	tests := []struct {
		name string
		doc  string
		role string
		want string
	}{
		{
			name: "section",
			doc:  "settings:\n  padType: Drum\n",
			want: `{"setSettings":{"3":{"padType":"Drum"}}}`,
		},
		{
			name: "role",
			doc:  "settings:\n  kick:\n    padType: Drum\n  ride:\n    padType: Cymbal\n",
			role: "ride",
			want: `{"setSettings":{"3":{"padType":"Cymbal"}}}`,
		},
		{
			name: "preset",
			doc:  "preset:\n  padType: Pedal\n",
			role: "hihat",
			want: `{"setSettings":{"3":{"padType":"Pedal"}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			err := Apply(parse(t, tt.doc), DropContext{Filter: FilterSettings, PadIndex: &pad, PadRole: tt.role}, r)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want, `{"getConfig":{}}`}, r.encoded(t))
		})
	}
}

func TestNoSettings(t *testing.T) {
	pad := 0
	r := &recorder{}
	err := Apply(parse(t, "mappings:\n  snare:\n    noteMain: 38\n"), DropContext{Filter: FilterSettings, PadIndex: &pad}, r)

	assert.ErrorIs(t, err, ErrNoSettings)
	assert.Empty(t, r.sent)
}

func TestPadSettingsOtherRole(t *testing.T) {
	pad := 0
	doc := "settings:\n  kick:\n    padType: Drum\n"

	r := &recorder{}
	err := Apply(parse(t, doc+"preset:\n  padType: Cymbal\n"), DropContext{Filter: FilterSettings, PadIndex: &pad, PadRole: "snare"}, r)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"setSettings":{"0":{"padType":"Cymbal"}}}`, `{"getConfig":{}}`}, r.encoded(t))

	for _, role := range []string{"snare", ""} {
		r = &recorder{}
		err = Apply(parse(t, doc), DropContext{Filter: FilterSettings, PadIndex: &pad, PadRole: role}, r)
		assert.ErrorIs(t, err, ErrNoSettings)
		assert.Empty(t, r.sent)
	}
}

func TestNoMappings(t *testing.T) {
	r := &recorder{}
	err := Apply(parse(t, "settings:\n  padType: Drum\n"), DropContext{}, r)

	assert.ErrorIs(t, err, ErrNoMappings)
	assert.Equal(t, "No mappings section found", Message(err))
	assert.Empty(t, r.sent)

	err = Apply(Fragment{}, DropContext{Filter: FilterMappings}, r)
	assert.ErrorIs(t, err, ErrNoMappings)
}

func TestUnknownFilter(t *testing.T) {
	_, err := Plan(Fragment{"mappings": map[string]any{}}, DropContext{Filter: Filter(9)})
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, "No valid config entry found", Message(err))
}

func TestParseFile(t *testing.T) {
	f, err := ParseFile("kit.YML", strings.NewReader("general:\n  gateTimeMs: 3\nconnectors:\n  A:\n    pins: [1, {mux: 0, channel: 2}]\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"gateTimeMs": 3}, f["general"])
	pins := f["connectors"].(map[string]any)["A"].(map[string]any)["pins"].([]any)
	assert.Equal(t, map[string]any{"mux": 0, "channel": 2}, pins[1])

	_, err = ParseFile("kit.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = ParseFile("kit.yaml", strings.NewReader("general: [unclosed"))
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.True(t, strings.HasPrefix(Message(err), "File unreadable: "))

	_, err = ParseFile("kit.yaml", strings.NewReader("- 1\n- 2\n"))
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = ParseFile("kit.yaml", failingReader{})
	assert.ErrorIs(t, err, ErrUnreadable)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("aborted")
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Settings")
	require.NoError(t, err)
	assert.Equal(t, FilterSettings, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterNone, f)

	_, err = ParseFilter("pads")
	assert.Error(t, err)
}
