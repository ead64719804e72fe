package client

import (
	"bytes"

	"github.com/automatedhome/eavesdrum-bridge/pkg/types"
	"gopkg.in/yaml.v2"
)

const schemaHeader = "# yaml-language-server: $schema=./config.jsonc\n"

// exportDoc leaves out the UI specific sections (monitor, isDirty, version, ...).
type exportDoc struct {
	General    types.GeneralConfig              `yaml:"general"`
	Mux        []types.MuxConfig                `yaml:"mux,omitempty"`
	Connectors map[string]types.ConnectorConfig `yaml:"connectors"`
	Pads       []types.DrumPadConfig            `yaml:"pads"`
	Mappings   map[string]types.DrumPadMappings `yaml:"mappings"`
}

// ExportConfig renders the mirrored configuration as a YAML document that
// ImportFile accepts.
func (c *Client) ExportConfig() ([]byte, error) {
	return Export(c.store.State())
}

func Export(cfg types.DeviceConfig) ([]byte, error) {
	data, err := yaml.Marshal(exportDoc{
		General:    cfg.General,
		Mux:        cfg.Mux,
		Connectors: cfg.Connectors,
		Pads:       cfg.Pads,
		Mappings:   cfg.Mappings,
	})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(schemaHeader)
	buf.Write(data)
	return buf.Bytes(), nil
}
