package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the bridge service configuration, read from a yaml file and
// overridden by command line flags.
type Config struct {
	Device         string `yaml:"device"`
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	Prefix         string `yaml:"topic_prefix"`
	Listen         string `yaml:"listen"`
	ReconnectDelay int    `yaml:"reconnect_delay_ms"`
	Interval       int    `yaml:"sync_interval"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Device:         "192.168.4.1",
		Broker:         "tcp://127.0.0.1:1883",
		Prefix:         "eavesdrum",
		Listen:         ":8090",
		ReconnectDelay: 1000,
		Interval:       30,
	}
}

// LoadConfig reads path on top of DefaultConfig. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) ReconnectDelayDuration() time.Duration {
	return time.Duration(c.ReconnectDelay) * time.Millisecond
}

func (c Config) SyncInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Stats is the payload of a "stats" frame.
type Stats struct {
	UpdateCountPer30s *uint32 `json:"updateCountPer30s"`
}

const statsWindow = 30 * time.Second

// PollingInterval derives the sensor polling interval from the update count.
// ok is false when the device did not report a count.
func (s Stats) PollingInterval() (interval time.Duration, pollsPerSecond int, ok bool) {
	if s.UpdateCountPer30s == nil || *s.UpdateCountPer30s == 0 {
		return 0, 0, false
	}
	count := int64(*s.UpdateCountPer30s)
	interval = time.Duration(int64(statsWindow) / count)
	pollsPerSecond = int((count + 15) / 30)
	return interval, pollsPerSecond, true
}

type LogLevel int

const (
	LogInfo LogLevel = iota
	LogWarn
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// LogEvent is one entry of the device event log ("events" frame).
type LogEvent struct {
	ID      int      `json:"id"`
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}
