// Package config loads the gate-dialer YAML configuration.
//
// Defaults, file, then flag overrides are applied in that order; Validate runs last
// so the rest of the daemon can assume a well-formed config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GPIO backends.
const (
	BackendGPIOCdev = "gpiocdev"
	BackendPeriph   = "periph"
	BackendRpio     = "rpio"
	BackendSysfs    = "sysfs"
	BackendNone     = "none"
)

// Config is the top-level YAML configuration.
type Config struct {
	GPIO    GPIOConfig    `yaml:"gpio"`
	Gate    GateConfig    `yaml:"gate"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	HomeKit HomeKitConfig `yaml:"homekit"`
	Logging LoggingConfig `yaml:"logging"`
}

type GPIOConfig struct {
	Backend    string `yaml:"backend"` // gpiocdev, periph, rpio, sysfs or none
	Chip       string `yaml:"chip"`
	TriggerPin int    `yaml:"trigger_pin"`
	TestPin    int    `yaml:"test_pin"` // -1 disables the test button
	DebounceUS int    `yaml:"debounce_us,omitempty"`
	PollUS     int    `yaml:"poll_us"` // rpio sampling period
}

type GateConfig struct {
	FrameMS    int   `yaml:"frame_ms"`
	SelfTest   bool  `yaml:"self_test"`
	CollapseMS int   `yaml:"collapse_ms"`
	Seed       int64 `yaml:"seed,omitempty"` // 0 seeds from the clock
}

type MQTTConfig struct {
	Broker     string `yaml:"broker"` // empty disables MQTT
	ClientID   string `yaml:"client_id"`
	Buffer     int    `yaml:"buffer"`
	HeartbeatS int    `yaml:"heartbeat_s"` // 0 disables
}

type HTTPConfig struct {
	Addr            string `yaml:"addr"` // empty disables the status server
	Live            bool   `yaml:"live"`
	FrameIntervalMS int    `yaml:"frame_interval_ms"`
}

type HomeKitConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Name     string `yaml:"name"`
	StateDir string `yaml:"state_dir"`
	Pin      string `yaml:"pin"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		GPIO: GPIOConfig{
			Backend:    BackendGPIOCdev,
			Chip:       "gpiochip0",
			TriggerPin: 4,
			TestPin:    7,
			PollUS:     1000,
		},
		Gate: GateConfig{
			FrameMS:    8,
			SelfTest:   true,
			CollapseMS: 1250,
		},
		MQTT: MQTTConfig{
			Broker:     "tcp://192.168.1.200:1883",
			ClientID:   "gate-dialer",
			Buffer:     256,
			HeartbeatS: 900,
		},
		HTTP: HTTPConfig{
			Addr:            ":80",
			Live:            true,
			FrameIntervalMS: 40,
		},
		HomeKit: HomeKitConfig{
			Enabled:  false,
			Name:     "stargate",
			StateDir: "/var/lib/gate-dialer/homekit",
			Pin:      "00102003",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFile reads a YAML config file over DefaultConfig. Unknown fields are
// rejected to catch typos.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over DefaultConfig.
func Parse(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace and comments are allowed after the document.
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds flag values to apply over a loaded config.
// A nil pointer means the flag was not set.
type FlagOverrides struct {
	Backend    *string
	TriggerPin *int
	TestPin    *int
	SelfTest   *bool
	Broker     *string
	HTTPAddr   *string
	HomeKit    *bool
	LogLevel   *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Backend != nil {
		cfg.GPIO.Backend = *o.Backend
	}
	if o.TriggerPin != nil {
		cfg.GPIO.TriggerPin = *o.TriggerPin
	}
	if o.TestPin != nil {
		cfg.GPIO.TestPin = *o.TestPin
	}
	if o.SelfTest != nil {
		cfg.Gate.SelfTest = *o.SelfTest
	}
	if o.Broker != nil {
		cfg.MQTT.Broker = *o.Broker
	}
	if o.HTTPAddr != nil {
		cfg.HTTP.Addr = *o.HTTPAddr
	}
	if o.HomeKit != nil {
		cfg.HomeKit.Enabled = *o.HomeKit
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
func (c *Config) Validate() error {
	switch c.GPIO.Backend {
	case BackendGPIOCdev, BackendPeriph, BackendRpio, BackendSysfs, BackendNone:
	default:
		return fmt.Errorf("gpio.backend must be one of %q, %q, %q, %q or %q",
			BackendGPIOCdev, BackendPeriph, BackendRpio, BackendSysfs, BackendNone)
	}
	if c.GPIO.Backend == BackendGPIOCdev && c.GPIO.Chip == "" {
		return errors.New("gpio.chip must not be empty")
	}
	if c.GPIO.TriggerPin < 0 {
		return errors.New("gpio.trigger_pin must be >= 0")
	}
	if c.GPIO.TestPin < -1 {
		return errors.New("gpio.test_pin must be >= 0, or -1 to disable")
	}
	if c.GPIO.TestPin == c.GPIO.TriggerPin {
		return errors.New("gpio.test_pin must differ from gpio.trigger_pin")
	}
	if c.GPIO.DebounceUS < 0 {
		return errors.New("gpio.debounce_us must be >= 0")
	}
	if c.GPIO.Backend == BackendRpio && (c.GPIO.PollUS <= 0 || c.GPIO.PollUS > 10000) {
		return errors.New("gpio.poll_us must be between 1 and 10000")
	}

	if c.Gate.FrameMS <= 0 || c.Gate.FrameMS > 1000 {
		return errors.New("gate.frame_ms must be between 1 and 1000")
	}
	if c.Gate.CollapseMS <= 0 {
		return errors.New("gate.collapse_ms must be > 0")
	}

	if c.MQTT.Broker != "" {
		if c.MQTT.ClientID == "" {
			return errors.New("mqtt.client_id must not be empty when mqtt.broker is set")
		}
		if c.MQTT.Buffer <= 0 {
			return errors.New("mqtt.buffer must be > 0")
		}
		if c.MQTT.HeartbeatS < 0 {
			return errors.New("mqtt.heartbeat_s must be >= 0")
		}
	}

	if c.HTTP.Addr != "" && c.HTTP.FrameIntervalMS <= 0 {
		return errors.New("http.frame_interval_ms must be > 0")
	}

	if c.HomeKit.Enabled {
		if c.HomeKit.StateDir == "" {
			return errors.New("homekit.enabled is true but homekit.state_dir is empty")
		}
		if !validPin(c.HomeKit.Pin) {
			return errors.New("homekit.pin must be 8 digits")
		}
		if c.HomeKit.Name == "" {
			return errors.New("homekit.name must not be empty")
		}
	}

	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// FrameInterval returns the gate frame pacing.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Gate.FrameMS) * time.Millisecond
}

// CollapseDuration returns the collapse animation length.
func (c *Config) CollapseDuration() time.Duration {
	return time.Duration(c.Gate.CollapseMS) * time.Millisecond
}

// HeartbeatInterval returns the MQTT heartbeat period, or 0 when disabled.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.MQTT.HeartbeatS) * time.Second
}

// PollInterval returns the sampling period for the rpio backend.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.GPIO.PollUS) * time.Microsecond
}

// Debounce returns the kernel debounce period for the trigger line.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.GPIO.DebounceUS) * time.Microsecond
}

func validPin(pin string) bool {
	if len(pin) != 8 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
