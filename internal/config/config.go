// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the YAML configuration of the command line tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/repaper/epdirect/epd"
	"gopkg.in/yaml.v3"
)

// PinsConfig names the GPIO lines, as known to gpioreg.
type PinsConfig struct {
	PanelOn   string `yaml:"panel_on"`
	Border    string `yaml:"border"`
	Discharge string `yaml:"discharge"`
	Reset     string `yaml:"reset"`
	Busy      string `yaml:"busy"`
}

// ThermometerConfig selects the I²C temperature sensor.
type ThermometerConfig struct {
	Enabled bool `yaml:"enabled"`
	// Kind is lm75, bme280 or bmp280.
	Kind string `yaml:"kind"`
	// Bus is the I²C bus name, empty for the first one.
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
}

// StageConfig overrides the frame count of one stage.
type StageConfig struct {
	Stage  string `yaml:"stage"`
	Frames int    `yaml:"frames"`
}

// PointConfig is one entry of a compensation table, in °C.
type PointConfig struct {
	UpTo     int `yaml:"up_to"`
	Factor10 int `yaml:"factor10"`
}

// WatchConfig drives the periodic refresh of the watch command.
type WatchConfig struct {
	// Cron is a standard five field schedule.
	Cron string `yaml:"cron"`
	// Format is the time layout drawn at each tick.
	Format string `yaml:"format"`
	// Partial uses partial updates between full ones.
	Partial bool `yaml:"partial"`
	// FullEvery forces a full update every FullEvery ticks. Zero never does.
	FullEvery int `yaml:"full_every"`
}

// Config is the top-level configuration.
type Config struct {
	// Panel is the panel size: 1.44, 1.9, 2.0, 2.6 or 2.7.
	Panel string `yaml:"panel"`
	// SPI is the SPI port name, empty for the first one.
	SPI         string            `yaml:"spi"`
	SpeedMHz    int               `yaml:"speed_mhz"`
	Pins        PinsConfig        `yaml:"pins"`
	Thermometer ThermometerConfig `yaml:"thermometer"`
	// Temperature is the fixed temperature in °C used without a thermometer.
	// Zero is 0°C, which only lengthens the refresh.
	Temperature int           `yaml:"temperature"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
	// StateFile keeps the image currently shown across runs.
	StateFile string      `yaml:"state_file"`
	FontSize  float64     `yaml:"font_size"`
	LogLevel  string      `yaml:"log_level"`
	Watch     WatchConfig `yaml:"watch"`

	// Waveform and Compensation replace the built-in ones when set.
	Waveform     []StageConfig `yaml:"waveform,omitempty"`
	Compensation []PointConfig `yaml:"compensation,omitempty"`
}

// DefaultConfig returns the wiring of the repaper.org Raspberry Pi board.
func DefaultConfig() *Config {
	return &Config{
		Panel:    "2.7",
		SpeedMHz: 8,
		Pins: PinsConfig{
			PanelOn:   "GPIO23",
			Border:    "GPIO14",
			Discharge: "GPIO15",
			Reset:     "GPIO25",
			Busy:      "GPIO24",
		},
		Thermometer: ThermometerConfig{Enabled: true, Kind: "lm75", Address: 0x49},
		Temperature: 25,
		BusyTimeout: time.Second,
		StateFile:   "/var/lib/epdirect/current.bin",
		FontSize:    24,
		LogLevel:    "info",
		Watch: WatchConfig{
			Cron:      "* * * * *",
			Format:    "15:04",
			Partial:   true,
			FullEvery: 60,
		},
	}
}

// Normalize fills in missing values with the defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Panel == "" {
		c.Panel = d.Panel
	}
	if c.SpeedMHz <= 0 {
		c.SpeedMHz = d.SpeedMHz
	}
	if c.Pins.PanelOn == "" {
		c.Pins.PanelOn = d.Pins.PanelOn
	}
	if c.Pins.Border == "" {
		c.Pins.Border = d.Pins.Border
	}
	if c.Pins.Discharge == "" {
		c.Pins.Discharge = d.Pins.Discharge
	}
	if c.Pins.Reset == "" {
		c.Pins.Reset = d.Pins.Reset
	}
	if c.Pins.Busy == "" {
		c.Pins.Busy = d.Pins.Busy
	}
	if c.Thermometer.Kind == "" {
		c.Thermometer.Kind = d.Thermometer.Kind
	}
	if c.Thermometer.Address == 0 {
		c.Thermometer.Address = d.Thermometer.Address
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = d.BusyTimeout
	}
	if c.StateFile == "" {
		c.StateFile = d.StateFile
	}
	if c.FontSize <= 0 {
		c.FontSize = d.FontSize
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Watch.Cron == "" {
		c.Watch.Cron = d.Watch.Cron
	}
	if c.Watch.Format == "" {
		c.Watch.Format = d.Watch.Format
	}
}

// Profile returns the panel profile with the overrides applied.
func (c *Config) Profile() (*epd.Profile, error) {
	var s epd.Size
	if err := s.Set(c.Panel); err != nil {
		return nil, err
	}
	p, err := epd.ProfileFor(s)
	if err != nil {
		return nil, err
	}
	if len(c.Waveform) != 0 {
		p.Waveform = p.Waveform[:0]
		for i, sc := range c.Waveform {
			st, err := parseStage(sc.Stage)
			if err != nil {
				return nil, fmt.Errorf("waveform %d: %w", i, err)
			}
			p.Waveform = append(p.Waveform, epd.StageFrames{Stage: st, Frames: sc.Frames})
		}
	}
	if len(c.Compensation) != 0 {
		p.Compensation.Points = p.Compensation.Points[:0]
		for _, pc := range c.Compensation {
			p.Compensation.Points = append(p.Compensation.Points, epd.CompensationPoint{UpTo: epd.Celsius(pc.UpTo), Factor10: pc.Factor10})
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseStage(s string) (epd.Stage, error) {
	for st := epd.Compensate; st <= epd.Normal; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

// Load loads the configuration at path.
//
// On first run the file does not exist: the defaults are written with 0600
// permissions and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(path, cfg)
		}
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path atomically via a temp file and a rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile replaces path with data, readable by the owner only.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".epdirect-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
