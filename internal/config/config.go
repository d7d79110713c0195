// Package config loads and saves the YAML configuration of the epaper-test tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BeatGlow/epaper"
)

// PanelConfig describes the panel geometry and timing.
type PanelConfig struct {
	// Width and Height in the panel's native orientation.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Rotation in degrees clock wise: 0, 90, 180 or 270.
	Rotation int `yaml:"rotation"`

	// Planes is 1 for black/white, 2 for black/white/red.
	Planes int `yaml:"planes"`

	// BusyTimeout bounds every wait for the controller (e.g. "5s").
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// SPIConfig describes the bus and the control pins.
type SPIConfig struct {
	// Port is the periph.io SPI port name; empty selects the first port.
	Port    string `yaml:"port"`
	SpeedHz int64  `yaml:"speed_hz"`
	Reset   string `yaml:"reset"`
	DC      string `yaml:"dc"`
	Busy    string `yaml:"busy"`
}

// Config is the top-level tool configuration.
type Config struct {
	Panel PanelConfig `yaml:"panel"`
	SPI   SPIConfig   `yaml:"spi"`

	// Font is an optional TrueType font file; the built-in bitmap face is used when empty.
	Font     string  `yaml:"font,omitempty"`
	FontSize float64 `yaml:"font_size"`

	// Schedule is a cron expression (e.g. "*/5 * * * *") for periodic partial refreshes. Empty
	// draws once and exits.
	Schedule string `yaml:"schedule,omitempty"`

	// FullEvery forces a full refresh after this many scheduled partial refreshes.
	FullEvery int `yaml:"full_every"`
}

// DefaultConfig returns the configuration for a 2.13" 122x250 panel wired like the Inky pHAT.
func DefaultConfig() *Config {
	return &Config{
		Panel: PanelConfig{
			Width:       122,
			Height:      250,
			Rotation:    270,
			Planes:      1,
			BusyTimeout: epaper.DefaultConfig.BusyTimeout,
		},
		SPI: SPIConfig{
			SpeedHz: 4_000_000,
			Reset:   epaper.DefaultResetPin,
			DC:      epaper.DefaultDCPin,
			Busy:    epaper.DefaultBusyPin,
		},
		FontSize:  16,
		FullEvery: 10,
	}
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Panel.Width == 0 && c.Panel.Height == 0 {
		c.Panel.Width, c.Panel.Height = d.Panel.Width, d.Panel.Height
	}
	if c.Panel.Planes == 0 {
		c.Panel.Planes = d.Panel.Planes
	}
	if c.Panel.BusyTimeout <= 0 {
		c.Panel.BusyTimeout = d.Panel.BusyTimeout
	}
	if c.SPI.SpeedHz <= 0 {
		c.SPI.SpeedHz = d.SPI.SpeedHz
	}
	if c.SPI.Reset == "" {
		c.SPI.Reset = d.SPI.Reset
	}
	if c.SPI.DC == "" {
		c.SPI.DC = d.SPI.DC
	}
	if c.SPI.Busy == "" {
		c.SPI.Busy = d.SPI.Busy
	}
	if c.FontSize <= 0 {
		c.FontSize = d.FontSize
	}
	if c.FullEvery <= 0 {
		c.FullEvery = d.FullEvery
	}
}

// ParseRotation converts degrees (clock wise) to a rotation.
func ParseRotation(degrees int) (epaper.Rotation, error) {
	switch degrees {
	case 0:
		return epaper.NoRotation, nil
	case 90:
		return epaper.Rotate90, nil
	case 180:
		return epaper.Rotate180, nil
	case 270:
		return epaper.Rotate270, nil
	default:
		return 0, fmt.Errorf("config: invalid rotation %d°", degrees)
	}
}

// Display returns the driver configuration for the panel.
func (c *Config) Display() (*epaper.Config, error) {
	rotation, err := ParseRotation(c.Panel.Rotation)
	if err != nil {
		return nil, err
	}
	config := epaper.DefaultConfig
	config.Width = c.Panel.Width
	config.Height = c.Panel.Height
	config.Rotation = rotation
	config.Planes = c.Panel.Planes
	config.BusyTimeout = c.Panel.BusyTimeout
	return &config, nil
}

// Load reads the configuration at path. A missing file is created with the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(path, cfg)
		}
		return nil, err
	}

	cfg := new(Config)
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path atomically, with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".epaper-config-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
