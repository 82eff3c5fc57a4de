// Package config loads the station configuration: which sensors are
// attached, where, and how often to sample them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"airquality-go/errcode"
)

// Config is the whole station file.
type Config struct {
	// I2CDevice is the host bus device, e.g. /dev/i2c-1.
	I2CDevice string `yaml:"i2c_device"`
	// PeriodMS is the sampling interval in milliseconds.
	PeriodMS int `yaml:"period_ms"`

	BMP280  BMP280  `yaml:"bmp280"`
	CCS811  CCS811  `yaml:"ccs811"`
	HDC1080 HDC1080 `yaml:"hdc1080"`
	PMS7003 Serial  `yaml:"pms7003"`
	S8      Serial  `yaml:"s8"`
}

// BMP280 configures the pressure/temperature sensor.
type BMP280 struct {
	Enabled                 bool   `yaml:"enabled"`
	Address                 uint16 `yaml:"address"`
	TemperatureOversampling int    `yaml:"temperature_oversampling"`
	PressureOversampling    int    `yaml:"pressure_oversampling"`
	FilterCoefficient       int    `yaml:"filter_coefficient"`
}

// CCS811 configures the air-quality sensor.
type CCS811 struct {
	Enabled   bool   `yaml:"enabled"`
	Address   uint16 `yaml:"address"`
	DriveMode string `yaml:"drive_mode"`
}

// HDC1080 configures the temperature/humidity sensor.
type HDC1080 struct {
	Enabled               bool `yaml:"enabled"`
	Heater                bool `yaml:"heater"`
	TemperatureResolution int  `yaml:"temperature_resolution"`
	HumidityResolution    int  `yaml:"humidity_resolution"`
}

// Serial configures a UART-attached sensor.
type Serial struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

// Default returns the configuration used when a field is absent.
func Default() Config {
	return Config{
		I2CDevice: "/dev/i2c-1",
		PeriodMS:  10000,
	}
}

// Period returns the sampling interval.
func (c Config) Period() time.Duration {
	return time.Duration(c.PeriodMS) * time.Millisecond
}

// NeedsI2C reports whether any I2C-attached sensor is enabled.
func (c Config) NeedsI2C() bool {
	return c.BMP280.Enabled || c.CCS811.Enabled || c.HDC1080.Enabled
}

// Load reads and validates a station file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &errcode.E{C: errcode.Configuration, Op: "config.Load", Msg: "read " + path, Err: err}
	}
	return Parse(raw)
}

// Parse decodes a station file from memory, applies defaults and
// validates the result.
func Parse(raw []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, &errcode.E{C: errcode.Configuration, Op: "config.Parse", Msg: "invalid yaml", Err: err}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks internal consistency. Sensor-specific option values
// (oversampling counts, drive modes) are validated by the drivers.
func (c Config) Validate() error {
	fail := func(msg string) error {
		return &errcode.E{C: errcode.Configuration, Op: "config.Validate", Msg: msg}
	}
	if c.PeriodMS <= 0 {
		return fail(fmt.Sprintf("period_ms must be positive, got %d", c.PeriodMS))
	}
	if c.NeedsI2C() && c.I2CDevice == "" {
		return fail("i2c_device must be set when an I2C sensor is enabled")
	}
	if c.PMS7003.Enabled && c.PMS7003.Port == "" {
		return fail("pms7003.port must be set")
	}
	if c.S8.Enabled && c.S8.Port == "" {
		return fail("s8.port must be set")
	}
	if c.PMS7003.Enabled && c.S8.Enabled && c.PMS7003.Port == c.S8.Port {
		return fail("pms7003 and s8 cannot share a serial port")
	}
	return nil
}
