// Package bmp280 provides a driver for the Bosch BMP280 barometric
// pressure and temperature sensor over I2C.
//
// The driver is register-map based: the part's layout lives in a shared
// schema and all traffic goes through regmap accessors, so partial
// register updates preserve the untouched bits. A typical forced-mode
// cycle:
//
//	d, err := bmp280.New(tr, bmp280.DefaultConfig())
//	m, err := d.Measure()   // trigger + bounded polling + compensation
package bmp280

import (
	"errors"
	"time"

	"airquality-go/regmap"
)

// I2C addresses (SDO strap).
const (
	Address    = 0x76
	AddressAlt = 0x77
)

const (
	chipID     = 0x58
	resetMagic = 0xB6
)

// ErrTimeout is returned by Measure when the conversion never finishes.
var ErrTimeout = errors.New("bmp280: measurement timeout")

// Operating modes.
const (
	ModeSleep  = "sleep"
	ModeForced = "forced"
	ModeNormal = "normal"
)

// Config controls sampling behaviour. Zero values take the defaults.
type Config struct {
	// Address defaults to 0x76 if zero.
	Address uint16
	// TemperatureOversampling and PressureOversampling are measurement
	// counts from {0, 1, 2, 4, 8, 16}; 0 skips the measurement.
	// Defaults: 2 and 16 (the datasheet's indoor-navigation profile).
	TemperatureOversampling int
	PressureOversampling    int
	// StandbyMS is the normal-mode standby period in milliseconds, one of
	// {0.5, 62.5, 125, 250, 500, 1000, 2000, 4000}. Default 500.
	StandbyMS float64
	// FilterCoefficient is the IIR time constant from {0, 2, 4, 8, 16}.
	// Default 16.
	FilterCoefficient int
	// PollInterval and MeasureTimeout bound the busy-wait in Measure.
	// Defaults 5 ms and 250 ms.
	PollInterval   time.Duration
	MeasureTimeout time.Duration
}

// DefaultConfig returns the indoor-navigation sampling profile.
func DefaultConfig() Config {
	return Config{
		Address:                 Address,
		TemperatureOversampling: 2,
		PressureOversampling:    16,
		StandbyMS:               500,
		FilterCoefficient:       16,
	}
}

func (c *Config) setDefaults() {
	if c.Address == 0 {
		c.Address = Address
	}
	if c.StandbyMS == 0 {
		c.StandbyMS = 500
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Millisecond
	}
	if c.MeasureTimeout <= 0 {
		c.MeasureTimeout = 250 * time.Millisecond
	}
}

// Device is a BMP280 instance on one bus address.
type Device struct {
	dev   *regmap.Device
	cfg   Config
	calib *calibration
}

// New binds the driver, verifies the chip identity, applies the sampling
// configuration and leaves the part in sleep mode. A wrong chip ID or a
// failed identification read returns a ConfigurationError.
func New(tr regmap.Transport, cfg Config) (*Device, error) {
	cfg.setDefaults()
	d := &Device{dev: regmap.Bind(schema, tr, cfg.Address), cfg: cfg}

	id, err := d.ChipID()
	if err != nil {
		return nil, &regmap.ConfigurationError{Part: "bmp280", Reason: "identification read failed", Err: err}
	}
	if id != chipID {
		return nil, &regmap.ConfigurationError{Part: "bmp280", Reason: "unexpected chip id"}
	}
	if err := d.SetSampling(cfg.TemperatureOversampling, cfg.PressureOversampling, ModeSleep); err != nil {
		return nil, &regmap.ConfigurationError{Part: "bmp280", Reason: "sampling setup failed", Err: err}
	}
	if err := d.SetConfig(cfg.StandbyMS, cfg.FilterCoefficient, false); err != nil {
		return nil, &regmap.ConfigurationError{Part: "bmp280", Reason: "filter setup failed", Err: err}
	}
	return d, nil
}

// ChipID reads the identity register.
func (d *Device) ChipID() (uint8, error) {
	vals, err := d.dev.Reg("chip_id").Read()
	if err != nil {
		return 0, err
	}
	id, _ := vals.Int("chip_id")
	return uint8(id), nil
}

// Reset triggers a power-on reset. Give the part ~2 ms before using it;
// the sampling configuration must be re-applied afterwards.
func (d *Device) Reset() error {
	if err := d.dev.Reg("reset").Write(regmap.Values{"reset": resetMagic}); err != nil {
		return err
	}
	d.dev.Reg("ctrl_meas").Invalidate()
	d.dev.Reg("config").Invalidate()
	return nil
}

// Busy reports whether a conversion is in progress.
func (d *Device) Busy() (bool, error) {
	vals, err := d.dev.Reg("status").Read("measuring")
	if err != nil {
		return false, err
	}
	b, _ := vals.Bool("measuring")
	return b, nil
}

// SetSampling writes oversampling counts and the operating mode in one
// register update.
func (d *Device) SetSampling(tempOvs, pressOvs int, mode string) error {
	return d.dev.Reg("ctrl_meas").Write(regmap.Values{
		"osrs_t": tempOvs,
		"osrs_p": pressOvs,
		"mode":   mode,
	})
}

// SetMode changes the operating mode, preserving the oversampling bits.
func (d *Device) SetMode(mode string) error {
	return d.dev.Reg("ctrl_meas").Write(regmap.Values{"mode": mode})
}

// SetConfig writes the standby period, IIR filter constant and SPI wire
// mode. The part ignores config writes during a normal-mode conversion,
// so call this in sleep mode.
func (d *Device) SetConfig(standbyMS float64, filter int, spi3w bool) error {
	return d.dev.Reg("config").Write(regmap.Values{
		"t_sb":     standbyMS,
		"filter":   filter,
		"spi3w_en": spi3w,
	})
}

// ReadRaw reads both ADC outputs from the burst window. A skipped
// measurement reads 0x80000.
func (d *Device) ReadRaw() (adcT, adcP int32, err error) {
	vals, err := d.dev.Reg("data").Read()
	if err != nil {
		return 0, 0, err
	}
	t, _ := vals.Int("temperature")
	p, _ := vals.Int("pressure")
	return int32(t), int32(p), nil
}

// Measurement is one compensated reading.
type Measurement struct {
	RawTemperature int32
	RawPressure    int32
	// CentiCelsius is the compensated temperature in hundredths of a
	// degree (2508 = 25.08 degC), straight from the integer algorithm.
	CentiCelsius int32
	// Pascal is the compensated pressure in Pa.
	Pascal float64
}

// Celsius returns the compensated temperature in degrees.
func (m Measurement) Celsius() float64 { return float64(m.CentiCelsius) / 100 }

// Read compensates the current ADC outputs. In normal mode this is the
// whole read path; in forced mode use Measure, which triggers first.
func (d *Device) Read() (Measurement, error) {
	cal, err := d.calibrationData()
	if err != nil {
		return Measurement{}, err
	}
	adcT, adcP, err := d.ReadRaw()
	if err != nil {
		return Measurement{}, err
	}
	centi, tFine := cal.temperature(adcT)
	return Measurement{
		RawTemperature: adcT,
		RawPressure:    adcP,
		CentiCelsius:   centi,
		Pascal:         float64(cal.pressure(adcP, tFine)) / 256,
	}, nil
}

// Measure runs one forced-mode conversion: trigger, bounded polling
// until the part reports idle, then a compensated read.
func (d *Device) Measure() (Measurement, error) {
	if err := d.SetMode(ModeForced); err != nil {
		return Measurement{}, err
	}
	deadline := time.Now().Add(d.cfg.MeasureTimeout)
	for {
		busy, err := d.Busy()
		if err != nil {
			return Measurement{}, err
		}
		if !busy {
			return d.Read()
		}
		if time.Now().After(deadline) {
			return Measurement{}, ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

// calibrationData reads the factory trimming block on first use.
func (d *Device) calibrationData() (*calibration, error) {
	if d.calib != nil {
		return d.calib, nil
	}
	vals, err := d.dev.Reg("calibration").Read()
	if err != nil {
		return nil, err
	}
	get := func(name string) int64 { v, _ := vals.Int(name); return v }
	d.calib = &calibration{
		t1: uint16(get("dig_t1")),
		t2: int16(get("dig_t2")),
		t3: int16(get("dig_t3")),
		p1: uint16(get("dig_p1")),
		p2: int16(get("dig_p2")),
		p3: int16(get("dig_p3")),
		p4: int16(get("dig_p4")),
		p5: int16(get("dig_p5")),
		p6: int16(get("dig_p6")),
		p7: int16(get("dig_p7")),
		p8: int16(get("dig_p8")),
		p9: int16(get("dig_p9")),
	}
	return d.calib, nil
}
