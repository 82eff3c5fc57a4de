// Package hdc1080 provides a driver for the TI HDC1080 temperature and
// humidity sensor over I2C.
//
// The part has no status register: a measurement is started by writing
// the register pointer at the data window, and the result is collected
// with a plain read after the conversion time has elapsed. Reading too
// early NACKs. The driver therefore needs a transport that can separate
// the pointer write from the data read:
//
//	d.Trigger()                      // pointer write, fast
//	time.Sleep(d.ConversionTime())
//	m, err := d.Collect()            // plain read, no re-addressing
//
// Read performs the whole cycle with the configured delay.
package hdc1080

import (
	"time"

	"airquality-go/regmap"
)

// I2C address (fixed).
const Address = 0x40

const (
	manufacturerID = 0x5449 // "TI"
	deviceID       = 0x1050
)

// Transport is the bus access the driver needs: register transactions
// for configuration and identity, plus split pointer-write/plain-read
// for the measurement window.
type Transport interface {
	regmap.Transport
	regmap.PlainTransport
}

// Config controls acquisition behaviour. Zero values take the defaults.
type Config struct {
	// Address defaults to 0x40 if zero.
	Address uint16
	// Heater enables the on-die heater during measurements (condensation
	// recovery). Default off.
	Heater bool
	// TemperatureResolution is 14 or 11 bits. Default 14.
	TemperatureResolution int
	// HumidityResolution is 14, 11 or 8 bits. Default 14.
	HumidityResolution int
	// ConversionDelay overrides the computed conversion time in Read.
	// Zero means computed from the resolutions.
	ConversionDelay time.Duration
}

func (c *Config) setDefaults() {
	if c.Address == 0 {
		c.Address = Address
	}
	if c.TemperatureResolution == 0 {
		c.TemperatureResolution = 14
	}
	if c.HumidityResolution == 0 {
		c.HumidityResolution = 14
	}
}

// Device is an HDC1080 instance configured for sequenced acquisition
// (temperature then humidity in one conversion).
type Device struct {
	dev *regmap.Device
	tr  Transport
	cfg Config
}

// New binds the driver, verifies the manufacturer and device identity
// and applies the acquisition configuration.
func New(tr Transport, cfg Config) (*Device, error) {
	cfg.setDefaults()
	d := &Device{dev: regmap.Bind(schema, tr, cfg.Address), tr: tr, cfg: cfg}

	for _, id := range []struct {
		reg  string
		want int64
	}{
		{"manufacturer_id", manufacturerID},
		{"device_id", deviceID},
	} {
		vals, err := d.dev.Reg(id.reg).Read()
		if err != nil {
			return nil, &regmap.ConfigurationError{Part: "hdc1080", Reason: "identification read failed", Err: err}
		}
		if got, _ := vals.Int(id.reg); got != id.want {
			return nil, &regmap.ConfigurationError{Part: "hdc1080", Reason: "unexpected " + id.reg}
		}
	}

	err := d.dev.Reg("config").Write(regmap.Values{
		"mode": true, // sequenced acquisition
		"heat": cfg.Heater,
		"tres": cfg.TemperatureResolution,
		"hres": cfg.HumidityResolution,
	})
	if err != nil {
		return nil, &regmap.ConfigurationError{Part: "hdc1080", Reason: "acquisition setup failed", Err: err}
	}
	return d, nil
}

// Trigger starts a sequenced conversion by pointing at the measurement
// window. No data moves until Collect.
func (d *Device) Trigger() error {
	if err := d.tr.WritePointer(d.dev.Addr(), 0x00); err != nil {
		return &regmap.TransportError{Op: "write", Addr: d.dev.Addr(), Reg: 0x00, Err: err}
	}
	return nil
}

// Conversion times per resolution (datasheet 8.4), rounded up.
var (
	tempConvTime = map[int]time.Duration{14: 6350 * time.Microsecond, 11: 3650 * time.Microsecond}
	humConvTime  = map[int]time.Duration{14: 6500 * time.Microsecond, 11: 3850 * time.Microsecond, 8: 2500 * time.Microsecond}
)

// ConversionTime returns how long a sequenced conversion takes at the
// configured resolutions, plus a small guard margin.
func (d *Device) ConversionTime() time.Duration {
	if d.cfg.ConversionDelay > 0 {
		return d.cfg.ConversionDelay
	}
	return tempConvTime[d.cfg.TemperatureResolution] + humConvTime[d.cfg.HumidityResolution] + time.Millisecond
}

// Measurement is one converted reading.
type Measurement struct {
	Celsius  float64 // degC
	Humidity float64 // %RH
}

// Collect reads the finished conversion. Call after Trigger once the
// conversion time has elapsed; an early collect surfaces the bus NACK
// as a TransportError.
func (d *Device) Collect() (Measurement, error) {
	raw := make([]byte, 4)
	if err := d.tr.ReadPlain(d.dev.Addr(), raw); err != nil {
		return Measurement{}, &regmap.TransportError{Op: "read", Addr: d.dev.Addr(), Reg: 0x00, Err: err}
	}
	vals, err := schema.Register("measurement").Decode(raw)
	if err != nil {
		return Measurement{}, err
	}
	m := Measurement{}
	m.Celsius, _ = vals.Float("temperature")
	m.Humidity, _ = vals.Float("humidity")
	return m, nil
}

// Read performs a full trigger/wait/collect cycle.
func (d *Device) Read() (Measurement, error) {
	if err := d.Trigger(); err != nil {
		return Measurement{}, err
	}
	time.Sleep(d.ConversionTime())
	return d.Collect()
}

// Battery reports whether the supply has dropped below 2.8 V.
func (d *Device) Battery() (low bool, err error) {
	vals, err := d.dev.Reg("config").Read("btst")
	if err != nil {
		return false, err
	}
	low, _ = vals.Bool("btst")
	return low, nil
}

// SerialNumber returns the 48-bit factory serial as one integer.
func (d *Device) SerialNumber() (uint64, error) {
	var sn uint64
	for _, reg := range []string{"serial_first", "serial_mid", "serial_last"} {
		vals, err := d.dev.Reg(reg).Read()
		if err != nil {
			return 0, err
		}
		w, _ := vals.Int(reg)
		sn = sn<<16 | uint64(uint16(w))
	}
	return sn, nil
}

// SoftReset triggers the self-clearing reset bit and drops the cached
// configuration. Re-apply the configuration via New afterwards; the part
// needs ~15 ms to come back.
func (d *Device) SoftReset() error {
	if err := d.dev.Reg("config").Write(regmap.Values{"rst": true}); err != nil {
		return err
	}
	d.dev.Reg("config").Invalidate()
	return nil
}
