// Package ccs811 provides a driver for the ScioSense CCS811 indoor air
// quality sensor (equivalent CO2 and total VOC) over I2C.
//
// The part boots into a bootloader; New verifies the hardware identity,
// checks that a valid application image is present and starts it, so a
// returned Device is always in application mode. Readings are produced
// on the configured drive-mode cadence; ReadAlgorithm returns ErrNoData
// between samples.
package ccs811

import (
	"errors"
	"time"

	"airquality-go/regmap"
	"airquality-go/x/mathx"
)

// I2C addresses (ADDR strap).
const (
	Address    = 0x5A
	AddressAlt = 0x5B
)

const (
	hwID        = 0x81
	regAppStart = 0xF4
	regReset    = 0xFF
)

var resetMagic = []byte{0x11, 0xE5, 0x72, 0x8A}

// ErrNoData is returned by ReadAlgorithm when no fresh sample is ready.
var ErrNoData = errors.New("ccs811: no data ready")

// Drive modes (measurement cadence).
const (
	ModeIdle  = "idle"
	Mode1s    = "1s"
	Mode10s   = "10s"
	Mode60s   = "60s"
	Mode250ms = "250ms"
)

// Config controls construction behaviour.
type Config struct {
	// Address defaults to 0x5A if zero.
	Address uint16
	// DriveMode defaults to Mode1s.
	DriveMode string
	// AppStartDelay is the settle time after starting the application
	// image. Default 100 ms.
	AppStartDelay time.Duration
}

func (c *Config) setDefaults() {
	if c.Address == 0 {
		c.Address = Address
	}
	if c.DriveMode == "" {
		c.DriveMode = Mode1s
	}
	if c.AppStartDelay <= 0 {
		c.AppStartDelay = 100 * time.Millisecond
	}
}

// Device is a CCS811 instance in application mode.
type Device struct {
	dev *regmap.Device
}

// New binds the driver and runs the boot sequence: identity check,
// application image check, app start, drive-mode setup. Any failure
// returns a ConfigurationError; the Device is unusable in that case.
func New(tr regmap.Transport, cfg Config) (*Device, error) {
	cfg.setDefaults()
	d := &Device{dev: regmap.Bind(schema, tr, cfg.Address)}

	vals, err := d.dev.Reg("hw_id").Read()
	if err != nil {
		return nil, &regmap.ConfigurationError{Part: "ccs811", Reason: "identification read failed", Err: err}
	}
	if id, _ := vals.Int("hw_id"); id != hwID {
		return nil, &regmap.ConfigurationError{Part: "ccs811", Reason: "unexpected hardware id"}
	}

	st, err := d.Status()
	if err != nil {
		return nil, &regmap.ConfigurationError{Part: "ccs811", Reason: "status read failed", Err: err}
	}
	if !st.AppValid {
		return nil, &regmap.ConfigurationError{Part: "ccs811", Reason: "no valid application image"}
	}
	if !st.AppOn {
		// Bare command write: the register carries no data bytes.
		if err := tr.WriteReg(cfg.Address, regAppStart, nil); err != nil {
			return nil, &regmap.ConfigurationError{Part: "ccs811", Reason: "app start failed", Err: err}
		}
		time.Sleep(cfg.AppStartDelay)
		st, err = d.Status()
		if err != nil {
			return nil, &regmap.ConfigurationError{Part: "ccs811", Reason: "status read failed", Err: err}
		}
		if !st.AppOn {
			return nil, &regmap.ConfigurationError{Part: "ccs811", Reason: "application did not start"}
		}
	}

	if err := d.SetDriveMode(cfg.DriveMode); err != nil {
		return nil, &regmap.ConfigurationError{Part: "ccs811", Reason: "drive mode setup failed", Err: err}
	}
	return d, nil
}

// Status is the decoded status register.
type Status struct {
	AppOn     bool // firmware is in application mode
	AppValid  bool // a valid application image is present
	DataReady bool // a fresh algorithm sample is available
	Error     bool // error_id holds a pending error
}

// Status reads and decodes the status register.
func (d *Device) Status() (Status, error) {
	vals, err := d.dev.Reg("status").Read()
	if err != nil {
		return Status{}, err
	}
	var st Status
	st.AppOn, _ = vals.Bool("fw_mode")
	st.AppValid, _ = vals.Bool("app_valid")
	st.DataReady, _ = vals.Bool("data_ready")
	st.Error, _ = vals.Bool("error")
	return st, nil
}

// SetDriveMode sets the measurement cadence, preserving the interrupt
// configuration bits.
func (d *Device) SetDriveMode(mode string) error {
	return d.dev.Reg("meas_mode").Write(regmap.Values{"drive_mode": mode})
}

// Reading is one algorithm sample.
type Reading struct {
	ECO2  uint16 // equivalent CO2, ppm
	ETVOC uint16 // total VOC, ppb
}

// ReadAlgorithm fetches the current algorithm sample. ErrNoData when the
// part has not produced a new sample since the last read.
func (d *Device) ReadAlgorithm() (Reading, error) {
	st, err := d.Status()
	if err != nil {
		return Reading{}, err
	}
	if !st.DataReady {
		return Reading{}, ErrNoData
	}
	vals, err := d.dev.Reg("alg_result").Read()
	if err != nil {
		return Reading{}, err
	}
	eco2, _ := vals.Int("eco2")
	etvoc, _ := vals.Int("etvoc")
	return Reading{ECO2: uint16(eco2), ETVOC: uint16(etvoc)}, nil
}

// SetEnvironment writes ambient temperature and relative humidity for
// the part's compensation algorithm. Inputs are clamped to the register
// domain rather than rejected: environment data is advisory.
func (d *Device) SetEnvironment(tempC, humidity float64) error {
	return d.dev.Reg("env_data").Write(regmap.Values{
		"humidity":    mathx.Clamp(humidity, 0, 100),
		"temperature": mathx.Clamp(tempC, -25, 100),
	})
}

// Baseline reads the opaque baseline correction word for persistence
// across power cycles.
func (d *Device) Baseline() (uint16, error) {
	vals, err := d.dev.Reg("baseline").Read()
	if err != nil {
		return 0, err
	}
	b, _ := vals.Int("baseline")
	return uint16(b), nil
}

// SetBaseline restores a previously saved baseline word.
func (d *Device) SetBaseline(b uint16) error {
	return d.dev.Reg("baseline").Write(regmap.Values{"baseline": b})
}

// ErrorFlags is the decoded error_id register.
type ErrorFlags uint8

const (
	ErrWriteRegInvalid ErrorFlags = 1 << iota
	ErrReadRegInvalid
	ErrMeasModeInvalid
	ErrMaxResistance
	ErrHeaterFault
	ErrHeaterSupply
)

func (f ErrorFlags) Has(flag ErrorFlags) bool { return f&flag != 0 }

// ErrorID reads and clears the pending error flags.
func (d *Device) ErrorID() (ErrorFlags, error) {
	vals, err := d.dev.Reg("error_id").Read()
	if err != nil {
		return 0, err
	}
	id, _ := vals.Int("error_id")
	return ErrorFlags(id), nil
}

// Reset issues a software reset back into the bootloader. The device
// must be re-created with New afterwards.
func (d *Device) Reset() error {
	return d.dev.Transport().WriteReg(d.dev.Addr(), regReset, resetMagic)
}
