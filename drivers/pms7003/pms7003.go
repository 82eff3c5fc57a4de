// Package pms7003 provides a driver for the Plantower PMS7003
// particulate matter sensor over its 9600 8N1 serial link.
//
// The sensor pushes 32-byte frames continuously in active mode; in
// passive mode it answers only when polled. The driver defaults to
// passive operation:
//
//	port, err := pms7003.Open("/dev/ttyS0")
//	d, err := pms7003.New(port, pms7003.Config{})
//	f, err := d.Read()   // poll one frame
//
// After Wake the fan needs ~30 s before readings are trustworthy.
package pms7003

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"airquality-go/errcode"
)

// Frame geometry.
const (
	sync0    = 0x42
	sync1    = 0x4D
	frameLen = 32 // including the two sync bytes
	dataLen  = 28 // value of the frame-length field
)

// Command bytes.
const (
	cmdRequestRead = 0xE2
	cmdChangeMode  = 0xE1
	cmdSleepWake   = 0xE4
)

// Errors returned by the driver.
var (
	ErrActiveMode  = errors.New("pms7003: poll while in active mode")
	ErrPassiveMode = errors.New("pms7003: listen while in passive mode")
	ErrSleeping    = errors.New("pms7003: sensor is sleeping")
	ErrTimeout     = errors.New("pms7003: read timeout")
	ErrNoSync      = errors.New("pms7003: frame sync not found")
)

// ChecksumError reports a frame whose byte sum does not match its
// trailer. The frame is discarded; the caller polls again.
type ChecksumError struct {
	Want, Got uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("pms7003: checksum %#04x, frame says %#04x", e.Got, e.Want)
}
func (e *ChecksumError) Code() errcode.Code { return errcode.Checksum }

// Port is the serial access the driver needs. serial.Port satisfies it.
type Port interface {
	io.ReadWriter
	ResetInputBuffer() error
}

// Open opens a serial port with the sensor's fixed 9600 8N1 framing and
// a one-second read timeout.
func Open(path string) (serial.Port, error) {
	p, err := serial.Open(path, &serial.Mode{BaudRate: 9600})
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(time.Second); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// Config controls wake-up behaviour.
type Config struct {
	// WakeDelay is the pause after the wake command before the sensor
	// accepts mode changes. Default 100 ms. The fan still needs ~30 s
	// for stable readings.
	WakeDelay time.Duration
	// ZeroReadLimit bounds consecutive empty reads (serial timeouts)
	// before giving up. Default 10.
	ZeroReadLimit int
}

func (c *Config) setDefaults() {
	if c.WakeDelay <= 0 {
		c.WakeDelay = 100 * time.Millisecond
	}
	if c.ZeroReadLimit <= 0 {
		c.ZeroReadLimit = 10
	}
}

// Frame is one decoded measurement frame. Concentrations are µg/m³,
// counts are particles per 0.1 L of air.
type Frame struct {
	// Standard-particle (CF=1) concentrations.
	PM1, PM2_5, PM10 uint16
	// Atmospheric-environment concentrations.
	PM1Atm, PM2_5Atm, PM10Atm uint16
	// Particle counts by minimum diameter in µm.
	Count0_3, Count0_5, Count1_0 uint16
	Count2_5, Count5_0, Count10  uint16
	Version, Error               uint8
}

// Device is a PMS7003 on one serial port.
type Device struct {
	port    Port
	cfg     Config
	passive bool
	asleep  bool
	buf     [frameLen]byte
}

// New wakes the sensor and switches it to passive mode.
func New(port Port, cfg Config) (*Device, error) {
	cfg.setDefaults()
	d := &Device{port: port, cfg: cfg}
	if err := d.Wake(); err != nil {
		return nil, err
	}
	if err := d.SetPassive(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) command(cmd byte, data uint16) error {
	msg := [7]byte{sync0, sync1, cmd, byte(data >> 8), byte(data)}
	var sum uint16
	for _, b := range msg[:5] {
		sum += uint16(b)
	}
	msg[5], msg[6] = byte(sum>>8), byte(sum)
	_, err := d.port.Write(msg[:])
	return err
}

// SetPassive switches to polled operation (Read).
func (d *Device) SetPassive() error {
	if err := d.command(cmdChangeMode, 0); err != nil {
		return err
	}
	d.passive = true
	return d.port.ResetInputBuffer()
}

// SetActive switches to continuous push operation (Listen).
func (d *Device) SetActive() error {
	if err := d.command(cmdChangeMode, 1); err != nil {
		return err
	}
	d.passive = false
	return d.port.ResetInputBuffer()
}

// Sleep stops the fan and laser. Readings resume after Wake.
func (d *Device) Sleep() error {
	if err := d.command(cmdSleepWake, 0); err != nil {
		return err
	}
	d.asleep = true
	return nil
}

// Wake restarts the fan and laser and waits the configured settle time.
func (d *Device) Wake() error {
	if err := d.command(cmdSleepWake, 1); err != nil {
		return err
	}
	d.asleep = false
	time.Sleep(d.cfg.WakeDelay)
	return nil
}

// Read polls one frame in passive mode.
func (d *Device) Read() (Frame, error) {
	if d.asleep {
		return Frame{}, ErrSleeping
	}
	if !d.passive {
		return Frame{}, ErrActiveMode
	}
	if err := d.port.ResetInputBuffer(); err != nil {
		return Frame{}, err
	}
	if err := d.command(cmdRequestRead, 0); err != nil {
		return Frame{}, err
	}
	return d.readFrame()
}

// Listen receives the next pushed frame in active mode.
func (d *Device) Listen() (Frame, error) {
	if d.asleep {
		return Frame{}, ErrSleeping
	}
	if d.passive {
		return Frame{}, ErrPassiveMode
	}
	return d.readFrame()
}

// readFrame scans for the sync pair, reads the body and validates the
// length field and byte-sum trailer.
func (d *Device) readFrame() (Frame, error) {
	buf := d.buf[:]
	buf[0] = sync0
	buf[1] = sync1
	if err := d.findSync(); err != nil {
		return Frame{}, err
	}
	if err := d.readFull(buf[2:]); err != nil {
		return Frame{}, err
	}
	if n := be16(buf[2:]); n != dataLen {
		return Frame{}, fmt.Errorf("pms7003: frame length %d, want %d", n, dataLen)
	}
	var sum uint16
	for _, b := range buf[:frameLen-2] {
		sum += uint16(b)
	}
	if want := be16(buf[frameLen-2:]); want != sum {
		return Frame{}, &ChecksumError{Want: want, Got: sum}
	}
	return Frame{
		PM1:      be16(buf[4:]),
		PM2_5:    be16(buf[6:]),
		PM10:     be16(buf[8:]),
		PM1Atm:   be16(buf[10:]),
		PM2_5Atm: be16(buf[12:]),
		PM10Atm:  be16(buf[14:]),
		Count0_3: be16(buf[16:]),
		Count0_5: be16(buf[18:]),
		Count1_0: be16(buf[20:]),
		Count2_5: be16(buf[22:]),
		Count5_0: be16(buf[24:]),
		Count10:  be16(buf[26:]),
		Version:  buf[28],
		Error:    buf[29],
	}, nil
}

// findSync consumes bytes until the 0x42 0x4D pair, within a bounded
// scan budget (stale partial frames can precede the answer).
func (d *Device) findSync() error {
	var b [1]byte
	for budget := 2 * frameLen; budget > 0; budget-- {
		if err := d.readFull(b[:]); err != nil {
			return err
		}
		if b[0] != sync0 {
			continue
		}
		if err := d.readFull(b[:]); err != nil {
			return err
		}
		if b[0] == sync1 {
			return nil
		}
	}
	return ErrNoSync
}

// readFull fills buf, tolerating the zero-byte reads a serial timeout
// produces, up to the configured limit.
func (d *Device) readFull(buf []byte) error {
	zero := 0
	for off := 0; off < len(buf); {
		n, err := d.port.Read(buf[off:])
		if err != nil {
			return err
		}
		if n == 0 {
			zero++
			if zero >= d.cfg.ZeroReadLimit {
				return ErrTimeout
			}
			continue
		}
		zero = 0
		off += n
	}
	return nil
}

func be16(p []byte) uint16 { return uint16(p[0])<<8 | uint16(p[1]) }
