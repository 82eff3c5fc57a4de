// Package s8 provides a driver for the SenseAir S8 NDIR CO2 sensor over
// its Modbus RTU serial link (9600 8N1).
//
// The driver speaks to the "any sensor" address 0xFE, so exactly one
// sensor may sit on the line. Reads are simple register polls;
// Recalibrate runs the background-calibration command sequence and
// verifies the acknowledge flag.
package s8

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"airquality-go/errcode"
	"airquality-go/x/mathx"
)

// anyAddress reaches whatever single sensor is on the line.
const anyAddress = 0xFE

// Modbus function codes.
const (
	fnReadHolding  = 0x03
	fnReadInput    = 0x04
	fnWriteHolding = 0x06
)

// Register addresses (zero-based, as they appear on the wire).
const (
	irErrorCode = 0x00 // meter status flags
	irCO2       = 0x03 // filtered CO2, ppm
	irTypeID    = 0x19 // two registers
	irFirmware  = 0x1C
	irSerial    = 0x1D // two registers

	hrAck       = 0x00 // acknowledgement flags
	hrCommand   = 0x01 // special command register
	hrABCPeriod = 0x1F // ABC period in hours, 0 disables
)

const (
	cmdBackgroundCal = 0x7C06 // start CO2 background calibration
	ackBackgroundCal = 1 << 5 // CI6: background calibration done
)

// Errors returned by the driver.
var (
	ErrTimeout = errors.New("s8: read timeout")
)

// CRCError reports a response whose CRC trailer does not match.
type CRCError struct {
	Want, Got uint16
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("s8: response crc %#04x, frame says %#04x", e.Got, e.Want)
}
func (e *CRCError) Code() errcode.Code { return errcode.Checksum }

// ModbusError is an exception response from the sensor.
type ModbusError struct {
	Function  byte
	Exception byte
}

func (e *ModbusError) Error() string {
	return fmt.Sprintf("s8: modbus exception %#02x on function %#02x", e.Exception, e.Function)
}
func (e *ModbusError) Code() errcode.Code { return errcode.Transport }

// CalibrationError reports a background calibration that was not
// acknowledged within the wait window.
type CalibrationError struct {
	Ack uint16
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("s8: background calibration not acknowledged (ack %#04x)", e.Ack)
}
func (e *CalibrationError) Code() errcode.Code { return errcode.Calibration }

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

// Config controls timing behaviour. Zero values take the defaults.
type Config struct {
	// CalibrationWait is how long Recalibrate waits before checking the
	// acknowledge flag. Default 6 s (one measurement period plus margin).
	CalibrationWait time.Duration
	// ZeroReadLimit bounds consecutive empty reads (serial timeouts)
	// before giving up. Default 10.
	ZeroReadLimit int
}

func (c *Config) setDefaults() {
	if c.CalibrationWait <= 0 {
		c.CalibrationWait = 6 * time.Second
	}
	if c.ZeroReadLimit <= 0 {
		c.ZeroReadLimit = 10
	}
}

// Device is an S8 on one serial line.
type Device struct {
	port Port
	cfg  Config
}

// New binds the driver. No traffic happens until the first operation.
func New(port Port, cfg Config) *Device {
	cfg.setDefaults()
	return &Device{port: port, cfg: cfg}
}

// CO2 reads the filtered CO2 concentration in ppm.
func (d *Device) CO2() (int, error) {
	regs, err := d.readRegisters(fnReadInput, irCO2, 1)
	if err != nil {
		return 0, err
	}
	return int(int16(regs[0])), nil
}

// ErrorCode reads the meter status flags (0 means healthy).
func (d *Device) ErrorCode() (uint16, error) {
	regs, err := d.readRegisters(fnReadInput, irErrorCode, 1)
	if err != nil {
		return 0, err
	}
	return regs[0], nil
}

// TypeID reads the 32-bit sensor type identifier.
func (d *Device) TypeID() (uint32, error) {
	regs, err := d.readRegisters(fnReadInput, irTypeID, 2)
	if err != nil {
		return 0, err
	}
	return uint32(regs[0])<<16 | uint32(regs[1]), nil
}

// SerialNumber reads the 32-bit factory serial.
func (d *Device) SerialNumber() (uint32, error) {
	regs, err := d.readRegisters(fnReadInput, irSerial, 2)
	if err != nil {
		return 0, err
	}
	return uint32(regs[0])<<16 | uint32(regs[1]), nil
}

// FirmwareVersion reads the firmware revision as "major.minor".
func (d *Device) FirmwareVersion() (string, error) {
	regs, err := d.readRegisters(fnReadInput, irFirmware, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d", regs[0]>>8, regs[0]&0xFF), nil
}

// ABCPeriod reads the automatic baseline correction period in hours.
// 0 means ABC is disabled.
func (d *Device) ABCPeriod() (int, error) {
	regs, err := d.readRegisters(fnReadHolding, hrABCPeriod, 1)
	if err != nil {
		return 0, err
	}
	return int(regs[0]), nil
}

// SetABCPeriod sets the ABC period in hours (factory default 180).
func (d *Device) SetABCPeriod(hours int) error {
	if !mathx.Between(hours, 0, 0xFFFF) {
		return fmt.Errorf("s8: abc period %d out of range", hours)
	}
	return d.writeHolding(hrABCPeriod, uint16(hours))
}

// DisableABC switches automatic baseline correction off.
func (d *Device) DisableABC() error {
	return d.writeHolding(hrABCPeriod, 0)
}

// Recalibrate runs a background calibration against fresh air (400 ppm
// reference). The sensor must have seen stable fresh air for several
// minutes beforehand. The acknowledge flag is checked after the
// configured wait; a missing acknowledge returns a CalibrationError.
func (d *Device) Recalibrate() error {
	if err := d.writeHolding(hrAck, 0); err != nil {
		return err
	}
	if err := d.writeHolding(hrCommand, cmdBackgroundCal); err != nil {
		return err
	}
	time.Sleep(d.cfg.CalibrationWait)
	regs, err := d.readRegisters(fnReadHolding, hrAck, 1)
	if err != nil {
		return err
	}
	if regs[0]&ackBackgroundCal == 0 {
		return &CalibrationError{Ack: regs[0]}
	}
	return nil
}

// readRegisters issues a function 3/4 poll and returns the register
// words from the response.
func (d *Device) readRegisters(fn byte, reg uint16, count int) ([]uint16, error) {
	if err := d.transact(fn, reg, uint16(count)); err != nil {
		return nil, err
	}
	payload, err := d.response(fn, 2*count)
	if err != nil {
		return nil, err
	}
	regs := make([]uint16, count)
	for i := range regs {
		regs[i] = uint16(payload[2*i])<<8 | uint16(payload[2*i+1])
	}
	return regs, nil
}

// writeHolding issues a function 6 write and validates the echo.
func (d *Device) writeHolding(reg, val uint16) error {
	if err := d.transact(fnWriteHolding, reg, val); err != nil {
		return err
	}
	payload, err := d.response(fnWriteHolding, 4)
	if err != nil {
		return err
	}
	echoReg := uint16(payload[0])<<8 | uint16(payload[1])
	if echoReg != reg {
		return fmt.Errorf("s8: write echo for register %#04x, wrote %#04x", echoReg, reg)
	}
	return nil
}

// transact flushes stale input and sends one 8-byte request frame.
func (d *Device) transact(fn byte, reg, arg uint16) error {
	if err := d.port.ResetInputBuffer(); err != nil {
		return err
	}
	msg := [8]byte{anyAddress, fn, byte(reg >> 8), byte(reg), byte(arg >> 8), byte(arg)}
	crc := crc16(msg[:6])
	msg[6], msg[7] = byte(crc), byte(crc>>8) // CRC is little-endian on the wire
	_, err := d.port.Write(msg[:])
	return err
}

// response reads and validates one response frame, returning its data
// payload. dataLen is the expected payload size; for function 3/4 the
// frame carries a byte-count prefix, for function 6 it does not.
func (d *Device) response(fn byte, dataLen int) ([]byte, error) {
	head := make([]byte, 2)
	if err := d.readFull(head); err != nil {
		return nil, err
	}
	if head[1]&0x80 != 0 { // exception frame: code + CRC follow
		rest := make([]byte, 3)
		if err := d.readFull(rest); err != nil {
			return nil, err
		}
		if err := checkCRC(append(head, rest...)); err != nil {
			return nil, err
		}
		return nil, &ModbusError{Function: fn, Exception: rest[0]}
	}

	switch fn {
	case fnReadHolding, fnReadInput:
		rest := make([]byte, 1+dataLen+2)
		if err := d.readFull(rest); err != nil {
			return nil, err
		}
		if int(rest[0]) != dataLen {
			return nil, fmt.Errorf("s8: response carries %d bytes, want %d", rest[0], dataLen)
		}
		if err := checkCRC(append(head, rest...)); err != nil {
			return nil, err
		}
		return rest[1 : 1+dataLen], nil
	default: // write echo
		rest := make([]byte, dataLen+2)
		if err := d.readFull(rest); err != nil {
			return nil, err
		}
		if err := checkCRC(append(head, rest...)); err != nil {
			return nil, err
		}
		return rest[:dataLen], nil
	}
}

func checkCRC(frame []byte) error {
	n := len(frame)
	want := uint16(frame[n-2]) | uint16(frame[n-1])<<8
	got := crc16(frame[:n-2])
	if want != got {
		return &CRCError{Want: want, Got: got}
	}
	return nil
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
