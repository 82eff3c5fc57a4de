package s8

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// fakeSensor is a scripted Modbus slave behind a serial port: request
// frames written to the port are answered into the read buffer.
type fakeSensor struct {
	input      map[uint16]uint16
	holding    map[uint16]uint16
	tx         [][]byte
	rx         bytes.Buffer
	corruptCRC bool
	exception  byte // respond with this exception code when non-zero
	ackOnCal   bool // acknowledge a background calibration command
}

var _ Port = (*fakeSensor)(nil)

func newFakeSensor() *fakeSensor {
	return &fakeSensor{
		input:    make(map[uint16]uint16),
		holding:  make(map[uint16]uint16),
		ackOnCal: true,
	}
}

func (f *fakeSensor) Read(buf []byte) (int, error) {
	if f.rx.Len() == 0 {
		return 0, errors.New("fake: rx underrun")
	}
	return f.rx.Read(buf)
}

func (f *fakeSensor) Write(p []byte) (int, error) {
	f.tx = append(f.tx, append([]byte(nil), p...))
	fn := p[1]
	reg := uint16(p[2])<<8 | uint16(p[3])
	arg := uint16(p[4])<<8 | uint16(p[5])

	var resp []byte
	switch {
	case f.exception != 0:
		resp = []byte{anyAddress, fn | 0x80, f.exception}
	case fn == fnReadInput || fn == fnReadHolding:
		bank := f.input
		if fn == fnReadHolding {
			bank = f.holding
		}
		resp = []byte{anyAddress, fn, byte(2 * arg)}
		for i := uint16(0); i < arg; i++ {
			v := bank[reg+i]
			resp = append(resp, byte(v>>8), byte(v))
		}
	case fn == fnWriteHolding:
		f.holding[reg] = arg
		if reg == hrCommand && arg == cmdBackgroundCal && f.ackOnCal {
			f.holding[hrAck] |= ackBackgroundCal
		}
		resp = append([]byte(nil), p[:6]...)
	}
	crc := crc16(resp)
	resp = append(resp, byte(crc), byte(crc>>8))
	if f.corruptCRC {
		resp[len(resp)-1] ^= 0xFF
	}
	f.rx.Write(resp)
	return len(p), nil
}

func (f *fakeSensor) ResetInputBuffer() error {
	f.rx.Reset()
	return nil
}

func TestRequestFrames(t *testing.T) {
	// Fixed command literals from the sensor documentation: the CRC
	// generator must reproduce them byte for byte.
	fs := newFakeSensor()
	d := New(fs, Config{CalibrationWait: time.Millisecond})

	if _, err := d.CO2(); err != nil {
		t.Fatalf("CO2: %v", err)
	}
	if _, err := d.ABCPeriod(); err != nil {
		t.Fatalf("ABCPeriod: %v", err)
	}
	if err := d.DisableABC(); err != nil {
		t.Fatalf("DisableABC: %v", err)
	}
	if err := d.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}

	want := [][]byte{
		{0xFE, 0x04, 0x00, 0x03, 0x00, 0x01, 0xD5, 0xC5}, // read CO2
		{0xFE, 0x03, 0x00, 0x1F, 0x00, 0x01, 0xA1, 0xC3}, // read ABC period
		{0xFE, 0x06, 0x00, 0x1F, 0x00, 0x00, 0xAC, 0x03}, // ABC off
		{0xFE, 0x06, 0x00, 0x00, 0x00, 0x00, 0x9D, 0xC5}, // clear ack
		{0xFE, 0x06, 0x00, 0x01, 0x7C, 0x06, 0x6C, 0xC7}, // background cal
	}
	if len(fs.tx) != len(want)+1 { // +1 for the ack poll at the end
		t.Fatalf("tx = %d frames, want %d", len(fs.tx), len(want)+1)
	}
	for i, w := range want {
		if !bytes.Equal(fs.tx[i], w) {
			t.Fatalf("tx[%d] = % x, want % x", i, fs.tx[i], w)
		}
	}
}

func TestReads(t *testing.T) {
	fs := newFakeSensor()
	fs.input[irCO2] = 600
	fs.input[irErrorCode] = 0
	fs.input[irTypeID] = 0x0001
	fs.input[irTypeID+1] = 0x0090
	fs.input[irFirmware] = 0x0108
	fs.input[irSerial] = 0x1234
	fs.input[irSerial+1] = 0x5678
	fs.holding[hrABCPeriod] = 180
	d := New(fs, Config{})

	if ppm, err := d.CO2(); err != nil || ppm != 600 {
		t.Fatalf("CO2 = %d, %v", ppm, err)
	}
	if code, err := d.ErrorCode(); err != nil || code != 0 {
		t.Fatalf("ErrorCode = %d, %v", code, err)
	}
	if id, err := d.TypeID(); err != nil || id != 0x00010090 {
		t.Fatalf("TypeID = %#x, %v", id, err)
	}
	if fw, err := d.FirmwareVersion(); err != nil || fw != "1.8" {
		t.Fatalf("FirmwareVersion = %q, %v", fw, err)
	}
	if sn, err := d.SerialNumber(); err != nil || sn != 0x12345678 {
		t.Fatalf("SerialNumber = %#x, %v", sn, err)
	}
	if h, err := d.ABCPeriod(); err != nil || h != 180 {
		t.Fatalf("ABCPeriod = %d, %v", h, err)
	}
}

func TestSetABCPeriod(t *testing.T) {
	fs := newFakeSensor()
	d := New(fs, Config{})
	if err := d.SetABCPeriod(180); err != nil {
		t.Fatalf("SetABCPeriod: %v", err)
	}
	if fs.holding[hrABCPeriod] != 180 {
		t.Fatalf("holding[abc] = %d", fs.holding[hrABCPeriod])
	}
	if err := d.SetABCPeriod(0x10000); err == nil {
		t.Fatal("expected range error")
	}
}

func TestCRCRejection(t *testing.T) {
	fs := newFakeSensor()
	fs.input[irCO2] = 600
	fs.corruptCRC = true
	d := New(fs, Config{})
	_, err := d.CO2()
	var ce *CRCError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CRCError", err)
	}
}

func TestModbusException(t *testing.T) {
	fs := newFakeSensor()
	fs.exception = 0x02 // illegal data address
	d := New(fs, Config{})
	_, err := d.CO2()
	var me *ModbusError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want ModbusError", err)
	}
	if me.Exception != 0x02 || me.Function != fnReadInput {
		t.Fatalf("exception = %+v", me)
	}
}

func TestCorruptedExceptionFrame(t *testing.T) {
	// A line-noise frame that happens to carry the exception bit must
	// surface as a CRC failure, not as a device exception.
	fs := newFakeSensor()
	fs.exception = 0x02
	fs.corruptCRC = true
	d := New(fs, Config{})
	_, err := d.CO2()
	var ce *CRCError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CRCError", err)
	}
}

func TestRecalibrateNotAcknowledged(t *testing.T) {
	fs := newFakeSensor()
	fs.ackOnCal = false
	d := New(fs, Config{CalibrationWait: time.Millisecond})
	err := d.Recalibrate()
	var cal *CalibrationError
	if !errors.As(err, &cal) {
		t.Fatalf("err = %v, want CalibrationError", err)
	}
}
