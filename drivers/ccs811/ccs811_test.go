package ccs811

import (
	"bytes"
	"errors"
	"testing"

	"airquality-go/regmap"
)

// fakeTransport is a scripted register file that models the bootloader:
// the bare APP_START command flips the firmware-mode status bit.
type fakeTransport struct {
	regs     map[uint8][]byte
	bare     []uint8
	appStart bool // whether APP_START succeeds
}

var _ regmap.Transport = (*fakeTransport)(nil)

func newFakeTransport(status byte) *fakeTransport {
	return &fakeTransport{
		regs: map[uint8][]byte{
			0x00: {status},
			0x01: {0x00},
			0x20: {0x81},
		},
		appStart: true,
	}
}

func (f *fakeTransport) ReadReg(addr uint16, reg uint8, buf []byte) error {
	copy(buf, f.regs[reg])
	return nil
}

func (f *fakeTransport) WriteReg(addr uint16, reg uint8, p []byte) error {
	if len(p) == 0 {
		f.bare = append(f.bare, reg)
		if reg == 0xF4 && f.appStart {
			f.regs[0x00][0] |= 0x80
		}
		return nil
	}
	f.regs[reg] = append([]byte(nil), p...)
	return nil
}

func TestNewStartsApplication(t *testing.T) {
	tr := newFakeTransport(0x10) // app_valid, bootloader mode
	d, err := New(tr, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(tr.bare) != 1 || tr.bare[0] != 0xF4 {
		t.Fatalf("bare commands = %#x, want one APP_START", tr.bare)
	}
	// drive_mode=1s in bits 6..4.
	if got := tr.regs[0x01][0]; got != 0x10 {
		t.Fatalf("meas_mode = %#x, want 0x10", got)
	}
	st, err := d.Status()
	if err != nil || !st.AppOn {
		t.Fatalf("Status = %+v, %v", st, err)
	}
}

func TestNewSkipsStartWhenRunning(t *testing.T) {
	tr := newFakeTransport(0x90) // fw_mode already set
	if _, err := New(tr, Config{}); err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(tr.bare) != 0 {
		t.Fatalf("bare commands = %#x, want none", tr.bare)
	}
}

func TestNewNoValidApplication(t *testing.T) {
	tr := newFakeTransport(0x00)
	_, err := New(tr, Config{})
	var ce *regmap.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestNewAppStartFailure(t *testing.T) {
	tr := newFakeTransport(0x10)
	tr.appStart = false
	_, err := New(tr, Config{AppStartDelay: 1})
	var ce *regmap.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
	if ce.Part != "ccs811" {
		t.Fatalf("ConfigurationError.Part = %q", ce.Part)
	}
}

func TestNewWrongHardwareID(t *testing.T) {
	tr := newFakeTransport(0x10)
	tr.regs[0x20] = []byte{0x20}
	var ce *regmap.ConfigurationError
	if _, err := New(tr, Config{}); !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestReadAlgorithm(t *testing.T) {
	tr := newFakeTransport(0x90)
	d, err := New(tr, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := d.ReadAlgorithm(); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}

	tr.regs[0x00][0] |= 0x08 // data_ready
	tr.regs[0x02] = []byte{0x01, 0xA4, 0x00, 0x78}
	r, err := d.ReadAlgorithm()
	if err != nil {
		t.Fatalf("ReadAlgorithm: %v", err)
	}
	if r.ECO2 != 420 || r.ETVOC != 120 {
		t.Fatalf("reading = %+v, want eco2=420 etvoc=120", r)
	}
}

func TestSetEnvironment(t *testing.T) {
	tr := newFakeTransport(0x90)
	d, err := New(tr, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.SetEnvironment(25, 50); err != nil {
		t.Fatalf("SetEnvironment: %v", err)
	}
	// 50 %RH and (25+25) degC are both 25600 in 1/512 steps.
	want := []byte{0x64, 0x00, 0x64, 0x00}
	if !bytes.Equal(tr.regs[0x05], want) {
		t.Fatalf("env_data = % x, want % x", tr.regs[0x05], want)
	}

	// Out-of-range inputs clamp to the register domain.
	if err := d.SetEnvironment(-40, 120); err != nil {
		t.Fatalf("SetEnvironment: %v", err)
	}
	want = []byte{0xC8, 0x00, 0x00, 0x00}
	if !bytes.Equal(tr.regs[0x05], want) {
		t.Fatalf("env_data = % x, want % x", tr.regs[0x05], want)
	}
}

func TestBaselineRoundTrip(t *testing.T) {
	tr := newFakeTransport(0x90)
	d, err := New(tr, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.SetBaseline(0x847B); err != nil {
		t.Fatalf("SetBaseline: %v", err)
	}
	b, err := d.Baseline()
	if err != nil || b != 0x847B {
		t.Fatalf("Baseline = %#x, %v", b, err)
	}
}

func TestErrorFlags(t *testing.T) {
	tr := newFakeTransport(0x90)
	d, err := New(tr, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr.regs[0xE0] = []byte{0x14}
	f, err := d.ErrorID()
	if err != nil {
		t.Fatalf("ErrorID: %v", err)
	}
	if !f.Has(ErrMeasModeInvalid) || !f.Has(ErrHeaterFault) || f.Has(ErrHeaterSupply) {
		t.Fatalf("flags = %#x", f)
	}
}
