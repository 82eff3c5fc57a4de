package regmap

import (
	"bytes"
	"errors"
	"testing"
)

// fakeTransport is a scripted register file with operation counters.
type fakeTransport struct {
	regs     map[uint8][]byte
	reads    int
	writes   int
	readErr  map[uint8]error
	writeErr map[uint8]error
}

var _ Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		regs:     make(map[uint8][]byte),
		readErr:  make(map[uint8]error),
		writeErr: make(map[uint8]error),
	}
}

func (f *fakeTransport) ReadReg(addr uint16, reg uint8, buf []byte) error {
	f.reads++
	if err := f.readErr[reg]; err != nil {
		return err
	}
	copy(buf, f.regs[reg])
	return nil
}

func (f *fakeTransport) WriteReg(addr uint16, reg uint8, p []byte) error {
	f.writes++
	if err := f.writeErr[reg]; err != nil {
		return err
	}
	f.regs[reg] = append([]byte(nil), p...)
	return nil
}

// ctrlSchema models a BMP280-style measurement-control register: two
// 3-bit oversampling enums and a 2-bit mode enum in one byte.
func ctrlSchema() *Schema {
	ovs := map[any]uint64{0: 0, 1: 1, 2: 2, 4: 3, 8: 4, 16: 5}
	return MustSchema(SchemaDef{
		Part: "part",
		Registers: []RegisterDef{{
			Name: "ctrl_meas", Addr: 0xF4,
			Fields: []FieldDef{
				{Name: "osrs_t", Offset: 5, Codec: Enum(3, ovs)},
				{Name: "osrs_p", Offset: 2, Codec: Enum(3, ovs)},
				{Name: "mode", Offset: 0, Codec: Enum(2, map[any]uint64{"sleep": 0, "forced": 2, "normal": 3})},
			},
		}},
	})
}

func TestWritePartialReadModifyWrite(t *testing.T) {
	tr := newFakeTransport()
	tr.regs[0xF4] = []byte{0xB6} // osrs_t=16, osrs_p=16, mode=forced
	a := Bind(ctrlSchema(), tr, 0x76).Reg("ctrl_meas")

	// Partial write, cold cache: one read to seed, one write with only
	// the mode bits replaced.
	if err := a.Write(Values{"mode": "sleep"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if tr.reads != 1 || tr.writes != 1 {
		t.Fatalf("reads=%d writes=%d, want 1/1", tr.reads, tr.writes)
	}
	if got := tr.regs[0xF4][0]; got != 0xB4 {
		t.Fatalf("raw after write = %#x, want 0xB4", got)
	}

	// Second partial write seeds from the cache: no extra read.
	if err := a.Write(Values{"osrs_p": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if tr.reads != 1 {
		t.Fatalf("reads=%d after cached RMW, want 1", tr.reads)
	}
	if got := tr.regs[0xF4][0]; got != 0xA4 {
		t.Fatalf("raw after write = %#x, want 0xA4", got)
	}
}

func TestWriteFullCoverageSkipsRead(t *testing.T) {
	tr := newFakeTransport()
	a := Bind(ctrlSchema(), tr, 0x76).Reg("ctrl_meas")
	err := a.Write(Values{"osrs_t": 2, "osrs_p": 16, "mode": "forced"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if tr.reads != 0 {
		t.Fatalf("reads=%d for full-coverage write, want 0", tr.reads)
	}
	// osrs_t=2 -> 010, osrs_p=16 -> 101, mode=forced -> 10
	if got := tr.regs[0xF4][0]; got != 0x56 {
		t.Fatalf("raw = %#x, want 0x56", got)
	}
}

func TestFieldIsolation(t *testing.T) {
	s := MustSchema(SchemaDef{
		Part: "part",
		Registers: []RegisterDef{{
			Name: "pair", Addr: 0x10,
			Fields: []FieldDef{
				{Name: "a", Offset: 0, Codec: Uint(4)},
				{Name: "b", Offset: 4, Codec: Uint(4)},
			},
		}},
	})
	tr := newFakeTransport()
	tr.regs[0x10] = []byte{0x00}
	a := Bind(s, tr, 0x76).Reg("pair")

	if err := a.Write(Values{"a": 0xA}); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := a.Write(Values{"b": 0x5}); err != nil {
		t.Fatalf("write b: %v", err)
	}
	vals, err := a.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if va, _ := vals.Int("a"); va != 0xA {
		t.Fatalf("a = %#x after writing b, want 0xA", va)
	}
	if vb, _ := vals.Int("b"); vb != 0x5 {
		t.Fatalf("b = %#x, want 0x5", vb)
	}
	if tr.regs[0x10][0] != 0x5A {
		t.Fatalf("raw = %#x, want 0x5A", tr.regs[0x10][0])
	}
}

func TestOversamplingScenario(t *testing.T) {
	s := MustSchema(SchemaDef{
		Part: "part",
		Registers: []RegisterDef{{
			Name: "sampling", Addr: 0x20,
			Fields: []FieldDef{{
				Name: "n_oversamples", Offset: 2,
				Codec: Enum(3, map[any]uint64{1: 0, 2: 1, 4: 2, 8: 3, 16: 4, 32: 5, 64: 6, 128: 7}),
			}},
		}},
	})
	tr := newFakeTransport()
	tr.regs[0x20] = []byte{0x00}
	a := Bind(s, tr, 0x76).Reg("sampling")

	if err := a.Write(Values{"n_oversamples": 16}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	vals, err := a.Read("n_oversamples")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n, _ := vals.Int("n_oversamples"); n != 16 {
		t.Fatalf("n_oversamples = %d, want 16", n)
	}

	before, _ := a.Raw()
	writesBefore := tr.writes
	err = a.Write(Values{"n_oversamples": 3})
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatalf("Write(3) err = %v, want DomainError", err)
	}
	if de.Field != "n_oversamples" {
		t.Fatalf("DomainError.Field = %q", de.Field)
	}
	if tr.writes != writesBefore {
		t.Fatal("rejected write reached the transport")
	}
	after, ok := a.Raw()
	if !ok || !bytes.Equal(before, after) {
		t.Fatalf("cache changed by rejected write: %x -> %x", before, after)
	}
}

func TestFieldNotFoundNoTransport(t *testing.T) {
	tr := newFakeTransport()
	a := Bind(ctrlSchema(), tr, 0x76).Reg("ctrl_meas")

	var fnf *FieldNotFoundError
	if _, err := a.Read("bogus"); !errors.As(err, &fnf) {
		t.Fatalf("Read err = %v, want FieldNotFoundError", err)
	}
	if err := a.Write(Values{"bogus": 1}); !errors.As(err, &fnf) {
		t.Fatalf("Write err = %v, want FieldNotFoundError", err)
	}
	if tr.reads != 0 || tr.writes != 0 {
		t.Fatalf("transport touched: reads=%d writes=%d", tr.reads, tr.writes)
	}
}

func TestReadFailureLeavesCache(t *testing.T) {
	s := MustSchema(SchemaDef{
		Part: "part",
		Registers: []RegisterDef{{
			Name: "data", Addr: 0x30, Bytes: 2,
			Fields: []FieldDef{{Name: "v", Offset: 0, Codec: Uint(16)}},
		}},
	})
	tr := newFakeTransport()
	tr.regs[0x30] = []byte{0x12, 0x34}
	a := Bind(s, tr, 0x76).Reg("data")

	if _, err := a.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	before, _ := a.Raw()

	tr.readErr[0x30] = errors.New("i2c: timeout on byte 2")
	_, err := a.Read()
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	after, ok := a.Raw()
	if !ok || !bytes.Equal(before, after) {
		t.Fatalf("cache changed by failed read: %x -> %x", before, after)
	}
	// Cached still serves the prior value.
	vals, err := a.Cached("v")
	if err != nil {
		t.Fatalf("Cached: %v", err)
	}
	if v, _ := vals.Int("v"); v != 0x1234 {
		t.Fatalf("cached v = %#x, want 0x1234", v)
	}
}

func TestWriteFailureLeavesCache(t *testing.T) {
	tr := newFakeTransport()
	tr.regs[0xF4] = []byte{0xB6}
	a := Bind(ctrlSchema(), tr, 0x76).Reg("ctrl_meas")
	if _, err := a.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	before, _ := a.Raw()

	tr.writeErr[0xF4] = errors.New("i2c: nack")
	err := a.Write(Values{"mode": "sleep"})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	after, _ := a.Raw()
	if !bytes.Equal(before, after) {
		t.Fatalf("cache changed by failed write: %x -> %x", before, after)
	}
}

func TestWriteOnlyRegisterSeedsZeros(t *testing.T) {
	s := MustSchema(SchemaDef{
		Part: "part",
		Registers: []RegisterDef{{
			Name: "cmd", Addr: 0xE0, Access: WriteOnly,
			Fields: []FieldDef{{Name: "op", Offset: 0, Codec: Uint(4)}},
		}},
	})
	tr := newFakeTransport()
	a := Bind(s, tr, 0x76).Reg("cmd")
	if err := a.Write(Values{"op": 0x6}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if tr.reads != 0 {
		t.Fatalf("reads=%d on write-only register, want 0", tr.reads)
	}
	if tr.regs[0xE0][0] != 0x06 {
		t.Fatalf("raw = %#x, want 0x06", tr.regs[0xE0][0])
	}
	if _, err := a.Read(); !errors.Is(err, ErrRegisterWriteOnly) {
		t.Fatalf("Read err = %v, want ErrRegisterWriteOnly", err)
	}
}

func TestAccessModeEnforcement(t *testing.T) {
	s := MustSchema(SchemaDef{
		Part: "part",
		Registers: []RegisterDef{
			{Name: "status", Addr: 0x00, Access: ReadOnly,
				Fields: []FieldDef{{Name: "busy", Offset: 3, Codec: Flag()}}},
			{Name: "cfg", Addr: 0x02,
				Fields: []FieldDef{
					{Name: "heat", Offset: 5, Codec: Flag()},
					{Name: "battery_low", Offset: 3, Codec: Flag(), Access: ReadOnly},
				}},
		},
	})
	tr := newFakeTransport()
	tr.regs[0x02] = []byte{0x00}
	d := Bind(s, tr, 0x40)

	if err := d.Reg("status").Write(Values{"busy": true}); !errors.Is(err, ErrRegisterReadOnly) {
		t.Fatalf("err = %v, want ErrRegisterReadOnly", err)
	}
	if err := d.Reg("cfg").Write(Values{"battery_low": true}); !errors.Is(err, ErrFieldReadOnly) {
		t.Fatalf("err = %v, want ErrFieldReadOnly", err)
	}
	if err := d.Reg("cfg").Write(Values{"heat": true}); err != nil {
		t.Fatalf("Write(heat): %v", err)
	}
}

func TestCachedBeforeAnyIO(t *testing.T) {
	tr := newFakeTransport()
	a := Bind(ctrlSchema(), tr, 0x76).Reg("ctrl_meas")
	if _, err := a.Cached(); !errors.Is(err, ErrCacheInvalid) {
		t.Fatalf("err = %v, want ErrCacheInvalid", err)
	}
}
