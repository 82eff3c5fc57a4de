package regmap

import (
	"errors"
	"fmt"
)

// Values maps field names to semantic values.
type Values map[string]any

// Int reads a field as int64, tolerating the integer kinds codecs
// produce. ok is false when the field is missing or not an integer.
func (v Values) Int(name string) (int64, bool) {
	switch x := v[name].(type) {
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	default:
		return 0, false
	}
}

// Float reads a field as float64 (scaled codecs), also accepting the
// integer kinds.
func (v Values) Float(name string) (float64, bool) {
	switch x := v[name].(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

// Bool reads a flag field.
func (v Values) Bool(name string) (bool, bool) {
	x, ok := v[name].(bool)
	return x, ok
}

// Accessor is the runtime view of one register on one live device. It
// owns no hardware state; it caches the last raw bytes it read or wrote
// as a seed for read-modify-write, never as a freshness guarantee.
//
// An accessor must be driven from a single logical caller; the package
// performs no locking (see Device).
type Accessor struct {
	reg   *Register
	tr    Transport
	addr  uint16
	raw   []byte
	valid bool
}

func newAccessor(reg *Register, tr Transport, addr uint16) *Accessor {
	return &Accessor{reg: reg, tr: tr, addr: addr}
}

// Register returns the immutable register description.
func (a *Accessor) Register() *Register { return a.reg }

// Raw returns a copy of the cached raw bytes and whether the cache is valid.
func (a *Accessor) Raw() ([]byte, bool) {
	if !a.valid {
		return nil, false
	}
	out := make([]byte, len(a.raw))
	copy(out, a.raw)
	return out, true
}

// Invalidate drops the cached raw bytes.
func (a *Accessor) Invalidate() { a.raw, a.valid = nil, false }

// Read fetches the register from the transport and decodes the named
// fields (all fields when names is empty). It always goes to the bus:
// sensor values change continuously, so freshness is the caller's call —
// use Cached for cache semantics. An unknown field name fails with
// FieldNotFoundError before any transport transaction; a bus failure
// fails with TransportError and leaves the cache untouched.
func (a *Accessor) Read(names ...string) (Values, error) {
	if !a.reg.access.readable() {
		return nil, fmt.Errorf("%w: %s", ErrRegisterWriteOnly, a.reg.name)
	}
	if _, err := a.reg.resolve(names); err != nil {
		return nil, err
	}
	raw := make([]byte, a.reg.bytes)
	if err := a.tr.ReadReg(a.addr, a.reg.addr, raw); err != nil {
		return nil, &TransportError{Op: "read", Addr: a.addr, Reg: a.reg.addr, Err: err}
	}
	a.raw, a.valid = raw, true
	return a.reg.Decode(raw, names...)
}

// Cached decodes the named fields from the cached raw bytes without any
// transport transaction. ErrCacheInvalid if nothing has been read or
// written yet.
func (a *Accessor) Cached(names ...string) (Values, error) {
	if !a.valid {
		return nil, fmt.Errorf("%w: %s", ErrCacheInvalid, a.reg.name)
	}
	return a.reg.Decode(a.raw, names...)
}

// Refresh fetches the raw register into the cache without decoding.
func (a *Accessor) Refresh() error {
	if !a.reg.access.readable() {
		return fmt.Errorf("%w: %s", ErrRegisterWriteOnly, a.reg.name)
	}
	raw := make([]byte, a.reg.bytes)
	if err := a.tr.ReadReg(a.addr, a.reg.addr, raw); err != nil {
		return &TransportError{Op: "read", Addr: a.addr, Reg: a.reg.addr, Err: err}
	}
	a.raw, a.valid = raw, true
	return nil
}

// Write encodes the supplied field values and writes the register. When
// the supplied fields do not cover every bit, the unsupplied bits are
// preserved by read-modify-write: seeded from the cache when valid, else
// from a transport read (write-only registers seed zeros).
//
// All validation and encoding happens before any transport transaction:
// an unknown name is FieldNotFoundError, an out-of-domain value is
// DomainError, and in both cases no bus traffic occurs. The cache is
// updated to the new raw value only after the bus write succeeds
// (write-through); a failed write leaves it untouched.
func (a *Accessor) Write(vals Values) error {
	if !a.reg.access.writable() {
		return fmt.Errorf("%w: %s", ErrRegisterReadOnly, a.reg.name)
	}
	type pending struct {
		f    *Field
		bits uint64
	}
	ps := make([]pending, 0, len(vals))
	var covered uint
	for name, v := range vals {
		f := a.reg.byName[name]
		if f == nil {
			return &FieldNotFoundError{Register: a.reg.name, Field: name}
		}
		if !f.access.writable() {
			return fmt.Errorf("%w: %s.%s", ErrFieldReadOnly, a.reg.name, name)
		}
		bits, err := f.codec.Encode(v)
		if err != nil {
			var de *DomainError
			if errors.As(err, &de) {
				de.Field = f.name
			}
			return err
		}
		ps = append(ps, pending{f, bits})
		covered += f.width
	}

	raw := make([]byte, a.reg.bytes)
	switch {
	case covered == a.reg.Bits():
		// Full coverage: nothing to preserve.
	case a.valid:
		copy(raw, a.raw)
	case a.reg.access.readable():
		if err := a.tr.ReadReg(a.addr, a.reg.addr, raw); err != nil {
			return &TransportError{Op: "read", Addr: a.addr, Reg: a.reg.addr, Err: err}
		}
	}
	for _, p := range ps {
		setBits(raw, a.reg.order, p.f.offset, p.f.width, p.bits)
	}
	if err := a.tr.WriteReg(a.addr, a.reg.addr, raw); err != nil {
		return &TransportError{Op: "write", Addr: a.addr, Reg: a.reg.addr, Err: err}
	}
	a.raw, a.valid = raw, true
	return nil
}
