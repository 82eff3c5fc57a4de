package regmap

import "tinygo.org/x/drivers"

// Transport is the byte-level boundary to a physical bus. Implementations
// block for the duration of the transaction and return the bus error on
// NACK, timeout, or short read; the accessor wraps it in a TransportError.
type Transport interface {
	// ReadReg fills buf from the register at reg on the device at addr.
	ReadReg(addr uint16, reg uint8, buf []byte) error
	// WriteReg writes p to the register at reg on the device at addr.
	// p may be empty for bare-command writes.
	WriteReg(addr uint16, reg uint8, p []byte) error
}

// PlainTransport is implemented by transports that can separate the
// register-pointer write from the data read. Parts with long conversion
// delays (e.g. HDC1080) need the gap between the two.
type PlainTransport interface {
	// WritePointer sets the device's register pointer without data.
	WritePointer(addr uint16, reg uint8) error
	// ReadPlain fills buf from the device's current register pointer.
	ReadPlain(addr uint16, buf []byte) error
}

type i2cTransport struct {
	bus drivers.I2C
}

// I2C adapts a drivers.I2C bus to the Transport and PlainTransport
// interfaces using register-addressed transactions.
//
// NOTE: the bus's Tx MUST perform a write followed by a repeated-start
// read when both w and r are provided, without releasing the bus.
func I2C(bus drivers.I2C) Transport { return &i2cTransport{bus: bus} }

func (t *i2cTransport) ReadReg(addr uint16, reg uint8, buf []byte) error {
	return t.bus.Tx(addr, []byte{reg}, buf)
}

func (t *i2cTransport) WriteReg(addr uint16, reg uint8, p []byte) error {
	w := make([]byte, 1+len(p))
	w[0] = reg
	copy(w[1:], p)
	return t.bus.Tx(addr, w, nil)
}

func (t *i2cTransport) WritePointer(addr uint16, reg uint8) error {
	return t.bus.Tx(addr, []byte{reg}, nil)
}

func (t *i2cTransport) ReadPlain(addr uint16, buf []byte) error {
	return t.bus.Tx(addr, nil, buf)
}
