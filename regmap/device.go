package regmap

import "fmt"

// Device binds a schema to one transport at one bus address, with one
// eagerly constructed accessor per register. Binding performs no bus
// traffic; the first accessor operation does (parts that need an
// identification or reset sequence run it in their driver's constructor).
//
// A Device and its accessors are owned by a single logical caller. The
// bus itself is shared across addresses; serializing transactions per bus
// is the caller's responsibility.
type Device struct {
	schema *Schema
	tr     Transport
	addr   uint16
	accs   map[string]*Accessor
}

// Bind creates a Device for schema at addr over tr.
func Bind(schema *Schema, tr Transport, addr uint16) *Device {
	d := &Device{
		schema: schema,
		tr:     tr,
		addr:   addr,
		accs:   make(map[string]*Accessor, len(schema.regs)),
	}
	for _, r := range schema.regs {
		d.accs[r.name] = newAccessor(r, tr, addr)
	}
	return d
}

// Schema returns the shared, immutable part description.
func (d *Device) Schema() *Schema { return d.schema }

// Addr returns the bound bus address.
func (d *Device) Addr() uint16 { return d.addr }

// Transport returns the bound transport session.
func (d *Device) Transport() Transport { return d.tr }

// Reg returns the accessor for the named register. Unknown names are
// construction-time programmer errors in a driver package, so Reg panics
// rather than making every driver thread an error it can never handle.
func (d *Device) Reg(name string) *Accessor {
	a := d.accs[name]
	if a == nil {
		panic(fmt.Sprintf("regmap: %s has no register %q", d.schema.part, name))
	}
	return a
}
