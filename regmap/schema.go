package regmap

import (
	"errors"
	"fmt"
)

// Access describes who may touch a register or field.
type Access uint8

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

func (a Access) readable() bool { return a != WriteOnly }
func (a Access) writable() bool { return a != ReadOnly }

// ByteOrder is the wire order of a multi-byte register.
type ByteOrder uint8

const (
	BigEndian    ByteOrder = iota // first byte on the wire is most significant
	LittleEndian                  // first byte on the wire is least significant
)

// FieldDef declares one named bit-range of a register. Bit offsets count
// from the least significant bit of the assembled register value.
type FieldDef struct {
	Name   string
	Offset uint
	Codec  Codec
	Access Access
	Doc    string
}

// RegisterDef declares one addressable register. Bytes defaults to 1.
type RegisterDef struct {
	Name   string
	Addr   uint8
	Bytes  uint
	Access Access
	Order  ByteOrder
	Fields []FieldDef
}

// SchemaDef declares a hardware part as an ordered register collection.
type SchemaDef struct {
	Part      string
	Registers []RegisterDef
}

// Field is an immutable, compiled field description.
type Field struct {
	name   string
	offset uint
	width  uint
	codec  Codec
	access Access
	doc    string
}

func (f *Field) Name() string   { return f.name }
func (f *Field) Offset() uint   { return f.offset }
func (f *Field) Width() uint    { return f.width }
func (f *Field) Codec() Codec   { return f.codec }
func (f *Field) Access() Access { return f.access }
func (f *Field) Doc() string    { return f.doc }

// Register is an immutable, compiled register description. Identity is
// the (part, address) pair; two registers of one part may share an
// address when the hardware overlays views (e.g. combined data reads).
type Register struct {
	name   string
	addr   uint8
	bytes  uint
	access Access
	order  ByteOrder
	fields []*Field
	byName map[string]*Field
}

func (r *Register) Name() string   { return r.name }
func (r *Register) Addr() uint8    { return r.addr }
func (r *Register) Bytes() uint    { return r.bytes }
func (r *Register) Bits() uint     { return r.bytes * 8 }
func (r *Register) Access() Access { return r.access }

// Fields returns the ordered field list. The slice is a copy; the fields
// themselves are immutable.
func (r *Register) Fields() []*Field {
	out := make([]*Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Field returns the named field, or nil.
func (r *Register) Field(name string) *Field { return r.byName[name] }

// Decode extracts the named fields (all fields when names is empty) from
// a raw register image. len(raw) must equal Bytes.
func (r *Register) Decode(raw []byte, names ...string) (Values, error) {
	if uint(len(raw)) != r.bytes {
		return nil, fmt.Errorf("regmap: register %q is %d bytes, got %d", r.name, r.bytes, len(raw))
	}
	fs, err := r.resolve(names)
	if err != nil {
		return nil, err
	}
	out := make(Values, len(fs))
	for _, f := range fs {
		v, err := f.codec.Decode(getBits(raw, r.order, f.offset, f.width))
		if err != nil {
			var use *UnknownSymbolError
			if errors.As(err, &use) {
				use.Field = f.name
			}
			return nil, err
		}
		out[f.name] = v
	}
	return out, nil
}

func (r *Register) resolve(names []string) ([]*Field, error) {
	if len(names) == 0 {
		return r.fields, nil
	}
	fs := make([]*Field, len(names))
	for i, name := range names {
		f := r.byName[name]
		if f == nil {
			return nil, &FieldNotFoundError{Register: r.name, Field: name}
		}
		fs[i] = f
	}
	return fs, nil
}

// Schema is the immutable description of a hardware part, constructed
// once per driver package and shared read-only across instances.
type Schema struct {
	part   string
	regs   []*Register
	byName map[string]*Register
}

func (s *Schema) Part() string { return s.part }

// Registers returns the ordered register list (a copy).
func (s *Schema) Registers() []*Register {
	out := make([]*Register, len(s.regs))
	copy(out, s.regs)
	return out
}

// Register returns the named register, or nil.
func (s *Schema) Register(name string) *Register { return s.byName[name] }

// NewSchema compiles and validates a schema definition: register and
// field names must be unique, every field must fit its register, fields
// must not overlap, and field widths must match their codecs. Uncovered
// (reserved) bits are allowed and preserved by read-modify-write.
func NewSchema(def SchemaDef) (*Schema, error) {
	if def.Part == "" {
		return nil, errors.New("regmap: schema has no part name")
	}
	s := &Schema{
		part:   def.Part,
		regs:   make([]*Register, 0, len(def.Registers)),
		byName: make(map[string]*Register, len(def.Registers)),
	}
	for _, rd := range def.Registers {
		r, err := compileRegister(def.Part, rd)
		if err != nil {
			return nil, err
		}
		if _, dup := s.byName[r.name]; dup {
			return nil, fmt.Errorf("regmap: %s: duplicate register %q", def.Part, r.name)
		}
		s.regs = append(s.regs, r)
		s.byName[r.name] = r
	}
	return s, nil
}

// MustSchema is NewSchema for package-level schema literals; it panics on
// an invalid definition.
func MustSchema(def SchemaDef) *Schema {
	s, err := NewSchema(def)
	if err != nil {
		panic(err)
	}
	return s
}

func compileRegister(part string, rd RegisterDef) (*Register, error) {
	if rd.Name == "" {
		return nil, fmt.Errorf("regmap: %s: register %#x has no name", part, rd.Addr)
	}
	bytes := rd.Bytes
	if bytes == 0 {
		bytes = 1
	}
	if bytes > 32 {
		return nil, fmt.Errorf("regmap: %s.%s: %d bytes exceeds the supported register size", part, rd.Name, bytes)
	}
	r := &Register{
		name:   rd.Name,
		addr:   rd.Addr,
		bytes:  bytes,
		access: rd.Access,
		order:  rd.Order,
		fields: make([]*Field, 0, len(rd.Fields)),
		byName: make(map[string]*Field, len(rd.Fields)),
	}
	taken := make([]bool, bytes*8)
	for _, fd := range rd.Fields {
		if fd.Name == "" {
			return nil, fmt.Errorf("regmap: %s.%s: field has no name", part, rd.Name)
		}
		if fd.Codec == nil {
			return nil, fmt.Errorf("regmap: %s.%s.%s: field has no codec", part, rd.Name, fd.Name)
		}
		width := fd.Codec.Width()
		if fd.Offset+width > bytes*8 {
			return nil, fmt.Errorf("regmap: %s.%s.%s: bits %d..%d exceed the %d-bit register",
				part, rd.Name, fd.Name, fd.Offset, fd.Offset+width-1, bytes*8)
		}
		for i := fd.Offset; i < fd.Offset+width; i++ {
			if taken[i] {
				return nil, fmt.Errorf("regmap: %s.%s.%s: overlaps another field at bit %d", part, rd.Name, fd.Name, i)
			}
			taken[i] = true
		}
		if _, dup := r.byName[fd.Name]; dup {
			return nil, fmt.Errorf("regmap: %s.%s: duplicate field %q", part, rd.Name, fd.Name)
		}
		f := &Field{
			name:   fd.Name,
			offset: fd.Offset,
			width:  width,
			codec:  fd.Codec,
			access: fd.Access,
			doc:    fd.Doc,
		}
		r.fields = append(r.fields, f)
		r.byName[fd.Name] = f
	}
	return r, nil
}

// fieldBits is the total number of bits covered by declared fields.
func (r *Register) fieldBits() uint {
	var n uint
	for _, f := range r.fields {
		n += f.width
	}
	return n
}

// getBits extracts width bits starting at bit offset (counted from the
// register's least significant bit) out of a raw wire image.
func getBits(raw []byte, order ByteOrder, offset, width uint) uint64 {
	var v uint64
	for i := uint(0); i < width; i++ {
		p := offset + i
		if raw[byteIndex(len(raw), order, p)]&(1<<(p%8)) != 0 {
			v |= 1 << i
		}
	}
	return v
}

// setBits overlays width bits starting at bit offset into a raw wire image.
func setBits(raw []byte, order ByteOrder, offset, width uint, bits uint64) {
	for i := uint(0); i < width; i++ {
		p := offset + i
		idx := byteIndex(len(raw), order, p)
		mask := byte(1 << (p % 8))
		if bits&(1<<i) != 0 {
			raw[idx] |= mask
		} else {
			raw[idx] &^= mask
		}
	}
}

func byteIndex(n int, order ByteOrder, bit uint) int {
	if order == LittleEndian {
		return int(bit / 8)
	}
	return n - 1 - int(bit/8)
}
