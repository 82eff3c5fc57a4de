// Package regmap models hardware register maps: bit-packed fields with
// typed codecs, immutable device schemas, and per-register accessors that
// perform read-modify-write transactions over an I2C-style transport.
//
// Schemas are built once from datasheet literals and shared read-only
// across every driver instance of a part. Accessors hold the only mutable
// state (the last raw bytes seen) and assume external serialization: one
// accessor is owned by one logical caller, typically a polling loop.
package regmap

import (
	"fmt"
	"math"
)

// Codec converts between the raw bits of a field and a typed value.
// Implementations are stateless and shared freely across schemas.
//
// Decode(Encode(v)) == v for every v in the codec's domain, exactly for
// integer, flag and enum codecs. Scaled codecs quantize: the round trip
// yields the nearest representable step (a property, not an error).
type Codec interface {
	// Width is the field width in bits this codec encodes into.
	Width() uint
	// Encode converts a semantic value to raw field bits. Values outside
	// the representable domain return a *DomainError.
	Encode(v any) (uint64, error)
	// Decode converts raw field bits to a semantic value.
	Decode(bits uint64) (any, error)
}

// normalize collapses numeric types so enum lookups and range checks do
// not depend on the caller's literal type. Integral floats become int64;
// unsigned values that fit become int64.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return normalizeU64(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return normalizeU64(x)
	case float32:
		return normalize(float64(x))
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x <= math.MaxInt64 {
			return int64(x)
		}
		return x
	default:
		return v
	}
}

func normalizeU64(x uint64) any {
	if x <= math.MaxInt64 {
		return int64(x)
	}
	return x
}

func maxUint(width uint) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return (1 << width) - 1
}

func widthMask(width uint) uint64 { return maxUint(width) }

func checkWidth(width uint) {
	if width == 0 || width > 64 {
		panic(fmt.Sprintf("regmap: codec width %d out of range 1..64", width))
	}
}

// ---- Unsigned integer ----

type uintCodec struct{ width uint }

// Uint returns an unsigned-integer codec: identity mapping within
// [0, 2^width-1]. Decode yields uint64.
func Uint(width uint) Codec {
	checkWidth(width)
	return uintCodec{width}
}

func (c uintCodec) Width() uint { return c.width }

func (c uintCodec) Encode(v any) (uint64, error) {
	var u uint64
	switch x := normalize(v).(type) {
	case int64:
		if x < 0 {
			return 0, &DomainError{Value: v, Reason: "negative value for unsigned field"}
		}
		u = uint64(x)
	case uint64:
		u = x
	default:
		return 0, &DomainError{Value: v, Reason: "not an integer"}
	}
	if u > maxUint(c.width) {
		return 0, &DomainError{Value: v, Reason: fmt.Sprintf("exceeds %d-bit range", c.width)}
	}
	return u, nil
}

func (c uintCodec) Decode(bits uint64) (any, error) { return bits, nil }

// ---- Signed integer (two's complement) ----

type intCodec struct{ width uint }

// Int returns a two's-complement signed-integer codec within
// [-2^(width-1), 2^(width-1)-1]. Decode yields int64.
func Int(width uint) Codec {
	checkWidth(width)
	return intCodec{width}
}

func (c intCodec) Width() uint { return c.width }

func (c intCodec) bounds() (lo, hi int64) {
	if c.width == 64 {
		return math.MinInt64, math.MaxInt64
	}
	return -(1 << (c.width - 1)), 1<<(c.width-1) - 1
}

func (c intCodec) Encode(v any) (uint64, error) {
	x, ok := normalize(v).(int64)
	if !ok {
		return 0, &DomainError{Value: v, Reason: "not an integer"}
	}
	lo, hi := c.bounds()
	if x < lo || x > hi {
		return 0, &DomainError{Value: v, Reason: fmt.Sprintf("outside signed %d-bit range [%d, %d]", c.width, lo, hi)}
	}
	return uint64(x) & widthMask(c.width), nil
}

func (c intCodec) Decode(bits uint64) (any, error) {
	if c.width < 64 && bits&(1<<(c.width-1)) != 0 {
		bits |= ^widthMask(c.width) // sign extend
	}
	return int64(bits), nil
}

// ---- Boolean flag ----

type flagCodec struct{}

// Flag returns a 1-bit boolean codec. Encode also accepts 0 and 1.
func Flag() Codec { return flagCodec{} }

func (flagCodec) Width() uint { return 1 }

func (flagCodec) Encode(v any) (uint64, error) {
	switch x := normalize(v).(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case int64:
		if x == 0 || x == 1 {
			return uint64(x), nil
		}
	}
	return 0, &DomainError{Value: v, Reason: "not a boolean flag"}
}

func (flagCodec) Decode(bits uint64) (any, error) { return bits != 0, nil }

// ---- Enumerated symbol set ----

type enumCodec struct {
	width uint
	fwd   map[any]uint64
	rev   map[uint64]any
}

// Enum returns a codec mapping a fixed symbol set to bit patterns.
// Numeric symbols are normalized (so a map may mix 125 and 62.5 and a
// caller may pass either int or float forms). Enum panics on duplicate
// symbols, duplicate patterns, or patterns that do not fit width:
// schemas are static data and such mistakes cannot be handled at runtime.
func Enum(width uint, symbols map[any]uint64) Codec {
	checkWidth(width)
	c := enumCodec{
		width: width,
		fwd:   make(map[any]uint64, len(symbols)),
		rev:   make(map[uint64]any, len(symbols)),
	}
	for sym, bits := range symbols {
		k := normalize(sym)
		if bits > maxUint(width) {
			panic(fmt.Sprintf("regmap: enum pattern %#x exceeds %d bits", bits, width))
		}
		if _, dup := c.fwd[k]; dup {
			panic(fmt.Sprintf("regmap: duplicate enum symbol %v", k))
		}
		if _, dup := c.rev[bits]; dup {
			panic(fmt.Sprintf("regmap: duplicate enum pattern %#x", bits))
		}
		c.fwd[k] = bits
		c.rev[bits] = k
	}
	return c
}

func (c enumCodec) Width() uint { return c.width }

func (c enumCodec) Encode(v any) (uint64, error) {
	bits, ok := c.fwd[normalize(v)]
	if !ok {
		return 0, &DomainError{Value: v, Reason: "not a member of the symbol set"}
	}
	return bits, nil
}

func (c enumCodec) Decode(bits uint64) (any, error) {
	sym, ok := c.rev[bits]
	if !ok {
		return nil, &UnknownSymbolError{Bits: bits}
	}
	return sym, nil
}

// ---- Scaled fixed-point ----

type scaledCodec struct {
	width         uint
	signed        bool
	scale, offset float64
	rawLo, rawHi  int64
}

// Scaled returns a linear fixed-point codec: decode computes
// raw*scale + offset; encode rounds to the nearest raw step. The full
// width is the raw domain. Decode yields float64.
func Scaled(width uint, signed bool, scale, offset float64) Codec {
	var lo, hi int64
	if signed {
		lo = -(1 << (width - 1))
		hi = 1<<(width-1) - 1
	} else {
		hi = int64(maxUint(width))
		if width >= 63 {
			hi = math.MaxInt64
		}
	}
	return ScaledRange(width, signed, scale, offset, lo, hi)
}

// ScaledRange is Scaled with an explicit raw domain narrower than the
// field width, for parts whose datasheet bounds the raw reading.
func ScaledRange(width uint, signed bool, scale, offset float64, rawLo, rawHi int64) Codec {
	checkWidth(width)
	if scale == 0 {
		panic("regmap: scaled codec with zero scale")
	}
	return scaledCodec{width: width, signed: signed, scale: scale, offset: offset, rawLo: rawLo, rawHi: rawHi}
}

func (c scaledCodec) Width() uint { return c.width }

func (c scaledCodec) Encode(v any) (uint64, error) {
	var f float64
	switch x := normalize(v).(type) {
	case int64:
		f = float64(x)
	case float64:
		f = x
	default:
		return 0, &DomainError{Value: v, Reason: "not numeric"}
	}
	raw := math.Round((f - c.offset) / c.scale)
	// Negated form so a NaN raw (which fails every ordering) is rejected
	// rather than slipping through as an arbitrary bit pattern.
	if !(raw >= float64(c.rawLo) && raw <= float64(c.rawHi)) {
		return 0, &DomainError{Value: v, Reason: fmt.Sprintf("outside raw domain [%d, %d]", c.rawLo, c.rawHi)}
	}
	return uint64(int64(raw)) & widthMask(c.width), nil
}

func (c scaledCodec) Decode(bits uint64) (any, error) {
	raw := int64(bits)
	if c.signed && c.width < 64 && bits&(1<<(c.width-1)) != 0 {
		raw = int64(bits | ^widthMask(c.width))
	}
	return float64(raw)*c.scale + c.offset, nil
}
