package regmap

import (
	"errors"
	"fmt"

	"airquality-go/errcode"
)

// Sentinels for access-mode misuse. These are programmer errors, like
// FieldNotFoundError, and are never preceded by a transport transaction.
var (
	ErrRegisterReadOnly  = errors.New("regmap: register is read-only")
	ErrRegisterWriteOnly = errors.New("regmap: register is write-only")
	ErrFieldReadOnly     = errors.New("regmap: field is read-only")
	ErrCacheInvalid      = errors.New("regmap: no cached value")
)

// DomainError reports a value outside a field's representable range or
// not a member of its enumerated symbol set. It is produced by Encode
// before any transport transaction and is never retried.
type DomainError struct {
	Field  string // set by the accessor; empty when the codec is used directly
	Value  any
	Reason string
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("regmap: value %v for field %q: %s", e.Value, e.Field, e.Reason)
	}
	return fmt.Sprintf("regmap: value %v: %s", e.Value, e.Reason)
}
func (e *DomainError) Code() errcode.Code { return errcode.Domain }

// FieldNotFoundError reports an unknown field name on a register.
type FieldNotFoundError struct {
	Register string
	Field    string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("regmap: register %q has no field %q", e.Register, e.Field)
}
func (e *FieldNotFoundError) Code() errcode.Code { return errcode.FieldNotFound }

// UnknownSymbolError reports decode of a bit pattern with no symbol in an
// enumerated codec. Recoverable: the caller decides whether to substitute
// a sentinel or propagate.
type UnknownSymbolError struct {
	Field string
	Bits  uint64
}

func (e *UnknownSymbolError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("regmap: field %q: pattern %#x is not a defined symbol", e.Field, e.Bits)
	}
	return fmt.Sprintf("regmap: pattern %#x is not a defined symbol", e.Bits)
}
func (e *UnknownSymbolError) Code() errcode.Code { return errcode.UnknownSymbol }

// TransportError wraps a bus-level failure (NACK, timeout, short read).
// The core performs no retries; retry policy belongs to the sampling layer.
type TransportError struct {
	Op   string // "read" or "write"
	Addr uint16
	Reg  uint8
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("regmap: %s addr %#x reg %#x: %v", e.Op, e.Addr, e.Reg, e.Err)
}
func (e *TransportError) Unwrap() error      { return e.Err }
func (e *TransportError) Code() errcode.Code { return errcode.Transport }

// ConfigurationError reports a failed identification/reset sequence at
// device construction. Fatal: the driver is not usable.
type ConfigurationError struct {
	Part   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("regmap: %s: %s: %v", e.Part, e.Reason, e.Err)
	}
	return fmt.Sprintf("regmap: %s: %s", e.Part, e.Reason)
}
func (e *ConfigurationError) Unwrap() error      { return e.Err }
func (e *ConfigurationError) Code() errcode.Code { return errcode.Configuration }
