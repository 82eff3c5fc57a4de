package errcode

import "errors"

// Code is a stable error identifier for classifying sensor failures.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Register-map layer
	Domain        Code = "domain"          // value outside a field's representable range
	FieldNotFound Code = "field_not_found" // unknown field name on a register
	UnknownSymbol Code = "unknown_symbol"  // decode of an undefined enumerated pattern
	Transport     Code = "transport"       // bus-level failure: NACK, timeout, short read

	// Device layer
	Configuration Code = "configuration" // identification/reset sequence failed
	Checksum      Code = "checksum"      // frame checksum or CRC mismatch
	Mode          Code = "mode"          // operation invalid in the device's current mode
	Calibration   Code = "calibration"   // device-side calibration did not complete

	Error Code = "error" // generic fallback
)

// E is an optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

type coder interface{ Code() Code }

// Of extracts a Code from an error, walking wrapped causes.
// Unclassified errors map to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}
