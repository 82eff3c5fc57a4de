package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOfNil(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %q, want %q", got, OK)
	}
}

func TestOfBareCode(t *testing.T) {
	if got := Of(Transport); got != Transport {
		t.Fatalf("Of(Transport) = %q", got)
	}
}

func TestOfWrapped(t *testing.T) {
	err := fmt.Errorf("reading data register: %w", &E{C: Transport, Op: "read", Err: errors.New("i2c: no ack")})
	if got := Of(err); got != Transport {
		t.Fatalf("Of(wrapped E) = %q, want %q", got, Transport)
	}
}

func TestOfUnclassified(t *testing.T) {
	if got := Of(errors.New("boom")); got != Error {
		t.Fatalf("Of(unclassified) = %q, want %q", got, Error)
	}
}

func TestEUnwrap(t *testing.T) {
	cause := errors.New("nak")
	e := &E{C: Transport, Msg: "bus read failed", Err: cause}
	if !errors.Is(e, cause) {
		t.Fatalf("E does not unwrap to its cause")
	}
	if e.Error() != "transport: bus read failed" {
		t.Fatalf("E.Error() = %q", e.Error())
	}
}
