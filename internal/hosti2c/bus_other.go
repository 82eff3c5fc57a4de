//go:build !linux

// Package hosti2c provides the /dev/i2c-N transport used when the
// drivers run on a Linux host (Raspberry Pi style deployments).
package hosti2c

import (
	"errors"

	"airquality-go/regmap"
)

// ErrUnsupported is returned on platforms without /dev/i2c devices.
var ErrUnsupported = errors.New("hosti2c: i2c devfs is only available on linux")

// Bus is a stub on non-Linux platforms; every transaction fails with
// ErrUnsupported.
type Bus struct {
	dev string
}

var (
	_ regmap.Transport      = (*Bus)(nil)
	_ regmap.PlainTransport = (*Bus)(nil)
)

// Open prepares a bus on the given device path.
func Open(dev string) *Bus { return &Bus{dev: dev} }

func (b *Bus) ReadReg(addr uint16, reg uint8, buf []byte) error { return ErrUnsupported }
func (b *Bus) WriteReg(addr uint16, reg uint8, p []byte) error  { return ErrUnsupported }
func (b *Bus) WritePointer(addr uint16, reg uint8) error        { return ErrUnsupported }
func (b *Bus) ReadPlain(addr uint16, buf []byte) error          { return ErrUnsupported }

// Close releases nothing on the stub.
func (b *Bus) Close() error { return nil }
