//go:build linux

// Package hosti2c provides the /dev/i2c-N transport used when the
// drivers run on a Linux host (Raspberry Pi style deployments).
package hosti2c

import (
	"sync"

	"golang.org/x/exp/io/i2c"

	"airquality-go/regmap"
)

// Bus is one /dev/i2c-N device shared by every sensor on it. Device
// handles are opened lazily per address and a bus-wide lock serializes
// transactions, so drivers on different addresses can share a Bus.
type Bus struct {
	dev string

	mu      sync.Mutex
	handles map[uint16]*i2c.Device
}

var (
	_ regmap.Transport      = (*Bus)(nil)
	_ regmap.PlainTransport = (*Bus)(nil)
)

// Open prepares a bus on the given device path. The device file is not
// touched until the first transaction.
func Open(dev string) *Bus {
	return &Bus{dev: dev, handles: make(map[uint16]*i2c.Device)}
}

// handle returns the per-address device, opening it on first use.
// Callers hold b.mu.
func (b *Bus) handle(addr uint16) (*i2c.Device, error) {
	if h, ok := b.handles[addr]; ok {
		return h, nil
	}
	h, err := i2c.Open(&i2c.Devfs{Dev: b.dev}, int(addr))
	if err != nil {
		return nil, err
	}
	b.handles[addr] = h
	return h, nil
}

func (b *Bus) ReadReg(addr uint16, reg uint8, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, err := b.handle(addr)
	if err != nil {
		return err
	}
	return h.ReadReg(reg, buf)
}

func (b *Bus) WriteReg(addr uint16, reg uint8, p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, err := b.handle(addr)
	if err != nil {
		return err
	}
	return h.WriteReg(reg, p)
}

func (b *Bus) WritePointer(addr uint16, reg uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, err := b.handle(addr)
	if err != nil {
		return err
	}
	return h.Write([]byte{reg})
}

func (b *Bus) ReadPlain(addr uint16, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, err := b.handle(addr)
	if err != nil {
		return err
	}
	return h.Read(buf)
}

// Close releases every open device handle.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var first error
	for addr, h := range b.handles {
		if err := h.Close(); err != nil && first == nil {
			first = err
		}
		delete(b.handles, addr)
	}
	return first
}
