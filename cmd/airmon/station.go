package main

import (
	"fmt"
	"log"

	"airquality-go/config"
	"airquality-go/drivers/bmp280"
	"airquality-go/drivers/ccs811"
	"airquality-go/drivers/hdc1080"
	"airquality-go/drivers/pms7003"
	"airquality-go/drivers/s8"
	"airquality-go/internal/hosti2c"
	"airquality-go/regmap"
)

// station holds the opened sensors of one run. Disabled sensors stay nil.
type station struct {
	cfg config.Config

	bus *hosti2c.Bus
	bmp *bmp280.Device
	ccs *ccs811.Device
	hdc *hdc1080.Device
	pms *pms7003.Device
	co2 *s8.Device

	closers []func() error
}

// openStation builds every enabled sensor. A sensor that fails its
// construction sequence fails the whole run: a station with a
// misdescribed bus is not worth sampling.
func openStation(cfg config.Config) (*station, error) {
	s := &station{cfg: cfg}

	var tr regmap.Transport
	if cfg.NeedsI2C() {
		s.bus = hosti2c.Open(cfg.I2CDevice)
		s.closers = append(s.closers, s.bus.Close)
		tr = s.bus
	}

	if cfg.BMP280.Enabled {
		bc := bmp280.DefaultConfig()
		bc.Address = cfg.BMP280.Address
		if cfg.BMP280.TemperatureOversampling != 0 {
			bc.TemperatureOversampling = cfg.BMP280.TemperatureOversampling
		}
		if cfg.BMP280.PressureOversampling != 0 {
			bc.PressureOversampling = cfg.BMP280.PressureOversampling
		}
		if cfg.BMP280.FilterCoefficient != 0 {
			bc.FilterCoefficient = cfg.BMP280.FilterCoefficient
		}
		d, err := bmp280.New(tr, bc)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("bmp280: %w", err)
		}
		s.bmp = d
	}

	if cfg.CCS811.Enabled {
		d, err := ccs811.New(tr, ccs811.Config{
			Address:   cfg.CCS811.Address,
			DriveMode: cfg.CCS811.DriveMode,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("ccs811: %w", err)
		}
		s.ccs = d
	}

	if cfg.HDC1080.Enabled {
		d, err := hdc1080.New(s.bus, hdc1080.Config{
			Heater:                cfg.HDC1080.Heater,
			TemperatureResolution: cfg.HDC1080.TemperatureResolution,
			HumidityResolution:    cfg.HDC1080.HumidityResolution,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("hdc1080: %w", err)
		}
		s.hdc = d
	}

	if cfg.PMS7003.Enabled {
		port, err := pms7003.Open(cfg.PMS7003.Port)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("pms7003: open %s: %w", cfg.PMS7003.Port, err)
		}
		s.closers = append(s.closers, port.Close)
		d, err := pms7003.New(port, pms7003.Config{})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("pms7003: %w", err)
		}
		s.pms = d
	}

	if cfg.S8.Enabled {
		port, err := s8.Open(cfg.S8.Port)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("s8: open %s: %w", cfg.S8.Port, err)
		}
		s.closers = append(s.closers, port.Close)
		s.co2 = s8.New(port, s8.Config{})
	}

	return s, nil
}

// Close releases ports and buses in reverse open order.
func (s *station) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	s.closers = nil
}
