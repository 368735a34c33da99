// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/repaper/epdirect/epd"
	"github.com/repaper/epdirect/frame"
	"github.com/repaper/epdirect/internal/config"
	"github.com/repaper/epdirect/internal/log"
	"github.com/repaper/epdirect/lm75"
	"github.com/repaper/epdirect/screen"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// output is where images go: the panel or the terminal.
type output interface {
	fmt.Stringer
	clear(ctx context.Context) error
	// show displays cur. old is the image currently shown, nil when unknown.
	show(ctx context.Context, old, cur *frame.Buffer, partial bool) error
	halt() error
}

// thermometer is an I²C temperature sensor.
type thermometer interface {
	fmt.Stringer
	Sense(e *physic.Env) error
	Halt() error
}

// panel drives the real hardware.
type panel struct {
	d      *epd.Dev
	port   spi.PortCloser
	bus    i2c.BusCloser
	thermo thermometer
}

func openPanel(cfg *config.Config, p *epd.Profile) (*panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	pins, err := lookupPins(&cfg.Pins)
	if err != nil {
		return nil, err
	}
	port, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, err
	}
	h := &panel{port: port}
	opts := epd.Opts{
		Temperature: epd.Celsius(cfg.Temperature),
		BusyTimeout: cfg.BusyTimeout,
		Speed:       physic.Frequency(cfg.SpeedMHz) * physic.MegaHertz,
	}
	if cfg.Thermometer.Enabled {
		if err := h.openThermometer(&cfg.Thermometer); err != nil {
			// The fixed temperature is still usable.
			log.Error("thermometer unavailable", err, "bus", cfg.Thermometer.Bus)
		} else {
			opts.Thermometer = h.thermo
		}
	}
	if h.d, err = epd.New(port, pins, p, &opts); err != nil {
		h.close()
		return nil, err
	}
	return h, nil
}

func lookupPins(c *config.PinsConfig) (epd.Pins, error) {
	var err error
	byName := func(name string) gpio.PinIO {
		p := gpioreg.ByName(name)
		if p == nil && err == nil {
			err = fmt.Errorf("unknown pin %q", name)
		}
		return p
	}
	pins := epd.Pins{
		PanelOn:   byName(c.PanelOn),
		Border:    byName(c.Border),
		Discharge: byName(c.Discharge),
		Reset:     byName(c.Reset),
		Busy:      byName(c.Busy),
	}
	return pins, err
}

func (h *panel) openThermometer(c *config.ThermometerConfig) error {
	bus, err := i2creg.Open(c.Bus)
	if err != nil {
		return err
	}
	var t thermometer
	switch c.Kind {
	case "lm75":
		t, err = lm75.NewI2C(bus, c.Address, &lm75.DefaultOpts)
	case "bme280", "bmp280":
		t, err = bmxx80.NewI2C(bus, c.Address, &bmxx80.DefaultOpts)
	default:
		err = fmt.Errorf("unknown thermometer %q", c.Kind)
	}
	if err != nil {
		bus.Close()
		return err
	}
	h.bus = bus
	h.thermo = t
	return nil
}

func (h *panel) String() string {
	return h.d.String()
}

func (h *panel) clear(ctx context.Context) error {
	return h.resetIfFaulted(h.d.Clear(ctx))
}

func (h *panel) show(ctx context.Context, old, cur *frame.Buffer, partial bool) error {
	var err error
	switch {
	case old == nil:
		err = h.d.DisplayImage(ctx, cur)
	case partial:
		err = h.d.DisplayPartial(ctx, old, cur)
	default:
		err = h.d.DisplayChange(ctx, old, cur)
	}
	return h.resetIfFaulted(err)
}

// resetIfFaulted resets a panel left Faulted by the update that returned err.
func (h *panel) resetIfFaulted(err error) error {
	if h.d.State() != epd.Faulted {
		return err
	}
	log.Error("panel faulted, resetting", err)
	if rerr := h.d.Reset(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

func (h *panel) halt() error {
	err := h.d.Halt()
	return errors.Join(err, h.close())
}

func (h *panel) close() error {
	var errs []error
	if h.thermo != nil {
		errs = append(errs, h.thermo.Halt())
	}
	if h.bus != nil {
		errs = append(errs, h.bus.Close())
	}
	errs = append(errs, h.port.Close())
	return errors.Join(errs...)
}

// preview draws on the terminal.
type preview struct {
	s *screen.Dev
	w int
	h int
}

func newPreview(w, h int, ascii bool) *preview {
	scale := 1
	if w > 128 {
		scale = 2
	}
	return &preview{s: screen.New(&screen.Opts{Width: w, Height: h, Scale: scale, ASCII: ascii}), w: w, h: h}
}

func (p *preview) String() string {
	return p.s.String()
}

func (p *preview) clear(ctx context.Context) error {
	return p.s.Show(frame.New(p.w, p.h))
}

func (p *preview) show(ctx context.Context, old, cur *frame.Buffer, partial bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.s.Show(cur)
}

func (p *preview) halt() error {
	return p.s.Halt()
}

// readTemperature prints the thermometer reading.
func readTemperature(cfg *config.Config) error {
	if _, err := host.Init(); err != nil {
		return err
	}
	h := &panel{}
	if err := h.openThermometer(&cfg.Thermometer); err != nil {
		return err
	}
	defer func() {
		h.thermo.Halt()
		h.bus.Close()
	}()
	var e physic.Env
	if err := h.thermo.Sense(&e); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", h.thermo, e.Temperature)
	return nil
}
