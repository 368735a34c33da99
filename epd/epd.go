// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	"github.com/repaper/epdirect/frame"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3/rpi"
)

// Pins are the control lines of the panel.
type Pins struct {
	PanelOn   gpio.PinOut
	Border    gpio.PinOut
	Discharge gpio.PinOut
	Reset     gpio.PinOut
	Busy      gpio.PinIn
}

// Thermometer reads the ambient temperature.
//
// Every physic.SenseEnv implements it, e.g. lm75.Dev.
type Thermometer interface {
	Sense(env *physic.Env) error
}

// Opts holds the driver options. The zero value is valid.
type Opts struct {
	// Thermometer is read at the start of each update. When nil the value set
	// with SetTemperature is used.
	Thermometer Thermometer
	// Temperature is the initial fixed temperature. Zero means 25°C.
	Temperature physic.Temperature
	// BusyTimeout bounds the wait on the BUSY line. Zero means one second.
	BusyTimeout time.Duration
	// Speed is the SPI clock. Zero means 8MHz.
	Speed physic.Frequency
}

// DefaultTemperature is the temperature used when none is provided.
var DefaultTemperature = Celsius(25)

const (
	defaultBusyTimeout = time.Second
	defaultSpeed       = 8 * physic.MegaHertz
	busyPollPeriod     = time.Millisecond
)

// Dev drives a COG G2 panel.
//
// All methods are safe for concurrent use; a single update runs at a time.
type Dev struct {
	ctrl    controller
	name    string
	profile *Profile
	thermo  Thermometer
	power   powerSequencer
	line    []byte
	abort   atomic.Bool

	mu          sync.Mutex
	state       State
	session     *session
	temperature physic.Temperature
	last        *frame.Buffer
}

// New returns a driver for the panel described by profile.
//
// The profile is validated and copied. The panel is not touched until the
// first update.
func New(p spi.Port, pins Pins, profile *Profile, opts *Opts) (*Dev, error) {
	if profile == nil {
		return nil, &Error{Op: "new", Code: InvalidProfile, Err: errors.New("nil profile")}
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if pins.PanelOn == nil || pins.Border == nil || pins.Discharge == nil || pins.Reset == nil || pins.Busy == nil {
		return nil, errors.New("epd: every control pin is required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	speed := opts.Speed
	if speed == 0 {
		speed = defaultSpeed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("epd: %w", err)
	}
	if err := pins.Busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("epd: BUSY: %w", err)
	}
	timeout := opts.BusyTimeout
	if timeout == 0 {
		timeout = defaultBusyTimeout
	}
	eh := &errorHandler{
		c:           c,
		pins:        [numPins]gpio.PinOut{pinPanelOn: pins.PanelOn, pinBorder: pins.Border, pinDischarge: pins.Discharge, pinReset: pins.Reset},
		busy:        pins.Busy,
		busyTimeout: timeout,
		pollPeriod:  busyPollPeriod,
		now:         time.Now,
		delay:       time.Sleep,
	}
	d := newDev(eh, profile, opts)
	d.name = fmt.Sprintf("epd.Dev{%s, %s}", c, d.profile.Name)
	return d, nil
}

// NewBoard returns a driver wired as on the repaper.org Raspberry Pi
// extension board.
func NewBoard(p spi.Port, profile *Profile, opts *Opts) (*Dev, error) {
	pins := Pins{
		PanelOn:   rpi.P1_16,
		Border:    rpi.P1_8,
		Discharge: rpi.P1_10,
		Reset:     rpi.P1_22,
		Busy:      rpi.P1_18,
	}
	return New(p, pins, profile, opts)
}

func newDev(ctrl controller, profile *Profile, opts *Opts) *Dev {
	p := profile.Clone()
	d := &Dev{
		ctrl:        ctrl,
		name:        "epd.Dev{" + p.Name + "}",
		profile:     p,
		thermo:      opts.Thermometer,
		power:       powerSequencer{ctrl: ctrl, p: p},
		line:        make([]byte, 0, p.LineSize()),
		temperature: opts.Temperature,
	}
	if d.temperature == 0 {
		d.temperature = DefaultTemperature
	}
	return d
}

// Clear drives every pixel to white.
func (d *Dev) Clear(ctx context.Context) error {
	return d.update(ctx, "clear", ModeClear, nil, nil)
}

// DisplayImage draws img on a panel that is known to be white.
func (d *Dev) DisplayImage(ctx context.Context, img *frame.Buffer) error {
	return d.update(ctx, "display image", ModeImage, nil, img)
}

// DisplayChange replaces old, the image currently shown, with img.
func (d *Dev) DisplayChange(ctx context.Context, old, img *frame.Buffer) error {
	return d.update(ctx, "display change", ModeChange, old, img)
}

// DisplayPartial replaces old with img, driving only the pixels that differ.
func (d *Dev) DisplayPartial(ctx context.Context, old, img *frame.Buffer) error {
	return d.update(ctx, "display partial", ModePartial, old, img)
}

// Sleep powers the panel down if it is powered.
func (d *Dev) Sleep() error {
	if err := d.claim("sleep", false); err != nil {
		return err
	}
	defer d.release()
	if err := d.power.down(); err != nil {
		return d.fault("sleep", err)
	}
	return nil
}

// Reset forces the panel off and returns the driver to Idle.
//
// It is the only operation accepted in the Faulted state.
func (d *Dev) Reset() error {
	if err := d.claim("reset", true); err != nil {
		return err
	}
	defer d.release()
	err := d.power.force()
	d.mu.Lock()
	d.last = nil
	d.mu.Unlock()
	d.transition(evReset)
	return classify("reset", err)
}

// Abort requests the running update to stop at the next stage boundary.
//
// The update still ends the frame and powers the panel down, then returns an
// Aborted error. Abort is a no-op when no update runs.
func (d *Dev) Abort() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		d.abort.Store(true)
	}
}

// SetTemperature sets the temperature used when no Thermometer is configured.
func (d *Dev) SetTemperature(t physic.Temperature) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.temperature = t
}

// State returns the current state.
func (d *Dev) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Profile returns a copy of the panel profile.
func (d *Dev) Profile() *Profile {
	return d.profile.Clone()
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return d.name
}

// Halt implements conn.Resource. It powers the panel down.
func (d *Dev) Halt() error {
	return d.Sleep()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.profile.Bounds()
}

// Draw implements display.Drawer.
//
// The area outside r is white. The first Draw assumes a white panel, later
// ones change from the previously displayed image.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	next := frame.New(d.profile.Width, d.profile.Height)
	draw.Draw(next, r.Intersect(next.Bounds()), src, sp, draw.Src)
	d.mu.Lock()
	last := d.last
	d.mu.Unlock()
	if last == nil {
		return d.DisplayImage(context.Background(), next)
	}
	return d.DisplayChange(context.Background(), last, next)
}

func (d *Dev) update(ctx context.Context, op string, m Mode, old, cur *frame.Buffer) error {
	if err := d.checkImages(op, m, old, cur); err != nil {
		return err
	}
	if err := d.claim(op, false); err != nil {
		return err
	}
	defer d.release()
	t, err := d.readTemperature()
	if err != nil {
		return &Error{Op: op, Code: BusFault, Err: fmt.Errorf("temperature: %w", err)}
	}
	plan := Plan(d.profile, m, t)
	d.startPlan(t, plan)
	if err := d.run(ctx, op, plan, old, cur); err != nil {
		return err
	}
	shown := frame.New(d.profile.Width, d.profile.Height)
	if cur != nil {
		shown = cur.Clone()
	}
	d.mu.Lock()
	d.last = shown
	d.mu.Unlock()
	return nil
}

// run powers the panel up, sends every step of plan and powers it down.
func (d *Dev) run(ctx context.Context, op string, plan []Step, old, cur *frame.Buffer) error {
	d.transition(evStart)
	if err := d.power.up(); err != nil {
		return d.fault(op, err)
	}
	aborted := d.aborting(ctx)
	if !aborted {
		d.transition(evReady)
		for _, st := range plan {
			if aborted = d.aborting(ctx); aborted {
				break
			}
			d.startStep(st)
			img, mask := images(st, old, cur)
			for f := 0; f < st.Frames; f++ {
				if err := sendFrame(d.ctrl, d.profile, d.line, st, img, mask); err != nil {
					return d.fault(op, err)
				}
				d.frameSent()
			}
		}
		if err := sendEnd(d.ctrl, d.profile, d.line); err != nil {
			return d.fault(op, err)
		}
	}
	if aborted {
		d.transition(evAbort)
	} else {
		d.transition(evComplete)
	}
	if err := d.power.down(); err != nil {
		return d.fault(op, err)
	}
	d.transition(evDone)
	if aborted {
		// The panel was partly driven.
		d.mu.Lock()
		d.last = nil
		d.mu.Unlock()
		cause := ctx.Err()
		if cause == nil {
			cause = errors.New("abort requested")
		}
		return &Error{Op: op, Code: Aborted, Err: cause}
	}
	return nil
}

// fault forces the panel off and leaves the driver Faulted.
func (d *Dev) fault(op string, err error) error {
	d.transition(evFault)
	ferr := d.power.force()
	d.mu.Lock()
	d.last = nil
	d.mu.Unlock()
	err = classify(op, err)
	if ferr != nil {
		return errors.Join(err, fmt.Errorf("epd: forced power down: %w", ferr))
	}
	return err
}

func (d *Dev) aborting(ctx context.Context) bool {
	return d.abort.Load() || ctx.Err() != nil
}

// claim makes op the owner of the panel.
func (d *Dev) claim(op string, whenFaulted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		return &Error{Op: op, Code: ConcurrentUpdate, Err: fmt.Errorf("%s in progress", d.session.op)}
	}
	if d.state == Faulted && !whenFaulted {
		return &Error{Op: op, Code: ResetRequired, Err: errors.New("reset required")}
	}
	d.session = &session{op: op}
	d.abort.Store(false)
	return nil
}

func (d *Dev) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session = nil
	d.abort.Store(false)
}

func (d *Dev) transition(e event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.state.next(e)
	if err != nil {
		panic(err)
	}
	d.state = s
}

func (d *Dev) readTemperature() (physic.Temperature, error) {
	if d.thermo == nil {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.temperature, nil
	}
	var e physic.Env
	if err := d.thermo.Sense(&e); err != nil {
		return 0, err
	}
	return e.Temperature, nil
}

func (d *Dev) checkImages(op string, m Mode, old, cur *frame.Buffer) error {
	check := func(name string, b *frame.Buffer) error {
		if b == nil {
			return &Error{Op: op, Code: InvalidImage, Err: fmt.Errorf("missing %s image", name)}
		}
		if b.Width != d.profile.Width || b.Height != d.profile.Height {
			return &Error{Op: op, Code: InvalidImage, Err: fmt.Errorf("%s image is %dx%d, panel is %dx%d", name, b.Width, b.Height, d.profile.Width, d.profile.Height)}
		}
		return nil
	}
	switch m {
	case ModeImage:
		return check("new", cur)
	case ModeChange, ModePartial:
		if err := check("old", old); err != nil {
			return err
		}
		return check("new", cur)
	}
	return nil
}

var _ display.Drawer = &Dev{}
