// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// powerSequencer switches the COG supplies in order.
//
// up and down are no-ops when the panel is already in the requested state.
type powerSequencer struct {
	ctrl controller
	p    *Profile
	on   bool
}

func (ps *powerSequencer) up() error {
	if ps.on {
		return nil
	}
	c, t := ps.ctrl, &ps.p.Power
	c.clearErr()

	c.pinOut(pinPanelOn, gpio.Low)
	c.pinOut(pinBorder, gpio.Low)
	c.pinOut(pinDischarge, gpio.Low)
	c.pinOut(pinReset, gpio.Low)
	c.sleep(t.Settle)
	c.pinOut(pinPanelOn, gpio.High)
	c.sleep(t.PanelOn)
	// The supplies are live from here on: a failure must power down.
	ps.on = true

	c.pinOut(pinReset, gpio.High)
	c.pinOut(pinBorder, gpio.High)
	c.sleep(t.Settle)
	c.pinOut(pinReset, gpio.Low)
	c.sleep(t.Settle)
	c.pinOut(pinReset, gpio.High)
	c.sleep(t.Settle)
	c.waitUntilIdle()

	id := c.cogID()
	if err := c.err(); err != nil {
		return err
	}
	if id&0x0f != ps.p.COG {
		return &Error{Op: "power up", Code: UnsupportedCOG, Err: fmt.Errorf("COG id %#02x, want %#02x", id, ps.p.COG)}
	}

	// Disable the output while configuring.
	c.command(regOutputEnable, 0x40)
	status := c.read(regStatus)
	if err := c.err(); err != nil {
		return err
	}
	if status&statusPanelOK == 0 {
		return &Error{Op: "power up", Code: PanelBroken, Err: fmt.Errorf("status %#02x", status)}
	}

	c.command(regPowerSaving, 0x02)
	c.command(regChannelSelect, ps.p.ChannelSelect...)
	c.command(regOscillator, 0xd1)
	c.command(regPowerControl, 0x02)
	c.command(regVcomLevel, 0xc2)
	c.command(regPowerSetting, 0x03)
	c.command(regLatch, 0x01)
	c.command(regLatch, 0x00)
	c.sleep(t.Settle)

	for i := 0; i < t.ChargePumpAttempts; i++ {
		c.command(regChargePump, 0x01)
		c.sleep(t.PositivePump)
		c.command(regChargePump, 0x03)
		c.sleep(t.NegativePump)
		c.command(regChargePump, 0x0f)
		c.sleep(t.Vcom)
		status = c.read(regStatus)
		if err := c.err(); err != nil {
			return err
		}
		if status&statusDCOK != 0 {
			return nil
		}
	}
	return &Error{Op: "power up", Code: PowerFault, Err: fmt.Errorf("DC/DC not ready after %d attempts", t.ChargePumpAttempts)}
}

// down runs the power off sequence, the reverse of up.
func (ps *powerSequencer) down() error {
	if !ps.on {
		return nil
	}
	ps.ctrl.clearErr()
	ps.supplyOff()
	ps.pinsOff()
	if err := ps.ctrl.err(); err != nil {
		return err
	}
	ps.on = false
	return nil
}

// force brings the panel to the unpowered state whatever the bus does.
//
// Register writes are best effort; the control lines are always driven and
// the first line failure is returned.
func (ps *powerSequencer) force() error {
	c := ps.ctrl
	if ps.on {
		c.clearErr()
		ps.supplyOff()
	}
	ps.on = false
	c.clearErr()
	var first error
	step := func(f func()) {
		f()
		if err := c.err(); err != nil && first == nil {
			first = err
		}
		c.clearErr()
	}
	t := &ps.p.Power
	step(func() { c.pinOut(pinReset, gpio.Low) })
	step(func() { c.pinOut(pinPanelOn, gpio.Low) })
	step(func() { c.pinOut(pinBorder, gpio.Low) })
	step(func() { c.pinOut(pinDischarge, gpio.High) })
	step(func() { c.sleep(t.DischargePulse) })
	step(func() { c.pinOut(pinDischarge, gpio.Low) })
	return first
}

func (ps *powerSequencer) supplyOff() {
	c, t := ps.ctrl, &ps.p.Power
	c.command(regLatch, 0x01)
	c.command(regOutputEnable, 0x05)
	c.command(regChargePump, 0x0e)
	c.command(regChargePump, 0x02)
	c.command(regPowerSetting, 0x0c)
	c.sleep(t.Discharge)
	c.command(regChargePump, 0x00)
	c.command(regOscillator, 0x0d)
	c.command(regPowerSetting, 0x50)
	c.sleep(t.InternalDischarge)
	c.command(regPowerSetting, 0xa0)
	c.sleep(t.InternalDischarge)
	c.command(regPowerSetting, 0x00)
}

func (ps *powerSequencer) pinsOff() {
	c, t := ps.ctrl, &ps.p.Power
	c.pinOut(pinReset, gpio.Low)
	c.pinOut(pinPanelOn, gpio.Low)
	c.pinOut(pinBorder, gpio.Low)
	c.pinOut(pinDischarge, gpio.High)
	c.sleep(t.DischargePulse)
	c.pinOut(pinDischarge, gpio.Low)
}
