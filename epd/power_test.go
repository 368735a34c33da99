// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/gpio"
)

func cmdRec(reg byte, data ...byte) record {
	return record{op: opCommand, reg: reg, data: data}
}

func TestPowerUp(t *testing.T) {
	p := testProfile()
	tm := &p.Power
	want := []record{
		pinRec(pinPanelOn, gpio.Low),
		pinRec(pinBorder, gpio.Low),
		pinRec(pinDischarge, gpio.Low),
		pinRec(pinReset, gpio.Low),
		{op: opSleep, d: tm.Settle},
		pinRec(pinPanelOn, gpio.High),
		{op: opSleep, d: tm.PanelOn},
		pinRec(pinReset, gpio.High),
		pinRec(pinBorder, gpio.High),
		{op: opSleep, d: tm.Settle},
		pinRec(pinReset, gpio.Low),
		{op: opSleep, d: tm.Settle},
		pinRec(pinReset, gpio.High),
		{op: opSleep, d: tm.Settle},
		{op: opWait},
		{op: opID},
		cmdRec(regOutputEnable, 0x40),
		{op: opRead, reg: regStatus},
		cmdRec(regPowerSaving, 0x02),
		cmdRec(regChannelSelect, 0x00, 0x0f),
		cmdRec(regOscillator, 0xd1),
		cmdRec(regPowerControl, 0x02),
		cmdRec(regVcomLevel, 0xc2),
		cmdRec(regPowerSetting, 0x03),
		cmdRec(regLatch, 0x01),
		cmdRec(regLatch, 0x00),
		{op: opSleep, d: tm.Settle},
		cmdRec(regChargePump, 0x01),
		{op: opSleep, d: tm.PositivePump},
		cmdRec(regChargePump, 0x03),
		{op: opSleep, d: tm.NegativePump},
		cmdRec(regChargePump, 0x0f),
		{op: opSleep, d: tm.Vcom},
		{op: opRead, reg: regStatus},
	}
	f := newFakeController()
	ps := powerSequencer{ctrl: f, p: p}
	if err := ps.up(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.records, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("up() difference (-got +want):\n%s", diff)
	}
	if !ps.on {
		t.Error("panel not marked as powered")
	}
	f.records = nil
	if err := ps.up(); err != nil || len(f.records) != 0 {
		t.Errorf("second up() = %v with %d operations", err, len(f.records))
	}
}

func TestPowerUpFailures(t *testing.T) {
	for _, tc := range []struct {
		name   string
		id     byte
		status byte
		want   Code
	}{
		{"COG", 0x11, statusPanelOK | statusDCOK, UnsupportedCOG},
		{"broken", 0x12, statusDCOK, PanelBroken},
		{"DC/DC", 0x12, statusPanelOK, PowerFault},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeController{id: tc.id, status: tc.status}
			ps := powerSequencer{ctrl: f, p: testProfile()}
			err := ps.up()
			if got := CodeOf(err); got != tc.want {
				t.Fatalf("up() = %v, want %s", err, tc.want)
			}
			if !ps.on {
				t.Fatal("panel must stay marked as powered so the caller forces it down")
			}
		})
	}
}

func TestPowerUpChargePumpAttempts(t *testing.T) {
	p := testProfile()
	p.Power.ChargePumpAttempts = 3
	f := &fakeController{id: 0x12, status: statusPanelOK}
	ps := powerSequencer{ctrl: f, p: p}
	if err := ps.up(); CodeOf(err) != PowerFault {
		t.Fatalf("up() = %v", err)
	}
	vcom := 0
	for _, d := range f.commands(regChargePump) {
		if d[0] == 0x0f {
			vcom++
		}
	}
	if vcom != 3 {
		t.Fatalf("%d charge pump cycles, want 3", vcom)
	}
}

func TestPowerUpBusError(t *testing.T) {
	f := newFakeController()
	f.fail = func(r record) error {
		if r.op == opID {
			return errors.New("spi broke")
		}
		return nil
	}
	ps := powerSequencer{ctrl: f, p: testProfile()}
	if err := ps.up(); err == nil || err.Error() != "spi broke" {
		t.Fatalf("up() = %v", err)
	}
}

func TestPowerDown(t *testing.T) {
	p := testProfile()
	tm := &p.Power
	f := newFakeController()
	ps := powerSequencer{ctrl: f, p: p}
	if err := ps.down(); err != nil || len(f.records) != 0 {
		t.Fatalf("down() on an unpowered panel = %v with %d operations", err, len(f.records))
	}
	if err := ps.up(); err != nil {
		t.Fatal(err)
	}
	f.records = nil
	if err := ps.down(); err != nil {
		t.Fatal(err)
	}
	want := []record{
		cmdRec(regLatch, 0x01),
		cmdRec(regOutputEnable, 0x05),
		cmdRec(regChargePump, 0x0e),
		cmdRec(regChargePump, 0x02),
		cmdRec(regPowerSetting, 0x0c),
		{op: opSleep, d: tm.Discharge},
		cmdRec(regChargePump, 0x00),
		cmdRec(regOscillator, 0x0d),
		cmdRec(regPowerSetting, 0x50),
		{op: opSleep, d: tm.InternalDischarge},
		cmdRec(regPowerSetting, 0xa0),
		{op: opSleep, d: tm.InternalDischarge},
		cmdRec(regPowerSetting, 0x00),
		pinRec(pinReset, gpio.Low),
		pinRec(pinPanelOn, gpio.Low),
		pinRec(pinBorder, gpio.Low),
		pinRec(pinDischarge, gpio.High),
		{op: opSleep, d: tm.DischargePulse},
		pinRec(pinDischarge, gpio.Low),
	}
	if diff := cmp.Diff(f.records, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("down() difference (-got +want):\n%s", diff)
	}
	if ps.on {
		t.Error("panel still marked as powered")
	}
}

var forcedPins = []record{
	pinRec(pinReset, gpio.Low),
	pinRec(pinPanelOn, gpio.Low),
	pinRec(pinBorder, gpio.Low),
	pinRec(pinDischarge, gpio.High),
	pinRec(pinDischarge, gpio.Low),
}

func TestForce(t *testing.T) {
	f := newFakeController()
	ps := powerSequencer{ctrl: f, p: testProfile()}
	if err := ps.up(); err != nil {
		t.Fatal(err)
	}
	f.records = nil
	f.fail = func(r record) error {
		if r.op == opCommand {
			return errors.New("bus stuck")
		}
		return nil
	}
	if err := ps.force(); err != nil {
		t.Fatalf("force() = %v", err)
	}
	if diff := cmp.Diff(f.pins(), forcedPins, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("force() difference (-got +want):\n%s", diff)
	}
	if ps.on {
		t.Error("panel still marked as powered")
	}
}

func TestForcePinFailure(t *testing.T) {
	f := newFakeController()
	f.fail = func(r record) error {
		if r.op == opPin && r.pin == pinBorder {
			return errors.New("BORDER: gone")
		}
		return nil
	}
	ps := powerSequencer{ctrl: f, p: testProfile()}
	if err := ps.force(); err == nil || err.Error() != "BORDER: gone" {
		t.Fatalf("force() = %v", err)
	}
	want := []record{
		pinRec(pinReset, gpio.Low),
		pinRec(pinPanelOn, gpio.Low),
		pinRec(pinDischarge, gpio.High),
		pinRec(pinDischarge, gpio.Low),
	}
	if diff := cmp.Diff(f.pins(), want, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("force() difference (-got +want):\n%s", diff)
	}
}
