// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// COG registers.
const (
	regChannelSelect byte = 0x01
	regOutputEnable  byte = 0x02
	regLatch         byte = 0x03
	regPowerSetting  byte = 0x04
	regChargePump    byte = 0x05
	regOscillator    byte = 0x07
	regPowerControl  byte = 0x08
	regVcomLevel     byte = 0x09
	regData          byte = 0x0a
	regPowerSaving   byte = 0x0b
	regStatus        byte = 0x0f
)

// SPI header bytes of the COG protocol.
const (
	headerIndex byte = 0x70
	headerID    byte = 0x71
	headerWrite byte = 0x72
	headerRead  byte = 0x73
)

// Bits of regStatus.
const (
	statusPanelOK byte = 0x80
	statusDCOK    byte = 0x40
)

// outputLatch moves the line written to regData to the panel.
const outputLatch byte = 0x07

// pin names a control line of the panel.
type pin int

const (
	pinPanelOn pin = iota
	pinBorder
	pinDischarge
	pinReset
	numPins
)

var pinNames = [numPins]string{"PANEL_ON", "BORDER", "DISCHARGE", "RESET"}

func (p pin) String() string {
	return pinNames[p]
}

// controller is the hardware access used by the sequences.
//
// Errors are sticky: once a call fails, the following calls are no-ops and
// err returns the first failure until clearErr.
type controller interface {
	command(reg byte, data ...byte)
	read(reg byte) byte
	cogID() byte
	pinOut(p pin, l gpio.Level)
	waitUntilIdle()
	sleep(d time.Duration)
	err() error
	clearErr()
}
