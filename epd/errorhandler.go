// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// errorHandler is the controller backed by a SPI connection and GPIO lines.
type errorHandler struct {
	c    conn.Conn
	pins [numPins]gpio.PinOut
	busy gpio.PinIn

	busyTimeout time.Duration
	pollPeriod  time.Duration
	now         func() time.Time
	delay       func(time.Duration)

	e error
}

func (eh *errorHandler) err() error {
	return eh.e
}

func (eh *errorHandler) clearErr() {
	eh.e = nil
}

func (eh *errorHandler) cTx(w []byte, r []byte) {
	if eh.e != nil {
		return
	}
	eh.e = eh.c.Tx(w, r)
}

func (eh *errorHandler) command(reg byte, data ...byte) {
	eh.cTx([]byte{headerIndex, reg}, nil)
	w := make([]byte, 0, len(data)+1)
	w = append(w, headerWrite)
	eh.cTx(append(w, data...), nil)
}

func (eh *errorHandler) read(reg byte) byte {
	eh.cTx([]byte{headerIndex, reg}, nil)
	r := make([]byte, 2)
	eh.cTx([]byte{headerRead, 0x00}, r)
	return r[1]
}

func (eh *errorHandler) cogID() byte {
	r := make([]byte, 2)
	eh.cTx([]byte{headerID, 0x00}, r)
	return r[1]
}

func (eh *errorHandler) pinOut(p pin, l gpio.Level) {
	if eh.e != nil {
		return
	}
	if err := eh.pins[p].Out(l); err != nil {
		eh.e = fmt.Errorf("%s: %w", p, err)
	}
}

// waitUntilIdle polls BUSY until it is low or busyTimeout elapsed.
func (eh *errorHandler) waitUntilIdle() {
	if eh.e != nil {
		return
	}
	deadline := eh.now().Add(eh.busyTimeout)
	for eh.busy.Read() == gpio.High {
		if eh.now().After(deadline) {
			eh.e = &Error{Op: "wait busy", Code: BusTimeout, Err: fmt.Errorf("BUSY still high after %s", eh.busyTimeout)}
			return
		}
		eh.delay(eh.pollPeriod)
	}
}

func (eh *errorHandler) sleep(d time.Duration) {
	if eh.e != nil {
		return
	}
	eh.delay(d)
}
