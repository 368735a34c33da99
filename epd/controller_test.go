// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

type opKind int

const (
	opCommand opKind = iota
	opRead
	opID
	opPin
	opWait
	opSleep
)

type record struct {
	op    opKind
	reg   byte
	data  []byte
	pin   pin
	level gpio.Level
	d     time.Duration
}

// fakeController records the calls made by the sequences.
//
// Register reads return status; cogID returns id. fail, when set, is called
// before each operation is recorded and a non-nil return makes the call fail.
// hook is called after each recorded operation.
type fakeController struct {
	records []record
	id      byte
	status  byte
	fail    func(r record) error
	hook    func(r record)
	e       error
}

// newFakeController returns a controller of a healthy G2 COG.
func newFakeController() *fakeController {
	return &fakeController{id: 0x12, status: statusPanelOK | statusDCOK}
}

func (f *fakeController) do(r record) bool {
	if f.e != nil {
		return false
	}
	if f.fail != nil {
		if err := f.fail(r); err != nil {
			f.e = err
			return false
		}
	}
	f.records = append(f.records, r)
	if f.hook != nil {
		f.hook(r)
	}
	return true
}

func (f *fakeController) command(reg byte, data ...byte) {
	f.do(record{op: opCommand, reg: reg, data: append([]byte(nil), data...)})
}

func (f *fakeController) read(reg byte) byte {
	if !f.do(record{op: opRead, reg: reg}) {
		return 0
	}
	return f.status
}

func (f *fakeController) cogID() byte {
	if !f.do(record{op: opID}) {
		return 0
	}
	return f.id
}

func (f *fakeController) pinOut(p pin, l gpio.Level) {
	f.do(record{op: opPin, pin: p, level: l})
}

func (f *fakeController) waitUntilIdle() {
	f.do(record{op: opWait})
}

func (f *fakeController) sleep(d time.Duration) {
	f.do(record{op: opSleep, d: d})
}

func (f *fakeController) err() error {
	return f.e
}

func (f *fakeController) clearErr() {
	f.e = nil
}

// commands returns the data of the recorded writes to reg.
func (f *fakeController) commands(reg byte) [][]byte {
	var out [][]byte
	for _, r := range f.records {
		if r.op == opCommand && r.reg == reg {
			out = append(out, r.data)
		}
	}
	return out
}

// pins returns the recorded control line changes.
func (f *fakeController) pins() []record {
	var out []record
	for _, r := range f.records {
		if r.op == opPin {
			out = append(out, record{op: opPin, pin: r.pin, level: r.level})
		}
	}
	return out
}

func pinRec(p pin, l gpio.Level) record {
	return record{op: opPin, pin: p, level: l}
}
