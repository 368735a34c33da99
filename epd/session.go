// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import "periph.io/x/conn/v3/physic"

// session is the state of the operation currently owning the panel.
type session struct {
	op              string
	plan            []Step
	stage           Stage
	framesRemaining int
	temperature     physic.Temperature
}

// Status is a snapshot of the driver.
type Status struct {
	State State
	// Active is set while an operation owns the panel. The fields below are
	// only meaningful when Active is set.
	Active bool
	// Op names the running operation.
	Op              string
	Stage           Stage
	FramesRemaining int
	Temperature     physic.Temperature
	Plan            []Step
}

// Status returns a snapshot of the driver state.
func (d *Dev) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status{State: d.state}
	if s := d.session; s != nil {
		st.Active = true
		st.Op = s.op
		st.Stage = s.stage
		st.FramesRemaining = s.framesRemaining
		st.Temperature = s.temperature
		st.Plan = append([]Step(nil), s.plan...)
	}
	return st
}

func (d *Dev) startPlan(t physic.Temperature, plan []Step) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session.temperature = t
	d.session.plan = plan
}

func (d *Dev) startStep(st Step) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session.stage = st.Stage
	d.session.framesRemaining = st.Frames
}

func (d *Dev) frameSent() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session.framesRemaining--
}
