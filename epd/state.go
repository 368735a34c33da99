// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import "fmt"

// State is the state of the update state machine.
type State int

// Valid State.
const (
	Idle State = iota
	PoweringUp
	Sequencing
	PoweringDown
	Faulted
)

var stateNames = [...]string{"idle", "powering up", "sequencing", "powering down", "faulted"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

type event int

const (
	evStart event = iota
	evReady
	evComplete
	evAbort
	evDone
	evFault
	evReset
)

var eventNames = [...]string{"start", "ready", "complete", "abort", "done", "fault", "reset"}

func (e event) String() string {
	return eventNames[e]
}

// transitions is the complete transition table. Pairs missing from it are
// rejected by next.
var transitions = map[State]map[event]State{
	Idle: {
		evStart: PoweringUp,
		evReset: Idle,
		evFault: Faulted,
	},
	PoweringUp: {
		evReady: Sequencing,
		evAbort: PoweringDown,
		evFault: Faulted,
	},
	Sequencing: {
		evComplete: PoweringDown,
		evAbort:    PoweringDown,
		evFault:    Faulted,
	},
	PoweringDown: {
		evDone:  Idle,
		evFault: Faulted,
	},
	Faulted: {
		evReset: Idle,
		evFault: Faulted,
	},
}

func (s State) next(e event) (State, error) {
	if to, ok := transitions[s][e]; ok {
		return to, nil
	}
	return s, fmt.Errorf("epd: no transition from %s on %s", s, e)
}
