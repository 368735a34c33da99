// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import "testing"

func TestTransitions(t *testing.T) {
	all := []event{evStart, evReady, evComplete, evAbort, evDone, evFault, evReset}
	allowed := map[State][]event{
		Idle:         {evStart, evReset, evFault},
		PoweringUp:   {evReady, evAbort, evFault},
		Sequencing:   {evComplete, evAbort, evFault},
		PoweringDown: {evDone, evFault},
		Faulted:      {evReset, evFault},
	}
	for s := Idle; s <= Faulted; s++ {
		ok := map[event]bool{}
		for _, e := range allowed[s] {
			ok[e] = true
		}
		for _, e := range all {
			_, err := s.next(e)
			if (err == nil) != ok[e] {
				t.Errorf("%s on %s: err = %v", s, e, err)
			}
		}
	}
}

func TestUpdateCycle(t *testing.T) {
	s := Idle
	for _, step := range []struct {
		e    event
		want State
	}{
		{evStart, PoweringUp},
		{evReady, Sequencing},
		{evComplete, PoweringDown},
		{evDone, Idle},
		{evStart, PoweringUp},
		{evFault, Faulted},
		{evFault, Faulted},
		{evReset, Idle},
	} {
		next, err := s.next(step.e)
		if err != nil {
			t.Fatal(err)
		}
		if next != step.want {
			t.Fatalf("%s on %s = %s, want %s", s, step.e, next, step.want)
		}
		s = next
	}
}

func TestStateString(t *testing.T) {
	if s := PoweringDown.String(); s != "powering down" {
		t.Errorf("PoweringDown = %q", s)
	}
	if s := State(-1).String(); s != "State(-1)" {
		t.Errorf("State(-1) = %q", s)
	}
}
