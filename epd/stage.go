// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Stage is one phase of a refresh.
//
//	Stage       black pixel  white pixel  image
//	Compensate  white        black        current
//	White       nothing      white        current
//	Inverse     nothing      black        new
//	Normal      black        white        new
type Stage int

// Valid Stage.
const (
	Compensate Stage = iota
	White
	Inverse
	Normal
)

var stageNames = [...]string{"compensate", "white", "inverse", "normal"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Mode selects the images used by a refresh.
type Mode int

// Valid Mode.
const (
	// ModeClear drives the whole panel black then white.
	ModeClear Mode = iota
	// ModeImage draws a new image assuming the panel is white.
	ModeImage
	// ModeChange replaces the current image with a new one.
	ModeChange
	// ModePartial replaces the current image, only driving changed pixels.
	ModePartial
)

var modeNames = [...]string{"clear", "image", "change", "partial"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Source is where a step takes its pixels from.
type Source int

// Valid Source.
const (
	SourceFixed Source = iota
	SourceOld
	SourceNew
)

// Encoded line bytes, four pixels each.
const (
	fixedBlack   byte = 0xff
	fixedWhite   byte = 0xaa
	fixedNothing byte = 0x55
)

// Step is one stage of a planned refresh.
type Step struct {
	Stage  Stage
	Frames int
	Source Source
	// Fixed is the encoded byte sent for every pixel byte of a SourceFixed step.
	Fixed byte
	// Masked steps only drive the pixels that differ between both images.
	Masked bool
}

// Plan returns the ordered steps of a refresh in mode m at temperature t.
//
// Stages whose compensated frame count is zero are left out. The result only
// depends on its arguments.
func Plan(p *Profile, m Mode, t physic.Temperature) []Step {
	steps := make([]Step, 0, len(p.Waveform))
	for _, sf := range p.Waveform {
		n := p.Compensation.Frames(sf.Frames, t)
		if n == 0 {
			continue
		}
		st := Step{Stage: sf.Stage, Frames: n, Masked: m == ModePartial}
		current := sf.Stage == Compensate || sf.Stage == White
		switch {
		case m == ModeClear && current:
			st.Source, st.Fixed = SourceFixed, fixedBlack
		case m == ModeClear:
			st.Source, st.Fixed = SourceFixed, fixedWhite
		case m == ModeImage && current:
			st.Source, st.Fixed = SourceFixed, fixedBlack
		case current:
			st.Source = SourceOld
		default:
			st.Source = SourceNew
		}
		steps = append(steps, st)
	}
	return steps
}

// totalFrames returns the number of frames sent by steps.
func totalFrames(steps []Step) int {
	n := 0
	for _, s := range steps {
		n += s.Frames
	}
	return n
}
