// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"github.com/repaper/epdirect/frame"
	"periph.io/x/conn/v3/gpio"
)

func sendLine(ctrl controller, payload []byte) {
	ctrl.command(regData, payload...)
	ctrl.command(regOutputEnable, outputLatch)
	ctrl.waitUntilIdle()
}

// sendFrame transmits every line of the panel once.
//
// img is nil for SourceFixed steps; mask is only set for masked steps.
func sendFrame(ctrl controller, p *Profile, buf []byte, st Step, img, mask *frame.Buffer) error {
	border := p.borderFor(st.Stage)
	for y := 0; y < p.Height; y++ {
		src := lineSource{fixed: st.Fixed}
		if img != nil {
			src.data = img.Line(y)
		}
		if mask != nil {
			src.mask = mask.Line(y)
		}
		buf = encodeLine(buf, p, y, src, st.Stage, border)
		sendLine(ctrl, buf)
		if err := ctrl.err(); err != nil {
			return err
		}
	}
	return nil
}

// sendEnd closes an update: a frame of "nothing" pixels, a dummy line and
// the border.
func sendEnd(ctrl controller, p *Profile, buf []byte) error {
	nothing := Step{Stage: Normal, Source: SourceFixed, Fixed: fixedNothing}
	if err := sendFrame(ctrl, p, buf, nothing, nil, nil); err != nil {
		return err
	}
	buf = encodeLine(buf, p, -1, lineSource{}, Normal, 0x00)
	sendLine(ctrl, buf)
	if p.Border == BorderSet {
		buf = encodeLine(buf, p, -1, lineSource{}, Normal, p.BorderValue)
		sendLine(ctrl, buf)
		ctrl.sleep(p.Power.Border)
	} else {
		ctrl.pinOut(pinBorder, gpio.Low)
		ctrl.sleep(p.Power.Border)
		ctrl.pinOut(pinBorder, gpio.High)
	}
	return ctrl.err()
}

// images returns the image and mask a step reads from.
func images(st Step, old, cur *frame.Buffer) (img, mask *frame.Buffer) {
	switch st.Source {
	case SourceOld:
		img, mask = old, cur
	case SourceNew:
		img, mask = cur, old
	default:
		return nil, nil
	}
	if !st.Masked {
		mask = nil
	}
	return img, mask
}
