// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// Size lists the supported panel sizes.
type Size int

// Supported Size.
const (
	Size1in44 Size = iota
	Size1in9
	Size2in0
	Size2in6
	Size2in7
)

var sizeNames = [...]string{
	Size1in44: "1.44",
	Size1in9:  "1.9",
	Size2in0:  "2.0",
	Size2in6:  "2.6",
	Size2in7:  "2.7",
}

func (s Size) String() string {
	if s < 0 || int(s) >= len(sizeNames) {
		return fmt.Sprintf("Size(%d)", int(s))
	}
	return sizeNames[s]
}

// Set sets the Size to a value represented by the string s. Set implements the flag.Value interface.
func (s *Size) Set(v string) error {
	for i, n := range sizeNames {
		if n == v {
			*s = Size(i)
			return nil
		}
	}
	return fmt.Errorf("unknown panel size %q: expected 1.44, 1.9, 2.0, 2.6 or 2.7", v)
}

// ProfileFor returns a copy of the built-in profile of the panel size.
func ProfileFor(s Size) (*Profile, error) {
	var p *Profile
	switch s {
	case Size1in44:
		p = &EPD1in44
	case Size1in9:
		p = &EPD1in9
	case Size2in0:
		p = &EPD2in0
	case Size2in6:
		p = &EPD2in6
	case Size2in7:
		p = &EPD2in7
	default:
		return nil, &Error{Op: "profile", Code: InvalidProfile, Err: fmt.Errorf("unknown size %d", int(s))}
	}
	return p.Clone(), nil
}

// BorderByte is the policy for the byte trailing every line.
type BorderByte int

// Valid BorderByte.
const (
	// BorderNone sends no border byte.
	BorderNone BorderByte = iota
	// BorderZero always sends 0x00.
	BorderZero
	// BorderSet sends Profile.BorderValue during the Normal stage and 0x00
	// otherwise.
	BorderSet
)

// COGG2 is the low nibble of the id returned by second generation COGs.
const COGG2 byte = 0x02

// StageFrames is one stage of a waveform and its frame count at the
// reference temperature.
type StageFrames struct {
	Stage  Stage
	Frames int
}

// PowerTiming holds the settle delays of the power sequence.
type PowerTiming struct {
	// Settle is the delay between control line changes.
	Settle time.Duration
	// PanelOn is the delay after PANEL_ON is asserted.
	PanelOn time.Duration
	// PositivePump, NegativePump and Vcom follow each charge pump step.
	PositivePump time.Duration
	NegativePump time.Duration
	Vcom         time.Duration
	// ChargePumpAttempts bounds the wait for the DC/DC voltage good flag.
	ChargePumpAttempts int
	// Discharge follows the external discharge command at power down.
	Discharge time.Duration
	// InternalDischarge follows each internal discharge step.
	InternalDischarge time.Duration
	// DischargePulse is the width of the DISCHARGE pin pulse.
	DischargePulse time.Duration
	// Border is the width of the BORDER pin pulse at the end of an update.
	Border time.Duration
}

// DefaultPowerTiming is the power timing of the V231 G2 COG.
var DefaultPowerTiming = PowerTiming{
	Settle:             5 * time.Millisecond,
	PanelOn:            10 * time.Millisecond,
	PositivePump:       240 * time.Millisecond,
	NegativePump:       40 * time.Millisecond,
	Vcom:               40 * time.Millisecond,
	ChargePumpAttempts: 4,
	Discharge:          120 * time.Millisecond,
	InternalDischarge:  40 * time.Millisecond,
	DischargePulse:     150 * time.Millisecond,
	Border:             200 * time.Millisecond,
}

// Profile is the static description of a panel model.
//
// The driver copies the profile in New and never modifies it.
type Profile struct {
	Name string
	// Width and Height in pixels. Width must be a multiple of 8 and Height a
	// multiple of 4.
	Width  int
	Height int
	// COG is the expected low nibble of the COG id.
	COG byte
	// ChannelSelect is written to the channel select register at power up.
	ChannelSelect []byte
	// MiddleScan selects the odd-first line layout.
	MiddleScan bool
	// PreBorderByte prepends 0x00 to every line.
	PreBorderByte bool
	Border        BorderByte
	BorderValue   byte
	// Waveform is the ordered list of stages of a refresh.
	Waveform     []StageFrames
	Compensation Compensation
	Power        PowerTiming
}

func waveform(frames int) []StageFrames {
	return []StageFrames{
		{Compensate, frames},
		{White, frames},
		{Inverse, frames},
		{Normal, frames},
	}
}

// Built-in profiles. Frame counts approximate the 480ms stage time of the
// reference driver at the SPI speed used by New.
var (
	EPD1in44 = Profile{
		Name:          "1.44",
		Width:         128,
		Height:        96,
		COG:           COGG2,
		ChannelSelect: []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x0f, 0xff, 0x00},
		Border:        BorderZero,
		Waveform:      waveform(8),
		Compensation:  DefaultCompensation,
		Power:         DefaultPowerTiming,
	}
	EPD1in9 = Profile{
		Name:          "1.9",
		Width:         144,
		Height:        128,
		COG:           COGG2,
		ChannelSelect: []byte{0x00, 0x00, 0x00, 0x03, 0xfc, 0x00, 0x00, 0xff},
		MiddleScan:    true,
		Border:        BorderSet,
		BorderValue:   0xaa,
		Waveform:      waveform(6),
		Compensation:  DefaultCompensation,
		Power:         DefaultPowerTiming,
	}
	EPD2in0 = Profile{
		Name:          "2.0",
		Width:         200,
		Height:        96,
		COG:           COGG2,
		ChannelSelect: []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0xff, 0xe0, 0x00},
		Border:        BorderZero,
		Waveform:      waveform(6),
		Compensation:  DefaultCompensation,
		Power:         DefaultPowerTiming,
	}
	EPD2in6 = Profile{
		Name:          "2.6",
		Width:         232,
		Height:        128,
		COG:           COGG2,
		ChannelSelect: []byte{0x00, 0x00, 0x1f, 0xe0, 0x00, 0x00, 0x00, 0xff},
		MiddleScan:    true,
		Border:        BorderSet,
		BorderValue:   0xaa,
		Waveform:      waveform(5),
		Compensation:  DefaultCompensation,
		Power:         DefaultPowerTiming,
	}
	EPD2in7 = Profile{
		Name:          "2.7",
		Width:         264,
		Height:        176,
		COG:           COGG2,
		ChannelSelect: []byte{0x00, 0x00, 0x00, 0x7f, 0xff, 0xfe, 0x00, 0x00},
		PreBorderByte: true,
		Border:        BorderNone,
		Waveform:      waveform(4),
		Compensation:  DefaultCompensation,
		Power:         DefaultPowerTiming,
	}
)

// BytesPerLine is the number of image bytes of one line.
func (p *Profile) BytesPerLine() int {
	return p.Width / 8
}

// BytesPerScan is the number of scan bytes sent with every line.
func (p *Profile) BytesPerScan() int {
	return p.Height / 4
}

// ImageSize is the size in bytes of a full panel image.
func (p *Profile) ImageSize() int {
	return p.BytesPerLine() * p.Height
}

// LineSize is the size of the data register payload of one line.
func (p *Profile) LineSize() int {
	n := 2*p.BytesPerLine() + p.BytesPerScan()
	if p.PreBorderByte {
		n++
	}
	if p.Border != BorderNone {
		n++
	}
	return n
}

// Bounds returns the panel rectangle.
func (p *Profile) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.ChannelSelect = append([]byte(nil), p.ChannelSelect...)
	c.Waveform = append([]StageFrames(nil), p.Waveform...)
	c.Compensation.Points = append([]CompensationPoint(nil), p.Compensation.Points...)
	return &c
}

// borderFor returns the trailing border byte sent during stage s.
func (p *Profile) borderFor(s Stage) byte {
	if p.Border == BorderSet && s == Normal {
		return p.BorderValue
	}
	return 0x00
}

// Validate returns an InvalidProfile error if p cannot drive a panel.
func (p *Profile) Validate() error {
	if err := p.validate(); err != nil {
		return &Error{Op: "validate", Code: InvalidProfile, Err: err}
	}
	return nil
}

func (p *Profile) validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("invalid dimensions %dx%d", p.Width, p.Height)
	case p.Width%8 != 0:
		return fmt.Errorf("width %d is not a multiple of 8", p.Width)
	case p.Height%4 != 0:
		return fmt.Errorf("height %d is not a multiple of 4", p.Height)
	case p.COG == 0 || p.COG > 0x0f:
		return fmt.Errorf("invalid COG id %#02x", p.COG)
	case len(p.ChannelSelect) == 0:
		return errors.New("empty channel select")
	case len(p.Waveform) == 0:
		return errors.New("empty waveform")
	}
	switch p.Border {
	case BorderNone, BorderZero, BorderSet:
	default:
		return fmt.Errorf("unknown border mode %d", p.Border)
	}
	total := 0
	for i, s := range p.Waveform {
		if s.Stage < Compensate || s.Stage > Normal {
			return fmt.Errorf("waveform step %d: unknown stage %d", i, s.Stage)
		}
		if s.Frames < 0 {
			return fmt.Errorf("waveform step %d: negative frame count %d", i, s.Frames)
		}
		total += s.Frames
	}
	if total == 0 {
		return errors.New("every waveform stage has zero frames")
	}
	if p.Power.ChargePumpAttempts <= 0 {
		return errors.New("charge pump attempts must be positive")
	}
	return p.Compensation.validate()
}
