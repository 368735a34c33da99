// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testProfile is an 8x4 panel sending one frame per stage at 25°C.
func testProfile() *Profile {
	return &Profile{
		Name:          "test",
		Width:         8,
		Height:        4,
		COG:           COGG2,
		ChannelSelect: []byte{0x00, 0x0f},
		Border:        BorderNone,
		Waveform:      waveform(1),
		Compensation:  DefaultCompensation,
		Power:         DefaultPowerTiming,
	}
}

func TestEncodeLine(t *testing.T) {
	middle := testProfile()
	middle.Height = 8
	middle.MiddleScan = true
	zero := testProfile()
	zero.Border = BorderZero
	pre := testProfile()
	pre.PreBorderByte = true

	for _, tc := range []struct {
		name   string
		p      *Profile
		line   int
		src    lineSource
		stage  Stage
		border byte
		want   []byte
	}{
		{
			name:  "normal",
			p:     testProfile(),
			src:   lineSource{data: []byte{0xa0}},
			stage: Normal,
			want:  []byte{0xaf, 0x03, 0xaa},
		},
		{
			name:  "last line",
			p:     testProfile(),
			line:  3,
			src:   lineSource{data: []byte{0xa0}},
			stage: Normal,
			want:  []byte{0xaf, 0xc0, 0xaa},
		},
		{
			name:  "compensate",
			p:     testProfile(),
			src:   lineSource{data: []byte{0xa0}},
			stage: Compensate,
			want:  []byte{0xfa, 0x03, 0xff},
		},
		{
			name:  "white",
			p:     testProfile(),
			src:   lineSource{data: []byte{0xa0}},
			stage: White,
			want:  []byte{0xa5, 0x03, 0xaa},
		},
		{
			name:  "inverse",
			p:     testProfile(),
			src:   lineSource{data: []byte{0xa0}},
			stage: Inverse,
			want:  []byte{0xf5, 0x03, 0xff},
		},
		{
			name:  "fixed",
			p:     testProfile(),
			src:   lineSource{fixed: fixedNothing},
			stage: Normal,
			want:  []byte{0x55, 0x03, 0x55},
		},
		{
			name:  "masked unchanged",
			p:     testProfile(),
			src:   lineSource{data: []byte{0xa0}, mask: []byte{0xa0}},
			stage: Normal,
			want:  []byte{0x55, 0x03, 0x55},
		},
		{
			name:  "masked changed",
			p:     testProfile(),
			src:   lineSource{data: []byte{0xa0}, mask: []byte{0x20}},
			stage: Normal,
			want:  []byte{0x57, 0x03, 0x55},
		},
		{
			name:  "dummy",
			p:     testProfile(),
			line:  -1,
			src:   lineSource{fixed: fixedNothing},
			stage: Normal,
			want:  []byte{0x55, 0x00, 0x55},
		},
		{
			name:  "middle scan",
			p:     middle,
			line:  5,
			src:   lineSource{data: []byte{0xa0}},
			stage: Normal,
			want:  []byte{0xaa, 0x00, 0x30, 0xfa},
		},
		{
			name:   "border zero",
			p:      zero,
			src:    lineSource{data: []byte{0xa0}},
			stage:  Normal,
			border: 0x00,
			want:   []byte{0xaf, 0x03, 0xaa, 0x00},
		},
		{
			name:   "border value",
			p:      zero,
			src:    lineSource{data: []byte{0xa0}},
			stage:  Normal,
			border: 0xaa,
			want:   []byte{0xaf, 0x03, 0xaa, 0xaa},
		},
		{
			name:  "pre border byte",
			p:     pre,
			src:   lineSource{data: []byte{0xa0}},
			stage: Normal,
			want:  []byte{0x00, 0xaf, 0x03, 0xaa},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := encodeLine(nil, tc.p, tc.line, tc.src, tc.stage, tc.border)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("encodeLine() difference (-got +want):\n%s", diff)
			}
			if len(got) != tc.p.LineSize() {
				t.Errorf("len = %d, LineSize() = %d", len(got), tc.p.LineSize())
			}
		})
	}
}

func TestEncodeLineBuiltins(t *testing.T) {
	for _, p := range []*Profile{&EPD1in44, &EPD1in9, &EPD2in0, &EPD2in6, &EPD2in7} {
		t.Run(p.Name, func(t *testing.T) {
			buf := make([]byte, 0, p.LineSize())
			data := make([]byte, p.BytesPerLine())
			for y := -1; y < p.Height; y++ {
				buf = encodeLine(buf, p, y, lineSource{data: data}, Normal, p.borderFor(Normal))
				if len(buf) != p.LineSize() {
					t.Fatalf("line %d: len = %d, want %d", y, len(buf), p.LineSize())
				}
			}
		})
	}
}

func TestScanSelectsOneLine(t *testing.T) {
	for _, p := range []*Profile{&EPD1in44, &EPD2in6} {
		t.Run(p.Name, func(t *testing.T) {
			seen := map[[2]int]bool{}
			for y := 0; y < p.Height; y++ {
				scan := appendScan(nil, p, y)
				set := 0
				var key [2]int
				for i, b := range scan {
					if b != 0 {
						set++
						key = [2]int{i, int(b)}
					}
				}
				if set != 1 {
					t.Fatalf("line %d selects %d scan bytes", y, set)
				}
				if seen[key] {
					t.Fatalf("line %d reuses scan position %v", y, key)
				}
				seen[key] = true
			}
		})
	}
}

func TestPixelCode(t *testing.T) {
	for _, tc := range []struct {
		stage        Stage
		black, white byte
	}{
		{Compensate, pixelWhite, pixelBlack},
		{White, pixelNothing, pixelWhite},
		{Inverse, pixelNothing, pixelBlack},
		{Normal, pixelBlack, pixelWhite},
	} {
		if got := pixelCode(tc.stage, true); got != tc.black {
			t.Errorf("%s black = %d, want %d", tc.stage, got, tc.black)
		}
		if got := pixelCode(tc.stage, false); got != tc.white {
			t.Errorf("%s white = %d, want %d", tc.stage, got, tc.white)
		}
	}
}
