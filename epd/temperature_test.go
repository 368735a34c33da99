// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"testing"

	"periph.io/x/conn/v3/physic"
)

func TestFactor10(t *testing.T) {
	c := DefaultCompensation
	for _, tc := range []struct {
		celsius int
		want    int
	}{
		{-60, 170},
		{-40, 170},
		{-10, 170},
		{-9, 120},
		{-5, 120},
		{0, 80},
		{5, 80},
		{10, 40},
		{15, 30},
		{20, 20},
		{21, 10},
		{40, 10},
		{41, 7},
		{85, 7},
		{200, 7},
	} {
		if got := c.Factor10(Celsius(tc.celsius)); got != tc.want {
			t.Errorf("Factor10(%d°C) = %d, want %d", tc.celsius, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	c := DefaultCompensation
	if got := c.Clamp(Celsius(-100)); got != Celsius(-40) {
		t.Errorf("Clamp(-100°C) = %s", got)
	}
	if got := c.Clamp(Celsius(100)); got != Celsius(85) {
		t.Errorf("Clamp(100°C) = %s", got)
	}
	if got := c.Clamp(Celsius(12)); got != Celsius(12) {
		t.Errorf("Clamp(12°C) = %s", got)
	}
}

func TestFramesNeverIncreaseWhenWarmer(t *testing.T) {
	c := DefaultCompensation
	for _, base := range []int{1, 3, 4, 8} {
		prev := c.Frames(base, Celsius(-60))
		for m := -60000; m <= 100000; m += 250 {
			temp := physic.ZeroCelsius + physic.Temperature(m)*physic.MilliKelvin
			n := c.Frames(base, temp)
			if n > prev {
				t.Fatalf("base %d: %s gives %d frames, more than %d at a colder temperature", base, temp, n, prev)
			}
			prev = n
		}
	}
}

func TestFrames(t *testing.T) {
	c := DefaultCompensation
	if n := c.Frames(0, Celsius(0)); n != 0 {
		t.Errorf("Frames(0) = %d", n)
	}
	if n := c.Frames(-3, Celsius(0)); n != 0 {
		t.Errorf("Frames(-3) = %d", n)
	}
	// 1 * 0.7 rounds to 1.
	if n := c.Frames(1, Celsius(60)); n != 1 {
		t.Errorf("Frames(1, 60°C) = %d", n)
	}
}

func TestCompensationValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		c    Compensation
		ok   bool
	}{
		{"default", DefaultCompensation, true},
		{"empty", Compensation{Min: Celsius(0), Max: Celsius(10)}, false},
		{"inverted range", Compensation{Min: Celsius(10), Max: Celsius(0), Points: []CompensationPoint{{Celsius(10), 10}}}, false},
		{"unsorted", Compensation{Min: Celsius(0), Max: Celsius(20), Points: []CompensationPoint{{Celsius(20), 10}, {Celsius(10), 10}}}, false},
		{"increasing", Compensation{Min: Celsius(0), Max: Celsius(20), Points: []CompensationPoint{{Celsius(10), 10}, {Celsius(20), 20}}}, false},
		{"negative", Compensation{Min: Celsius(0), Max: Celsius(20), Points: []CompensationPoint{{Celsius(20), -1}}}, false},
		{"short", Compensation{Min: Celsius(0), Max: Celsius(20), Points: []CompensationPoint{{Celsius(10), 10}}}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.validate()
			if (err == nil) != tc.ok {
				t.Fatalf("validate() = %v, ok %t", err, tc.ok)
			}
		})
	}
}
