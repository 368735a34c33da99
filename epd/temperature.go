// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Celsius converts whole degrees Celsius to a physic.Temperature.
func Celsius(c int) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c)*physic.Kelvin
}

// CompensationPoint applies Factor10 to every reading up to UpTo included.
type CompensationPoint struct {
	UpTo physic.Temperature
	// Factor10 is the frame count multiplier times ten.
	Factor10 int
}

// Compensation maps the ambient temperature to a frame count multiplier.
//
// Readings are clamped to [Min, Max]. Points must be sorted by UpTo with
// non-increasing factors, so that a colder panel never gets fewer frames.
type Compensation struct {
	Min    physic.Temperature
	Max    physic.Temperature
	Points []CompensationPoint
}

// DefaultCompensation is the temperature table of the G2 COG driver.
var DefaultCompensation = Compensation{
	Min: Celsius(-40),
	Max: Celsius(85),
	Points: []CompensationPoint{
		{Celsius(-10), 170},
		{Celsius(-5), 120},
		{Celsius(5), 80},
		{Celsius(10), 40},
		{Celsius(15), 30},
		{Celsius(20), 20},
		{Celsius(40), 10},
		{Celsius(85), 7},
	},
}

// Clamp limits t to the range of the table.
func (c *Compensation) Clamp(t physic.Temperature) physic.Temperature {
	if t < c.Min {
		return c.Min
	}
	if t > c.Max {
		return c.Max
	}
	return t
}

// Factor10 returns the multiplier, times ten, to apply at temperature t.
func (c *Compensation) Factor10(t physic.Temperature) int {
	t = c.Clamp(t)
	for _, p := range c.Points {
		if t <= p.UpTo {
			return p.Factor10
		}
	}
	// Unreachable on a validated table.
	return c.Points[len(c.Points)-1].Factor10
}

// Frames returns the compensated frame count for base frames at temperature t.
//
// The result is rounded to the nearest frame and may be zero.
func (c *Compensation) Frames(base int, t physic.Temperature) int {
	if base <= 0 {
		return 0
	}
	return (base*c.Factor10(t) + 5) / 10
}

func (c *Compensation) validate() error {
	if len(c.Points) == 0 {
		return errors.New("compensation: no points")
	}
	if c.Min > c.Max {
		return fmt.Errorf("compensation: min %s above max %s", c.Min, c.Max)
	}
	for i, p := range c.Points {
		if p.Factor10 < 0 {
			return fmt.Errorf("compensation: point %d: negative factor %d", i, p.Factor10)
		}
		if i == 0 {
			continue
		}
		prev := c.Points[i-1]
		if p.UpTo <= prev.UpTo {
			return fmt.Errorf("compensation: point %d: %s not above %s", i, p.UpTo, prev.UpTo)
		}
		if p.Factor10 > prev.Factor10 {
			return fmt.Errorf("compensation: point %d: factor %d increases with temperature", i, p.Factor10)
		}
	}
	if last := c.Points[len(c.Points)-1]; last.UpTo < c.Max {
		return fmt.Errorf("compensation: last point %s below max %s", last.UpTo, c.Max)
	}
	return nil
}
