// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen implements a display.Drawer that previews an e-paper panel
// on the terminal.
//
// Useful to design a layout without wearing the panel out, or without a
// panel at all.
package screen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/repaper/epdirect/frame"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts represents the options available for this display.
type Opts struct {
	Width  int
	Height int
	// Scale keeps one pixel out of Scale in both directions. Zero means 1.
	Scale   int
	Palette *ansi256.Palette
	// ASCII draws with '#' and '.' instead of colored blocks.
	ASCII bool

	_ struct{}
}

var (
	black = color.NRGBA{0, 0, 0, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

// Dev is a panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	ascii   bool
	scale   int

	img *frame.Buffer
	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
//
// Colored blocks are only used when stdout is a terminal.
func New(opts *Opts) *Dev {
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	o := *opts
	o.ASCII = o.ASCII || !tty
	return NewWriter(colorable.NewColorableStdout(), &o)
}

// NewWriter returns a Dev that writes to w.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	return &Dev{
		w:       w,
		palette: *p,
		ascii:   opts.ASCII,
		scale:   scale,
		img:     frame.New(opts.Width, opts.Height),
	}
}

func (d *Dev) String() string {
	return "Screen"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	if d.ascii {
		return nil
	}
	_, err := io.WriteString(d.w, "\033[0m")
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.img.Bounds()
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.img, r.Intersect(d.img.Bounds()), src, sp, draw.Src)
	return d.refresh()
}

// Show displays b, which must have the size of the screen.
func (d *Dev) Show(b *frame.Buffer) error {
	if b.Width != d.img.Width || b.Height != d.img.Height {
		return fmt.Errorf("screen: image is %dx%d, screen is %dx%d", b.Width, b.Height, d.img.Width, d.img.Height)
	}
	copy(d.img.Pix, b.Pix)
	return d.refresh()
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	for y := 0; y < d.img.Height; y += d.scale {
		for x := 0; x < d.img.Width; x += d.scale {
			on := d.img.Black(x, y)
			switch {
			case d.ascii && on:
				_ = d.buf.WriteByte('#')
			case d.ascii:
				_ = d.buf.WriteByte('.')
			case on:
				_, _ = d.buf.WriteString(d.palette.Block(black))
			default:
				_, _ = d.buf.WriteString(d.palette.Block(white))
			}
		}
		if !d.ascii {
			_, _ = d.buf.WriteString("\033[0m")
		}
		_ = d.buf.WriteByte('\n')
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
