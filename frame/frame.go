// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package frame implements the packed 1 bit image used by e-paper panels.
//
// Each line is Stride bytes long, the most significant bit is the leftmost
// pixel and a set bit is a black pixel. A zero Buffer is entirely white.
//
// Buffer implements draw.Image with the image1bit color model, where
// image1bit.On is white and image1bit.Off is black.
package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Buffer is a packed 1 bit image.
type Buffer struct {
	Width  int
	Height int
	// Stride is the number of bytes of a line, Width/8 rounded up.
	Stride int
	Pix    []byte
}

// New returns a white buffer of w x h pixels.
func New(w, h int) *Buffer {
	stride := (w + 7) / 8
	return &Buffer{Width: w, Height: h, Stride: stride, Pix: make([]byte, stride*h)}
}

// FromBytes wraps the packed image b of w x h pixels.
//
// b is not copied.
func FromBytes(w, h int, b []byte) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("frame: invalid dimensions %dx%d", w, h)
	}
	stride := (w + 7) / 8
	if len(b) != stride*h {
		return nil, fmt.Errorf("frame: got %d bytes, want %d for %dx%d", len(b), stride*h, w, h)
	}
	return &Buffer{Width: w, Height: h, Stride: stride, Pix: b}, nil
}

// Convert draws src onto a white buffer of w x h pixels.
//
// src is aligned on its top left corner and converted with the image1bit
// color model, a pixel being white when its luminance is above half.
func Convert(w, h int, src image.Image) *Buffer {
	b := New(w, h)
	sb := src.Bounds()
	draw.Draw(b, b.Bounds(), src, sb.Min, draw.Src)
	return b
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	c := *b
	c.Pix = append([]byte(nil), b.Pix...)
	return &c
}

// Equal reports whether both buffers hold the same image.
func (b *Buffer) Equal(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && bytes.Equal(b.Pix, o.Pix)
}

// Line returns the bytes of line y. It aliases Pix.
func (b *Buffer) Line(y int) []byte {
	return b.Pix[y*b.Stride : (y+1)*b.Stride]
}

// Bytes returns the packed image. It aliases Pix.
func (b *Buffer) Bytes() []byte {
	return b.Pix
}

// Fill sets every pixel to black or white.
func (b *Buffer) Fill(black bool) {
	v := byte(0)
	if black {
		v = 0xff
	}
	for i := range b.Pix {
		b.Pix[i] = v
	}
}

// Black reports whether the pixel at x, y is black. Out of bounds pixels are
// white.
func (b *Buffer) Black(x, y int) bool {
	if !b.in(x, y) {
		return false
	}
	return b.Pix[y*b.Stride+x/8]&(0x80>>uint(x%8)) != 0
}

// SetBlack sets the pixel at x, y. Out of bounds pixels are ignored.
func (b *Buffer) SetBlack(x, y int, black bool) {
	if !b.in(x, y) {
		return
	}
	i, mask := y*b.Stride+x/8, byte(0x80)>>uint(x%8)
	if black {
		b.Pix[i] |= mask
	} else {
		b.Pix[i] &^= mask
	}
}

// CountBlack returns the number of black pixels.
func (b *Buffer) CountBlack() int {
	n := 0
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Black(x, y) {
				n++
			}
		}
	}
	return n
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	return b.BitAt(x, y)
}

// BitAt is the optimized version of At.
func (b *Buffer) BitAt(x, y int) image1bit.Bit {
	return image1bit.Bit(!b.Black(x, y))
}

// Set implements draw.Image.
func (b *Buffer) Set(x, y int, c color.Color) {
	b.SetBit(x, y, image1bit.BitModel.Convert(c).(image1bit.Bit))
}

// SetBit is the optimized version of Set.
func (b *Buffer) SetBit(x, y int, v image1bit.Bit) {
	b.SetBlack(x, y, v == image1bit.Off)
}

func (b *Buffer) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

var _ draw.Image = &Buffer{}
