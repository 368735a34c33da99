// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/repaper/epdirect/frame"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"
)

// loadImage decodes the png, gif, jpeg or bmp file at path and fits it to
// the panel.
func loadImage(path string, w, h int) (*frame.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame.Convert(w, h, fit(src, w, h)), nil
}

// fit scales src to w x h keeping its aspect ratio, centered on white.
func fit(src image.Image, w, h int) image.Image {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == w && sh == h {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	if sw == 0 || sh == 0 {
		return dst
	}
	dw, dh := w, sh*w/sw
	if sw*h < sh*w {
		dw, dh = sw*h/sh, h
	}
	off := image.Pt((w-dw)/2, (h-dh)/2)
	xdraw.CatmullRom.Scale(dst, image.Rectangle{Min: off, Max: off.Add(image.Pt(dw, dh))}, src, sb, xdraw.Over, nil)
	return dst
}

// renderText draws text in black on white with the Go font, centered and
// wrapped to the panel width.
func renderText(w, h int, size float64, text string) (*frame.Buffer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: size}))
	dc.DrawStringWrapped(text, float64(w)/2, float64(h)/2, 0.5, 0.5, float64(w), 1.2, gg.AlignCenter)
	return frame.Convert(w, h, dc.Image()), nil
}
