// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

// Two bit pixel codes of the COG line format.
const (
	pixelNothing byte = 0x1
	pixelWhite   byte = 0x2
	pixelBlack   byte = 0x3
)

func pixelCode(s Stage, black bool) byte {
	switch s {
	case Compensate:
		if black {
			return pixelWhite
		}
		return pixelBlack
	case White:
		if black {
			return pixelNothing
		}
		return pixelWhite
	case Inverse:
		if black {
			return pixelNothing
		}
		return pixelBlack
	default:
		if black {
			return pixelBlack
		}
		return pixelWhite
	}
}

// lineSource is the content of one line. A nil data sends fixed for every
// pixel byte.
type lineSource struct {
	data  []byte
	mask  []byte
	fixed byte
}

// encodeLine writes the data register payload of line into buf.
//
// A negative line selects no gate, as used by the dummy lines closing an
// update.
func encodeLine(buf []byte, p *Profile, line int, src lineSource, stage Stage, border byte) []byte {
	buf = buf[:0]
	if p.PreBorderByte {
		buf = append(buf, 0x00)
	}
	bpl := p.BytesPerLine()
	if p.MiddleScan {
		buf = appendHalf(buf, bpl, src, stage, 1, true)
		buf = appendScan(buf, p, line)
		buf = appendHalf(buf, bpl, src, stage, 0, false)
	} else {
		buf = appendHalf(buf, bpl, src, stage, 0, true)
		buf = appendScan(buf, p, line)
		buf = appendHalf(buf, bpl, src, stage, 1, false)
	}
	if p.Border != BorderNone {
		buf = append(buf, border)
	}
	return buf
}

// appendHalf appends the pixels of one parity, 0 for even and 1 for odd
// columns. Reversed halves are sent from the right edge.
func appendHalf(buf []byte, bpl int, src lineSource, stage Stage, parity int, reverse bool) []byte {
	for i := 0; i < bpl; i++ {
		if src.data == nil {
			buf = append(buf, src.fixed)
			continue
		}
		b := i
		if reverse {
			b = bpl - 1 - i
		}
		var out byte
		for k := 0; k < 4; k++ {
			px := 2*k + parity
			if reverse {
				px = 6 - 2*k + parity
			}
			bit := byte(0x80) >> px
			black := src.data[b]&bit != 0
			code := pixelCode(stage, black)
			if src.mask != nil && (src.mask[b]&bit != 0) == black {
				code = pixelNothing
			}
			out = out<<2 | code
		}
		buf = append(buf, out)
	}
	return buf
}

func appendScan(buf []byte, p *Profile, line int) []byte {
	pos, bits := -1, byte(0)
	if line >= 0 {
		if p.MiddleScan {
			pos = line / 4
			bits = 0xc0 >> (2 * (line % 4))
		} else {
			pos = (p.Height - 1 - line) / 4
			bits = 0x03 << (2 * (line % 4))
		}
	}
	for b := 0; b < p.BytesPerScan(); b++ {
		if b == pos {
			buf = append(buf, bits)
		} else {
			buf = append(buf, 0x00)
		}
	}
	return buf
}
