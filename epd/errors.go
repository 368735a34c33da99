// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"fmt"
)

// Code is the status of a driver operation.
type Code int

// Status codes. OK is reported for a nil error.
const (
	OK Code = iota
	// PowerFault means a power rail did not settle: the DC/DC converter of the
	// COG never reported voltage good.
	PowerFault
	// BusTimeout means the BUSY line did not clear in time.
	BusTimeout
	// BusFault means the SPI bus or a GPIO line returned an error.
	BusFault
	// InvalidProfile means the panel configuration is malformed.
	InvalidProfile
	// InvalidImage means an image does not match the panel geometry.
	InvalidImage
	// ConcurrentUpdate means another operation is already driving the panel.
	ConcurrentUpdate
	// ResetRequired means the driver is faulted and only accepts Reset.
	ResetRequired
	// Aborted means the update was cancelled at a stage boundary.
	Aborted
	// UnsupportedCOG means the chip-on-glass reported an unexpected id.
	UnsupportedCOG
	// PanelBroken means the COG breakage detection failed.
	PanelBroken
	// Unknown is reported for errors that do not come from this package.
	Unknown
)

var codeNames = [...]string{
	OK:               "ok",
	PowerFault:       "power fault",
	BusTimeout:       "bus timeout",
	BusFault:         "bus fault",
	InvalidProfile:   "invalid profile",
	InvalidImage:     "invalid image",
	ConcurrentUpdate: "concurrent update",
	ResetRequired:    "faulted",
	Aborted:          "aborted",
	UnsupportedCOG:   "unsupported COG",
	PanelBroken:      "panel broken",
	Unknown:          "unknown",
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return codeNames[c]
}

// Sentinel errors to be used with errors.Is.
var (
	ErrPowerFault       = errors.New("epd: power fault")
	ErrBusTimeout       = errors.New("epd: bus timeout")
	ErrBusFault         = errors.New("epd: bus fault")
	ErrInvalidProfile   = errors.New("epd: invalid profile")
	ErrInvalidImage     = errors.New("epd: invalid image")
	ErrConcurrentUpdate = errors.New("epd: concurrent update")
	ErrFaulted          = errors.New("epd: faulted")
	ErrAborted          = errors.New("epd: aborted")
	ErrUnsupportedCOG   = errors.New("epd: unsupported COG")
	ErrPanelBroken      = errors.New("epd: panel broken")
)

var sentinels = map[Code]error{
	PowerFault:       ErrPowerFault,
	BusTimeout:       ErrBusTimeout,
	BusFault:         ErrBusFault,
	InvalidProfile:   ErrInvalidProfile,
	InvalidImage:     ErrInvalidImage,
	ConcurrentUpdate: ErrConcurrentUpdate,
	ResetRequired:    ErrFaulted,
	Aborted:          ErrAborted,
	UnsupportedCOG:   ErrUnsupportedCOG,
	PanelBroken:      ErrPanelBroken,
}

// Error is returned by every Dev operation that fails.
type Error struct {
	// Op is the operation that failed, e.g. "clear" or "power up".
	Op   string
	Code Code
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	s := "epd: " + e.Op + ": " + e.Code.String()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error of e.Code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// CodeOf returns the status code carried by err.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	for c, s := range sentinels {
		if errors.Is(err, s) {
			return c
		}
	}
	return Unknown
}

// classify attaches op to err, turning foreign errors into BusFault.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Op: op, Code: BusFault, Err: err}
}
