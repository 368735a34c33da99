// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epdirect is a container for the repaper.org e-paper direct drive
// packages.
//
// The driver itself lives in package epd. Supporting packages are frame (1 bit
// per pixel image buffer), lm75 (the temperature sensor found on the EPD
// extension board) and screen (terminal preview). The epdirect command in
// cmd/epdirect drives a panel from the command line.
package epdirect
