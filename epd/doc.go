// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epd drives repaper.org e-paper panels fitted with the second
// generation chip-on-glass (COG G2) controller.
//
// The panel has no frame memory: every refresh streams whole frames line by
// line over SPI, through four stages (compensate, white, inverse and normal)
// whose length depends on the ambient temperature. The driver powers the
// panel up before each refresh and down after it.
//
// Supported sizes are 1.44", 1.9", 2.0", 2.6" and 2.7". Other panels of the
// same family can be driven with a custom Profile.
//
// Datasheet
//
// http://www.pervasivedisplays.com/_literature_220873/COG_Driver_Interface_Timing_for_small_size_G2_V230
//
// Product page:
//
// https://www.repaper.org/
package epd
