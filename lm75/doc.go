// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.
//
// lm75 provides a package for interfacing an LM75 I2C temperature sensor, as
// found on the repaper.org e-paper extension board. The 11 bit LM75A and
// LM75B are supported; the original 9 bit LM75 reads with a 0.5°C step.
//
// Range: -55°C - 125°C
//
// Accuracy: +/- 2°C
//
// Resolution: 0.125°C
//
// For detailed information, refer to the [datasheet].
//
// [datasheet]: https://www.nxp.com/docs/en/data-sheet/LM75B.pdf
package lm75
