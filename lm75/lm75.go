// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lm75

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// FaultQueue is the number of consecutive out of range conversions needed to
// trigger OS.
type FaultQueue byte

// Valid FaultQueue.
const (
	FaultQueue1 FaultQueue = iota
	FaultQueue2
	FaultQueue4
	FaultQueue6
)

// DefaultAddress is the address of the sensor on the repaper.org extension
// board, A0 tied high.
const DefaultAddress uint16 = 0x49

const (
	regTemperature byte = 0x00
	regConfig      byte = 0x01
	regHysteresis  byte = 0x02
	regOvertemp    byte = 0x03

	cfgShutdown  byte = 0x01
	cfgInterrupt byte = 0x02
	cfgPolarity  byte = 0x04
	// cfgFaultQueuePos is the shift of the fault queue bits.
	cfgFaultQueuePos = 3

	resolution      physic.Temperature = 125 * physic.MilliKelvin
	alertResolution physic.Temperature = 500 * physic.MilliKelvin

	// MinimumTemperature is the lowest temperature the sensor measures.
	MinimumTemperature physic.Temperature = physic.ZeroCelsius - 55*physic.Kelvin
	// MaximumTemperature is the highest temperature the sensor measures.
	MaximumTemperature physic.Temperature = physic.ZeroCelsius + 125*physic.Kelvin

	// conversionTime is the typical duration of one conversion.
	conversionTime = 100 * time.Millisecond
)

// Opts holds the configuration of the sensor.
type Opts struct {
	// Interrupt selects the interrupt mode of OS instead of comparator mode.
	Interrupt bool
	// ActiveHigh makes OS active high.
	ActiveHigh bool
	FaultQueue FaultQueue
	// AlertLow and AlertHigh are the hysteresis and overtemperature limits.
	// They are left to their power on value when zero.
	AlertLow  physic.Temperature
	AlertHigh physic.Temperature
}

// DefaultOpts is the power on configuration of the sensor.
var DefaultOpts = Opts{}

// Dev is a handle to an LM75 sensor.
type Dev struct {
	d        *i2c.Dev
	mu       sync.Mutex
	opts     Opts
	shutdown chan struct{}
}

// NewI2C returns a sensor on the bus at addr and wakes it up.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, opts: *opts}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.start(); err != nil {
		return nil, err
	}
	return d, nil
}

// start leaves shutdown mode and applies the options.
func (d *Dev) start() error {
	cfg, err := d.readConfig()
	if err != nil {
		return err
	}
	cfg &^= cfgShutdown | cfgInterrupt | cfgPolarity | 0x03<<cfgFaultQueuePos
	if d.opts.Interrupt {
		cfg |= cfgInterrupt
	}
	if d.opts.ActiveHigh {
		cfg |= cfgPolarity
	}
	cfg |= byte(d.opts.FaultQueue&0x03) << cfgFaultQueuePos
	if err := d.d.Tx([]byte{regConfig, cfg}, nil); err != nil {
		return err
	}
	if d.opts.AlertLow != 0 {
		if err := d.writeLimit(regHysteresis, d.opts.AlertLow); err != nil {
			return err
		}
	}
	if d.opts.AlertHigh != 0 {
		if err := d.writeLimit(regOvertemp, d.opts.AlertHigh); err != nil {
			return err
		}
	}
	d.shutdown = make(chan struct{})
	return nil
}

func (d *Dev) readConfig() (byte, error) {
	r := []byte{0}
	if err := d.d.Tx([]byte{regConfig}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (d *Dev) writeLimit(reg byte, t physic.Temperature) error {
	b := limitToBytes(t)
	return d.d.Tx([]byte{reg, b[0], b[1]}, nil)
}

// Sense reads the temperature. Implements physic.SenseEnv.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown == nil {
		if err := d.start(); err != nil {
			return err
		}
		// The first conversion starts when leaving shutdown.
		time.Sleep(conversionTime)
	}
	r := make([]byte, 2)
	if err := d.d.Tx([]byte{regTemperature}, r); err != nil {
		return err
	}
	e.Temperature = bytesToTemperature(r)
	return nil
}

// SenseContinuous reads the temperature every interval until Halt is called.
// Implements physic.SenseEnv.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < conversionTime {
		return nil, fmt.Errorf("lm75: interval %s below the conversion time %s", interval, conversionTime)
	}
	d.mu.Lock()
	shutdown := d.shutdown
	d.mu.Unlock()
	if shutdown == nil {
		return nil, errors.New("lm75: sensor is halted")
	}
	ch := make(chan physic.Env, 16)
	go func() {
		defer close(ch)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-shutdown:
				return
			case <-t.C:
				e := physic.Env{}
				if err := d.Sense(&e); err != nil {
					continue
				}
				select {
				case ch <- e:
				default:
				}
			}
		}
	}()
	return ch, nil
}

// Precision implements physic.SenseEnv.
//
// The accuracy is +/-2°C.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = resolution
	e.Pressure = 0
	e.Humidity = 0
}

// SetAlert sets the hysteresis and overtemperature limits of OS.
func (d *Dev) SetAlert(low, high physic.Temperature) error {
	if low >= high || low < MinimumTemperature || high > MaximumTemperature {
		return fmt.Errorf("lm75: invalid alert range %s - %s", low, high)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeLimit(regHysteresis, low); err != nil {
		return err
	}
	if err := d.writeLimit(regOvertemp, high); err != nil {
		return err
	}
	d.opts.AlertLow = low
	d.opts.AlertHigh = high
	return nil
}

// Alert returns the hysteresis and overtemperature limits of OS.
func (d *Dev) Alert() (low, high physic.Temperature, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := make([]byte, 2)
	if err = d.d.Tx([]byte{regHysteresis}, r); err != nil {
		return
	}
	low = bytesToLimit(r)
	if err = d.d.Tx([]byte{regOvertemp}, r); err != nil {
		return
	}
	high = bytesToLimit(r)
	return
}

// Halt stops SenseContinuous and puts the sensor in shutdown mode.
// Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	cfg, err := d.readConfig()
	if err != nil {
		return err
	}
	if cfg&cfgShutdown != 0 {
		return nil
	}
	return d.d.Tx([]byte{regConfig, cfg | cfgShutdown}, nil)
}

func (d *Dev) String() string {
	return fmt.Sprintf("lm75: %s", d.d)
}

// bytesToTemperature decodes the 11 bit temperature register.
func bytesToTemperature(b []byte) physic.Temperature {
	raw := int16(uint16(b[0])<<8|uint16(b[1])) >> 5
	return physic.ZeroCelsius + physic.Temperature(raw)*resolution
}

// bytesToLimit decodes the 9 bit limit registers.
func bytesToLimit(b []byte) physic.Temperature {
	raw := int16(uint16(b[0])<<8|uint16(b[1])) >> 7
	return physic.ZeroCelsius + physic.Temperature(raw)*alertResolution
}

// limitToBytes encodes t, rounded to the nearest half degree.
func limitToBytes(t physic.Temperature) [2]byte {
	d := t - physic.ZeroCelsius
	n := d / alertResolution
	if rem := d % alertResolution; rem >= alertResolution/2 {
		n++
	} else if rem <= -alertResolution/2 {
		n--
	}
	v := uint16(int16(n) << 7)
	return [2]byte{byte(v >> 8), byte(v)}
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
