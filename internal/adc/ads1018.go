/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package adc drives the ADS1018 SPI ADC used for rail and temperature
// telemetry. It is not in the servo's control path; a failed or slow
// reading only degrades the console's diagnostic output.
package adc

import (
	"fmt"

	"gpsdo/internal/fpga"
	"gpsdo/internal/spi"
)

// ConfigValidationMismatch means the device's echoed config did not
// match what this driver last applied.
type ConfigValidationMismatch struct {
	Desired uint16
	Actual  uint16
}

func (e *ConfigValidationMismatch) Error() string {
	return fmt.Sprintf("adc: config echo mismatch: desired %#04x, got %#04x", e.Desired, e.Actual)
}

// InvalidConversionValue means the conversion word's reserved low bits
// were nonzero.
type InvalidConversionValue struct {
	Raw uint16
}

func (e *InvalidConversionValue) Error() string {
	return fmt.Sprintf("adc: invalid conversion value %#04x: reserved bits set", e.Raw)
}

// pollCycles and csSetupCycles tune the transaction to the ADS1018's
// minimum CS and conversion timing against the 201/100.5 MHz system
// clock; see the busy-wait-timer design note.
const (
	csSetupCycles = 10
	pollCycles    = 100
)

// ADS1018 is a single-channel-at-a-time SPI ADC reached over the
// shared bus on its own chip-select line.
type ADS1018 struct {
	bus     *spi.Bus
	csPin   uint8
	setup   spi.BusyWaitTimer
	poll    spi.BusyWaitTimer
	lastCfg uint16
}

// New binds a driver to the shared bus and the ADC's chip-select pin.
func New(bus *spi.Bus, csPin uint8) *ADS1018 {
	return &ADS1018{
		bus:   bus,
		csPin: csPin,
		setup: spi.NewBusyWaitTimer(csSetupCycles),
		poll:  spi.NewBusyWaitTimer(pollCycles),
	}
}

// devicePorts is the hardware surface one ADS1018 transaction needs:
// assert/release the chip-select line, clock a 16-bit word, and check
// DRDY. Convert binds these to the shared SPI bus; tests bind them to
// fakes so runConversion's word ordering and validation can be checked
// without real hardware — the same hardware/pure split FindOperatingPoint
// uses for its frequency sampler.
type devicePorts struct {
	csLow        func() error
	release      func()
	transferWord func(uint16) uint16
	waitSetup    func()
	drdy         func() bool
	waitPoll     func()
}

// runConversion runs one ADS1018 transaction: apply cfg, echo-validate
// the previously applied config, poll DRDY, and unpack the conversion.
// It returns the applied config word alongside the result so the
// caller can remember it as lastCfg for the next call's echo check,
// regardless of whether this call succeeded.
//
// Per §4.6 step 2, the config-apply CS-low window clocks two 16-bit
// words: the first returns the prior conversion's result (discarded
// here — Convert doesn't use back-to-back conversions), the second
// returns the device's echo of the config applied on the *previous*
// call. Comparing the first word against lastCfg, as a single-word
// transaction would, compares against conversion data and mismatches
// almost every call.
func runConversion(p devicePorts, cfg Config, lastCfg uint16) (int16, uint16, error) {
	word := cfg.Word()

	if err := p.csLow(); err != nil {
		return 0, lastCfg, err
	}
	_ = p.transferWord(word) // previous conversion result; unused here
	echo := p.transferWord(0)
	p.release()

	// Mask both sides the same way before comparing: bit 15 (START)
	// self-clears once the conversion it triggered completes, and bit 0
	// (RESERVED) is forced to 1 on either side so a device that echoes
	// it back low doesn't register as a spurious mismatch.
	actual := echo&0x7fff | 1
	want := expectedEcho(lastCfg)
	if actual != want {
		return 0, word, &ConfigValidationMismatch{Desired: want, Actual: actual}
	}

	for {
		if err := p.csLow(); err != nil {
			return 0, word, err
		}
		p.waitSetup()
		ready := p.drdy()
		p.release()
		if ready {
			break
		}
		p.waitPoll()
	}

	if err := p.csLow(); err != nil {
		return 0, word, err
	}
	raw := p.transferWord(0)
	p.release()

	if raw&0x000f != 0 {
		return 0, word, &InvalidConversionValue{Raw: raw}
	}
	return int16(raw) >> 4, word, nil
}

// Convert runs one full transaction: apply cfg, echo-validate the
// previously applied config, poll DRDY, and read back the conversion.
func (a *ADS1018) Convert(cfg Config) (int16, error) {
	var guard *spi.Guard

	ports := devicePorts{
		csLow: func() error {
			g, err := a.bus.TryAcquire()
			if err != nil {
				return err
			}
			g.CSLow(a.csPin)
			guard = g
			return nil
		},
		release: func() {
			guard.Release()
			guard = nil
		},
		transferWord: a.transferWord,
		waitSetup:    a.setup.Wait,
		drdy:         func() bool { return !fpga.GPIO().ReadPin(spi.PinMISO) },
		waitPoll:     a.poll.Wait,
	}

	raw, word, err := runConversion(ports, cfg, a.lastCfg)
	a.lastCfg = word
	return raw, err
}

// transferWord clocks 16 bits MSB-first, returning the bits clocked in
// over the same window.
func (a *ADS1018) transferWord(out uint16) uint16 {
	hi := a.bus.TransferByte(spi.Mode1, byte(out>>8))
	lo := a.bus.TransferByte(spi.Mode1, byte(out))
	return uint16(hi)<<8 | uint16(lo)
}
