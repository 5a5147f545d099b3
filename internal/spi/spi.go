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

// Package spi bit-bangs SPI over the FPGA's single GPIO register: there
// is no hardware SPI peripheral, only SCK/MOSI/MISO/CS lines toggled by
// software. Both the MAX5216 DAC and the ADS1018 ADC share the bus
// through a single Bus value serialized by a disable-interrupts mutex.
package spi

import (
	"errors"
	"runtime/interrupt"

	"gpsdo/internal/fpga"
)

// Pin assignments on the shared GPIO register, per board wiring.
const (
	PinSCK   = 0
	PinMOSI  = 1
	PinDACCS = 2
	PinADCCS = 3
	PinMISO  = 4
)

// ErrBusBusy is returned by TryAcquire when another transaction already
// holds the bus.
var ErrBusBusy = errors.New("spi: bus busy")

// Mode selects clock polarity/phase. The MAX5216 can run in either;
// the ADS1018 requires Mode1.
type Mode int

const (
	Mode0 Mode = iota // CPOL=0, CPHA=0
	Mode1             // CPOL=0, CPHA=1
)

// BusyWaitTimer spins a fixed instruction count, calibrated to the
// target CPU clock. Used for SPI setup/hold timing where no hardware
// timer is available.
type BusyWaitTimer struct {
	cycles uint32
}

// NewBusyWaitTimer builds a timer for the given cycle count.
func NewBusyWaitTimer(cycles uint32) BusyWaitTimer {
	return BusyWaitTimer{cycles: cycles}
}

// Wait spins for the configured cycle count. Each iteration is one
// no-op; the count must be calibrated per board clock (201 MHz for
// hx8k, 100.5 MHz for up5k) to yield the intended delay.
func (t BusyWaitTimer) Wait() {
	for i := uint32(0); i < t.cycles; i++ {
		noop()
	}
}

//go:noinline
func noop() {}

// Bus is the shared SPI transactor. acquired guards against concurrent
// transactions from both the main thread and, defensively, from
// reentrant IRQ-context use (none is expected, but the mutex makes the
// invariant explicit rather than assumed).
type Bus struct {
	acquired bool
	setup    BusyWaitTimer
}

// NewBus builds a bus with the given per-bit setup delay.
func NewBus(setupCycles uint32) *Bus {
	return &Bus{setup: NewBusyWaitTimer(setupCycles)}
}

// TryAcquire grabs exclusive use of the bus for one transaction. The
// critical section disables interrupts: transactions are short and
// bounded, so this is cheap, and it rules out a half-clocked frame if
// the counter IRQ fired mid-transfer.
func (b *Bus) TryAcquire() (*Guard, error) {
	state := interrupt.Disable()
	if b.acquired {
		interrupt.Restore(state)
		return nil, ErrBusBusy
	}
	b.acquired = true
	return &Guard{bus: b, irqState: state}, nil
}

// Guard represents exclusive ownership of the bus plus one held
// chip-select line. Release restores both; call it via defer
// immediately after a successful TryAcquire/CSLow so every exit path,
// including an early return on error, releases the bus.
type Guard struct {
	bus      *Bus
	irqState interrupt.State
	csPin    uint8
	csHeld   bool
}

// CSLow drives the given chip-select pin low and remembers it for
// Release.
func (g *Guard) CSLow(pin uint8) {
	fpga.GPIO().SetPin(pin, false)
	g.csPin = pin
	g.csHeld = true
}

// Release raises the held chip-select line (if any), then releases the
// bus and restores interrupts. Safe to call multiple times.
func (g *Guard) Release() {
	if g.csHeld {
		fpga.GPIO().SetPin(g.csPin, true)
		g.csHeld = false
	}
	if g.bus != nil && g.bus.acquired {
		g.bus.acquired = false
		interrupt.Restore(g.irqState)
		g.bus = nil
	}
}

// TransferByte clocks out one byte MSB-first while clocking in one
// byte from MISO, per mode.
func (b *Bus) TransferByte(mode Mode, out byte) byte {
	var in byte
	gpio := fpga.GPIO()
	for i := 7; i >= 0; i-- {
		bit := (out >> uint(i)) & 1

		if mode == Mode0 {
			gpio.SetPin(PinMOSI, bit != 0)
			b.setup.Wait()
			gpio.SetPin(PinSCK, true)
			b.setup.Wait()
			if gpio.ReadPin(PinMISO) {
				in |= 1 << uint(i)
			}
			gpio.SetPin(PinSCK, false)
			b.setup.Wait()
		} else {
			gpio.SetPin(PinSCK, true)
			gpio.SetPin(PinMOSI, bit != 0)
			b.setup.Wait()
			gpio.SetPin(PinSCK, false)
			b.setup.Wait()
			if gpio.ReadPin(PinMISO) {
				in |= 1 << uint(i)
			}
		}
	}
	return in
}

// Transfer clocks out every byte of out, returning the bytes clocked in
// over the same window.
func (b *Bus) Transfer(mode Mode, out []byte) []byte {
	in := make([]byte, len(out))
	for i, o := range out {
		in[i] = b.TransferByte(mode, o)
	}
	return in
}
