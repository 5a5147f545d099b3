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

// Package fpga exposes the soft CPU's memory-mapped peripherals: UART,
// GPIO, and the frequency-counter block. All three live at fixed
// addresses and are accessed only through volatile.Register32 so the
// compiler never reorders or elides a hardware read/write.
package fpga

import (
	"runtime/volatile"
	"unsafe"
)

const (
	uartBase    = 0x0200_0004
	gpioBase    = 0x0300_0000
	counterBase = 0x0300_0004
)

// UARTRegs is the console UART: a baud-rate divider and a single data
// register. Writing data shifts one byte out; there is no FIFO.
type UARTRegs struct {
	Clkdiv volatile.Register32
	Data   volatile.Register32
}

// UART returns the UART register block.
func UART() *UARTRegs {
	return (*UARTRegs)(unsafe.Pointer(uintptr(uartBase)))
}

// SetSpeed programs Clkdiv for the given baud rate against a 12 MHz
// reference, matching the picorv32 console's fixed input clock.
func (u *UARTRegs) SetSpeed(baud uint32) {
	div := uint32(12_000_000 / baud)
	if div < 1 {
		div = 1
	}
	u.Clkdiv.Set(div)
}

// GPIORegs is a single read/modify/write output-and-input register; bit
// N corresponds to pin N. The board wiring (§6) assigns SCK, MOSI, the
// two chip-selects, and MISO to bits 0..4.
type GPIORegs struct {
	IO volatile.Register32
}

// GPIO returns the GPIO register block.
func GPIO() *GPIORegs {
	return (*GPIORegs)(unsafe.Pointer(uintptr(gpioBase)))
}

// SetPin drives the given pin high or low, leaving the rest of the
// register untouched.
func (g *GPIORegs) SetPin(pin uint8, high bool) {
	mask := uint32(1) << pin
	if high {
		g.IO.SetBits(mask)
	} else {
		g.IO.ClearBits(mask)
	}
}

// ReadPin reports the current level of the given pin.
func (g *GPIORegs) ReadPin(pin uint8) bool {
	return g.IO.Get()&(uint32(1)<<pin) != 0
}

// CounterRegs is the FPGA's three-counter frequency-measurement block.
// Each register holds a Galois-32 LFSR state, not a binary count — see
// the lfsr package. Epoch is a two-bit generation tag that advances
// every measurement cycle; a torn read is detected by re-reading it.
type CounterRegs struct {
	RefSys volatile.Register32
	RefSig volatile.Register32
	SigSys volatile.Register32
	Epoch  volatile.Register32
}

// Counters returns the frequency-counter register block.
func Counters() *CounterRegs {
	return (*CounterRegs)(unsafe.Pointer(uintptr(counterBase)))
}

// CounterIRQ is the interrupt vector the FPGA raises on every epoch
// advance (§6).
const CounterIRQ = 5
