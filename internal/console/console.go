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

// Package console wraps the FPGA's one-byte-at-a-time UART as an
// io.Writer so diagnostic output can go through fmt.Fprintf like any
// other Go program's logging.
package console

import "gpsdo/internal/fpga"

// UART is an io.Writer over the FPGA UART data register. There is no
// FIFO, so Write blocks byte-by-byte on nothing but the register
// write itself — the hardware has no backpressure signal to poll.
type UART struct{}

// New configures the UART clock divider for baud and returns a writer
// over it.
func New(baud uint32) *UART {
	fpga.UART().SetSpeed(baud)
	return &UART{}
}

// Write implements io.Writer, shifting each byte out the data
// register in turn.
func (UART) Write(p []byte) (int, error) {
	regs := fpga.UART()
	for _, b := range p {
		regs.Data.Set(uint32(b))
	}
	return len(p), nil
}
