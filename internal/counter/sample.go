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

// Package counter reads the FPGA's three-counter frequency-measurement
// block: torn-read protected MMIO access, LFSR decode, frequency
// derivation, and the tolerance predicate used during bring-up.
package counter

// Sample is one decoded measurement cycle: three cycle counts plus the
// two-bit generation tag they were read under.
type Sample struct {
	RefSys uint32
	RefSig uint32
	SigSys uint32
	Epoch  uint8
}

// Frequency derives the estimated signal frequency at ref_hz reference
// rate. Returns exactly 0.0 if SigSys is zero (the FPGA's sentinel for
// "not ready yet"), avoiding a division by zero.
func (s Sample) Frequency(refHz float64) float64 {
	if s.SigSys == 0 {
		return 0.0
	}
	return refHz * float64(uint64(s.RefSys)*uint64(s.RefSig)) / float64(s.SigSys)
}
