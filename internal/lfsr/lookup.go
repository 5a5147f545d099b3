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

package lfsr

// Window bounds for the two counters the FPGA publishes. The sig window
// (SigLo..SigHi) is board-independent (the PPS divider is fixed); the
// clk window (ClkLo..ClkHi) depends on
// the system clock the board variant runs at and is chosen by build
// tag (clk_up5k.go / clk_hx8k.go).
const (
	SigLo = 9_999_900
	SigHi = 10_000_100
)

var (
	sigTable = buildTable(SigLo, SigHi)
	clkTable = buildTable(ClkLo, ClkHi)
)

// buildTable computes, once, the state->count map for every count in
// [lo, hi]. It jumps to lo via mapPow and then single-steps through
// the (narrow) remainder of the window, which is far cheaper than
// jumping ahead to each entry independently.
func buildTable(lo, hi uint32) map[uint32]uint32 {
	t := make(map[uint32]uint32, hi-lo+1)
	s := stateAt(lo)
	for n := lo; n <= hi; n++ {
		t[s] = n
		s = Step(s)
	}
	return t
}

// ReverseSig inverts an LFSR state published on the ref_sig counter against the fixed PPS-divider window. ok is false if s does
// not correspond to any count in the window.
func ReverseSig(s uint32) (n uint32, ok bool) {
	n, ok = sigTable[s]
	return
}

// ReverseClk inverts an LFSR state published on the ref_sys/sig_sys
// counter against the board's system-clock window.
func ReverseClk(s uint32) (n uint32, ok bool) {
	n, ok = clkTable[s]
	return
}
