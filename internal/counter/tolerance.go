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

package counter

// ToleranceWindow bounds the three raw counts a sample must fall
// within to be considered "locked" during bring-up's Stabilize phase.
type ToleranceWindow struct {
	TargetSigCount uint32
	SigTolerance   uint32
	TargetClk      uint32
	ClkTolerance   uint32
}

// Check reports whether a sample's three counts all lie within the
// configured windows. Bounds are computed with care: the naive
// `target - tolerance` the original firmware uses wraps silently on
// unsigned underflow in Go just as it does in the source language, so
// we clamp rather than let a tolerance larger than the target produce
// a window that wraps around zero.
func (w ToleranceWindow) Check(s Sample) bool {
	sigLo, sigHi := boundedRange(w.TargetSigCount, w.SigTolerance)
	clkLo, clkHi := boundedRange(w.TargetClk, w.ClkTolerance)

	return inRange(s.RefSig, sigLo, sigHi) &&
		inRange(s.SigSys, clkLo, clkHi) &&
		inRange(s.RefSys, clkLo, clkHi)
}

func boundedRange(target, tolerance uint32) (lo, hi uint32) {
	if tolerance > target {
		lo = 0
	} else {
		lo = target - tolerance
	}
	hi = target + tolerance
	return
}

func inRange(v, lo, hi uint32) bool {
	return v >= lo && v <= hi
}
