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

package main

import (
	"gpsdo/internal/counter"
	"gpsdo/internal/lfsr"
)

// defaultToleranceWindow centers each counter's bring-up window on its
// LFSR reverse-lookup range, so a locked sample always decodes and
// always passes Stabilize's check together.
func defaultToleranceWindow() counter.ToleranceWindow {
	sigTarget := (lfsr.SigLo + lfsr.SigHi) / 2
	sigTol := (lfsr.SigHi - lfsr.SigLo) / 2

	clkTarget := (lfsr.ClkLo + lfsr.ClkHi) / 2
	clkTol := (lfsr.ClkHi - lfsr.ClkLo) / 2

	return counter.ToleranceWindow{
		TargetSigCount: sigTarget,
		SigTolerance:   sigTol,
		TargetClk:      clkTarget,
		ClkTolerance:   clkTol,
	}
}
