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

// Package control implements the PI feedback loop that steers the DAC
// from a filtered frequency error, and the bring-up state machine that
// brings a cold OCXO into that loop's capture range.
package control

import (
	"math"

	"gpsdo/internal/filter"
)

// FeedbackControl is the steady-state servo: one tick per counter
// sample, producing a DAC code. It is the canonical control law; see
// slowRateLimitedAdjustment for the earlier variant kept only as a
// documented reference.
type FeedbackControl struct {
	target      float64
	sensitivity float64
	iFactor     float64
	pFactor     float64
	deadZone    float64

	filter  *filter.ExpFilter
	iAccum  float64
	dacCode uint16
}

// NewFeedbackControl builds a controller primed with the operating
// point found during bring-up.
func NewFeedbackControl(target, sensitivity, iFactor, pFactor, deadZone float64, f *filter.ExpFilter, initialDACCode uint16) *FeedbackControl {
	return &FeedbackControl{
		target:      target,
		sensitivity: sensitivity,
		iFactor:     iFactor,
		pFactor:     pFactor,
		deadZone:    deadZone,
		filter:      f,
		dacCode:     initialDACCode,
	}
}

// Tick runs one control step against a newly observed raw frequency,
// returning the DAC code to write (unchanged from the previous tick if
// the computed adjustment rounds to zero).
func (c *FeedbackControl) Tick(rawFreq float64) uint16 {
	c.filter.Add(rawFreq)

	pErrFiltered := c.target - c.filter.Get()
	pErrRaw := c.target - rawFreq
	c.iAccum += pErrRaw

	iTerm := filter.DeadZoneClip(c.iAccum, c.deadZone) * c.iFactor / c.sensitivity
	pTerm := pErrFiltered * c.pFactor / c.sensitivity
	adj := math.Round(iTerm + pTerm)

	if adj != 0 {
		c.dacCode = clampDACCode(int32(c.dacCode) + int32(adj))
		c.filter.ApplyAdjustment(adj * c.sensitivity)
	}
	return c.dacCode
}

// GetDACCode reports the controller's last-written DAC code.
func (c *FeedbackControl) GetDACCode() uint16 { return c.dacCode }

// GetFilteredFrequency reports the controller's internal filter state.
func (c *FeedbackControl) GetFilteredFrequency() float64 { return c.filter.Get() }

// GetIError reports the raw (unclipped) integrator accumulator.
func (c *FeedbackControl) GetIError() float64 { return c.iAccum }

func clampDACCode(v int32) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}

// slowRateLimitedAdjustment is the earlier servo variant: it reduces
// the magnitude of the requested adjustment by minQuickChange (floored
// at zero) and adds back a tenth of the requested adjustment. Superseded by FeedbackControl.Tick, which
// applies the full computed adjustment every tick; kept only as a
// documented reference for the rate-limiting idea, unused by any
// caller.
func slowRateLimitedAdjustment(adj float64, minQuickChange float64) float64 {
	if adj >= 0 {
		return math.Max(0, adj-minQuickChange) + adj/10
	}
	return -(math.Max(0, -adj-minQuickChange) + -adj/10)
}
