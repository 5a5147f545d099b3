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

package control

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gpsdo/internal/counter"
	"gpsdo/internal/dac"
	"gpsdo/internal/filter"
)

// State names a phase of the bring-up state machine (§4.8).
type State int

const (
	StateStabilize State = iota
	StateFindOperatingPoint
	StateCalibrateSensitivity
	StatePrimeFilter
	StateServo
	StateRestart
)

func (s State) String() string {
	switch s {
	case StateStabilize:
		return "stabilize"
	case StateFindOperatingPoint:
		return "find-operating-point"
	case StateCalibrateSensitivity:
		return "calibrate-sensitivity"
	case StatePrimeFilter:
		return "prime-filter"
	case StateServo:
		return "servo"
	case StateRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// ErrRestart is returned by Run when a counter read failed during
// Stabilize and the whole sequence must start over. Read errors in the
// later phases are returned to the caller as they are.
var ErrRestart = errors.New("control: bring-up restart requested")

// refHz is the rate of the GPS PPS reference that the counters measure
// against: each sample spans one 1 Hz PPS period, see §3/§6.
const refHz = 1.0

// targetHz is the locked signal frequency the loop steers toward.
const targetHz = 10e6

// ControlLoop owns the hardware the bring-up sequence and servo drive:
// the counter reader and the DAC. It holds no other mutable state of
// its own beyond what each phase needs locally, avoiding the cyclic
// references the original's task/future graph required.
type ControlLoop struct {
	reader *counter.Reader
	dacDev *dac.MAX5216
	window counter.ToleranceWindow
	out    io.Writer

	errorFlag bool
}

// NewControlLoop builds a bring-up/servo sequencer around the given
// peripherals.
func NewControlLoop(reader *counter.Reader, dacDev *dac.MAX5216, window counter.ToleranceWindow, out io.Writer) *ControlLoop {
	return &ControlLoop{reader: reader, dacDev: dacDev, window: window, out: out}
}

func (c *ControlLoop) logf(format string, args ...interface{}) {
	if c.out != nil {
		fmt.Fprintf(c.out, format, args...)
	}
}

// Run drives the full bring-up sequence to completion and then
// services the servo indefinitely, returning only on an unrecoverable
// error (ErrRestart or a counter-reader error from outside Stabilize's
// tolerant handling).
func (c *ControlLoop) Run() error {
	c.logf("state: %s\n", StateStabilize)
	if err := c.stabilize(); err != nil {
		return err
	}

	c.logf("state: %s\n", StateFindOperatingPoint)
	opPoint, err := c.findOperatingPoint()
	if err != nil {
		return err
	}

	c.logf("state: %s (op_point=%d)\n", StateCalibrateSensitivity, opPoint)
	sensitivity, err := c.calibrateSensitivity(opPoint)
	if err != nil {
		return err
	}

	c.logf("state: %s (sensitivity=%g Hz/LSB)\n", StatePrimeFilter, sensitivity)
	f, initialDAC, err := c.primeFilter(opPoint, sensitivity)
	if err != nil {
		return err
	}

	c.logf("state: %s (dac_code=%d)\n", StateServo, initialDAC)
	fc := NewFeedbackControl(targetHz, sensitivity, 0.0005, 0.1, 0.25, f, initialDAC)
	return c.servo(fc)
}

// stabilize discards one sample, then requires five consecutive
// samples inside the tolerance window. Any tolerance-window failure
// resets the consecutive count to zero; any reader error restarts
// bring-up entirely.
func (c *ControlLoop) stabilize() error {
	if _, err := c.reader.Read(); err != nil {
		return ErrRestart
	}

	const needed = 5
	consecutive := 0
	for consecutive < needed {
		s, err := c.reader.Read()
		if err != nil {
			return ErrRestart
		}
		if c.window.Check(s) {
			consecutive++
		} else {
			consecutive = 0
		}
	}
	return nil
}

// frequencyAtV sets the DAC to v and returns the mean of n freshly
// sampled frequencies.
func (c *ControlLoop) frequencyAtV(v uint16, n int) (float64, error) {
	c.dacDev.Set(v)

	sum := 0.0
	for i := 0; i < n; i++ {
		s, err := c.reader.Read()
		if err != nil {
			return 0, err
		}
		sum += s.Frequency(refHz)
	}
	return sum / float64(n), nil
}

// findOperatingPoint binary-searches [0, 65535] for the DAC code that
// yields targetHz, per §4.8 step 2. The search itself is pure — see
// FindOperatingPoint — this just supplies the hardware-backed sampler.
func (c *ControlLoop) findOperatingPoint() (uint16, error) {
	return FindOperatingPoint(c.frequencyAtV, targetHz)
}

// FindOperatingPoint runs the binary search independent of any
// hardware: freqAt(code, samples) must return the mean frequency
// observed at that DAC code averaged over samples readings. Exported
// so the convergence property can be checked against a synthetic
// frequency-vs-code function without a reader or DAC.
func FindOperatingPoint(freqAt func(code uint16, samples int) (float64, error), target float64) (uint16, error) {
	min, max := uint32(0), uint32(65535)

	for {
		if max < min {
			min, max = max, min
		}

		samples := 1
		if max-min < 1024 {
			samples = 10
		}

		fMin, err := freqAt(uint16(min), samples)
		if err != nil {
			return 0, err
		}
		fMax, err := freqAt(uint16(max), samples)
		if err != nil {
			return 0, err
		}

		if fMin > target {
			min = saturatingSub(min, 1000)
			continue
		}
		if fMax < target {
			max = saturatingAdd(max, 1000)
			continue
		}

		testV := min + uint32((target-fMin)/(fMax-fMin)*float64(max-min))

		if max-min <= 16 || fMax-fMin <= 0.1 {
			return uint16(testV), nil
		}

		min = (min + testV) / 2
		max = (max + testV) / 2
	}
}

// calibrateSensitivity measures the DAC-to-frequency gain around the
// operating point per §4.8 step 3.
func (c *ControlLoop) calibrateSensitivity(opPoint uint16) (float64, error) {
	lo := saturatingSub(uint32(opPoint), 10000)
	hi := saturatingAdd(uint32(opPoint), 10000)

	fLo, err := c.frequencyAtV(uint16(lo), 5)
	if err != nil {
		return 0, err
	}
	fHi, err := c.frequencyAtV(uint16(hi), 5)
	if err != nil {
		return 0, err
	}

	return (fHi - fLo) / float64(int64(hi)-int64(lo)), nil
}

// primeFilter fills a 60-sample uniform-average filter at the
// operating point, nudging the DAC toward target until the step size
// settles, per §4.8 step 4. It returns an exponential filter seeded
// with the final mean, ready for the servo.
func (c *ControlLoop) primeFilter(opPoint uint16, sensitivity float64) (*filter.ExpFilter, uint16, error) {
	v := opPoint

	for {
		uf := filter.NewUniformAverageFilter(60)
		for !uf.IsFull() {
			s, err := c.reader.Read()
			if err != nil {
				return nil, 0, err
			}
			c.dacDev.Set(v)
			uf.Add(s.Frequency(refHz))
		}

		mean := uf.Get()
		pErr := targetHz - mean
		step := math.Round(pErr / sensitivity)

		v = clampDACCode(int32(v) + int32(step))

		if math.Abs(step) <= 10 {
			return filter.NewExpFilter(3600, mean), v, nil
		}
	}
}

// servo runs the steady-state control law indefinitely. A counter read
// error sets the error flag and simply skips that tick's DAC update,
// per §4.8 step 5; it does not abort the loop.
func (c *ControlLoop) servo(fc *FeedbackControl) error {
	for {
		s, err := c.reader.Read()
		if err != nil {
			c.errorFlag = true
			continue
		}
		c.errorFlag = false

		code := fc.Tick(s.Frequency(refHz))
		c.dacDev.Set(code)
	}
}

func saturatingSub(v, delta uint32) uint32 {
	if delta > v {
		return 0
	}
	return v - delta
}

func saturatingAdd(v, delta uint32) uint32 {
	sum := uint64(v) + uint64(delta)
	if sum > 65535 {
		return 65535
	}
	return uint32(sum)
}
