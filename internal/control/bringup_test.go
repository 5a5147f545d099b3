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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestFindOperatingPointConvergesOnMonotoneFunction is testable
// property 6: given a monotone frequency-vs-code function crossing
// target somewhere in [0, 65535], the search terminates with the
// result within tolerance of target.
func TestFindOperatingPointConvergesOnMonotoneFunction(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		slope := rapid.Float64Range(0.01, 10).Draw(t, "slope")
		crossingCode := rapid.Float64Range(100, 65435).Draw(t, "crossing_code")
		const target = 10e6

		freqAt := func(code uint16, samples int) (float64, error) {
			_ = samples
			return target + slope*(float64(code)-crossingCode), nil
		}

		probes := 0
		counting := func(code uint16, samples int) (float64, error) {
			probes++
			return freqAt(code, samples)
		}

		result, err := FindOperatingPoint(counting, target)
		assert.NoError(t, err)

		got := target + slope*(float64(result)-crossingCode)
		assert.LessOrEqual(t, math.Abs(got-target), 0.1+slope*16,
			"result=%d crossing=%v slope=%v", result, crossingCode, slope)

		// O(log 65536) probes, generously bounded: each iteration issues
		// two probes and the search halves its bracket (or steps by a
		// fixed amount when target is outside the current bracket).
		assert.Less(t, probes, 400)
	})
}

func TestFindOperatingPointPropagatesReaderError(t *testing.T) {
	sentinel := errSentinel{}
	_, err := FindOperatingPoint(func(uint16, int) (float64, error) {
		return 0, sentinel
	}, 10e6)
	assert.Equal(t, sentinel, err)
}

type errSentinel struct{}

func (errSentinel) Error() string { return "sentinel" }
