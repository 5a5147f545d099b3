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

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRampDownFilter(t *testing.T) {
	f := NewLinearRampDownFilter(4)

	f.Add(1.0)
	assert.Equal(t, 1.0, f.Get())
	f.Add(0.0)
	assert.Equal(t, 0.75, f.Get())
	f.Add(0.0)
	assert.Equal(t, 0.5, f.Get())
	f.Add(0.0)
	assert.Equal(t, 0.25, f.Get())
	f.Add(0.0)
	assert.Equal(t, 0.0, f.Get())
}

func TestRampUpFilter(t *testing.T) {
	f := NewLinearRampUpFilter(4)

	f.Add(1.0)
	assert.Equal(t, 0.25, f.Get())
	f.Add(0.0)
	assert.Equal(t, 0.5, f.Get())
	f.Add(0.0)
	assert.Equal(t, 0.75, f.Get())
	f.Add(0.0)
	assert.Equal(t, 1.0, f.Get())
	f.Add(0.0)
	assert.Equal(t, 0.0, f.Get())
}

func TestExponentialFilter(t *testing.T) {
	f := NewExpFilter(1, 1.0)

	f.Add(2.0)
	assert.InDelta(t, 1.63, f.Get(), 0.01)
	f.Add(2.0)
	assert.InDelta(t, 1.86, f.Get(), 0.01)
	f.Add(2.0)
	assert.InDelta(t, 1.95, f.Get(), 0.01)
}

func TestLongExponentialFilter(t *testing.T) {
	f := NewExpFilter(4, 1.0)

	for i := 0; i < 4; i++ {
		f.Add(2.0)
	}
	assert.InDelta(t, 1.63, f.Get(), 0.01)

	for i := 0; i < 4; i++ {
		f.Add(2.0)
	}
	assert.InDelta(t, 1.86, f.Get(), 0.01)
}

// TestExpFilterAdjustmentCommutes is testable property 1: applying an
// adjustment commutes with adding samples, and either order lands at
// ema(x) + delta.
func TestExpFilterAdjustmentCommutes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tau := rapid.Uint32Range(1, 1000).Draw(t, "tau")
		v0 := rapid.Float64Range(-1e6, 1e6).Draw(t, "v0")
		delta := rapid.Float64Range(-1e6, 1e6).Draw(t, "delta")
		xs := rapid.SliceOfN(rapid.Float64Range(-1e6, 1e6), 1, 20).Draw(t, "xs")

		addThenAdjust := NewExpFilter(tau, v0)
		for _, x := range xs {
			addThenAdjust.Add(x)
		}
		addThenAdjust.ApplyAdjustment(delta)

		adjustThenAdd := NewExpFilter(tau, v0)
		adjustThenAdd.ApplyAdjustment(delta)
		for _, x := range xs {
			adjustThenAdd.Add(x)
		}

		plain := NewExpFilter(tau, v0)
		for _, x := range xs {
			plain.Add(x)
		}
		want := plain.Get() + delta

		assert.InDelta(t, addThenAdjust.Get(), adjustThenAdd.Get(), 1e-6)
		assert.InDelta(t, want, adjustThenAdd.Get(), 1e-6)
	})
}

// TestDeadZoneClipMonotoneOddIdentity is testable property 2.
func TestDeadZoneClipMonotoneOddIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dz := rapid.Float64Range(0, 1000).Draw(t, "dz")
		x1 := rapid.Float64Range(-1e6, 1e6).Draw(t, "x1")
		x2 := rapid.Float64Range(-1e6, 1e6).Draw(t, "x2")

		if x1 > x2 {
			x1, x2 = x2, x1
		}
		assert.LessOrEqual(t, DeadZoneClip(x1, dz), DeadZoneClip(x2, dz))

		assert.InDelta(t, -DeadZoneClip(x1, dz), DeadZoneClip(-x1, dz), 1e-9)

		if x1 > dz {
			assert.InDelta(t, x1-dz, DeadZoneClip(x1, dz), 1e-9)
		}
		if x1 < -dz {
			assert.InDelta(t, x1+dz, DeadZoneClip(x1, dz), 1e-9)
		}
	})
}

func TestUniformAverageFilterIsFullAndAdjustment(t *testing.T) {
	f := NewUniformAverageFilter(3)
	assert.False(t, f.IsFull())
	f.Add(1.0)
	f.Add(2.0)
	assert.False(t, f.IsFull())
	f.Add(3.0)
	assert.True(t, f.IsFull())
	assert.Equal(t, 2.0, f.Get())

	f.ApplyAdjustment(1.0)
	assert.Equal(t, 3.0, f.Get())

	f.Add(10.0) // overwrites the oldest slot (original 1.0, shifted to 2.0 by the adjustment)
	assert.InDelta(t, (10.0+3.0+4.0)/3.0, f.Get(), 1e-9)
}
