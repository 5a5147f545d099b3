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

package dac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFrameBytesLiteralExample(t *testing.T) {
	got := frameBytes(0x1234)
	assert.Equal(t, [3]byte{0b0100_0000 | 0x04, 0x8d, 0x00}, got)
}

func TestFrameBytesZeroAndMax(t *testing.T) {
	assert.Equal(t, [3]byte{0b0100_0000, 0x00, 0x00}, frameBytes(0))
	assert.Equal(t, [3]byte{0b0111_1111, 0xff, 0b1100_0000}, frameBytes(0xffff))
}

// TestFrameBytesRoundTrip is testable property 3: every 16-bit code
// packs into a frame from which the original code can be recovered.
func TestFrameBytesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := uint16(rapid.Uint32Range(0, 0xffff).Draw(t, "code"))
		f := frameBytes(code)

		recovered := uint16(f[0]&0b0011_1111)<<10 | uint16(f[1])<<2 | uint16(f[2])>>6
		assert.Equal(t, code, recovered)
	})
}
