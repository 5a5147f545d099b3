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

package adc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigWordLiteralExample(t *testing.T) {
	c := Config{Mux: MuxP0GND, Gain: Gain4V096, DataRate: DR1600, Temperature: false}
	want := uint16(0b1_100_001_1_100_0_1_01_1)
	assert.Equal(t, want, c.Word())
}

func TestConfigWordTemperatureBit(t *testing.T) {
	c := Config{Mux: MuxP0P1, Gain: Gain6V144, DataRate: DR128, Temperature: true}
	assert.NotZero(t, c.Word()&(1<<4))
}

func TestExpectedEchoMasksStartAndForcesReservedBit(t *testing.T) {
	applied := uint16(0b1_000_000_1_000_0_1_01_0)
	echo := expectedEcho(applied)
	assert.Zero(t, echo&(1<<15))
	assert.NotZero(t, echo&1)
}
