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

//go:build !up5k

package lfsr

// hx8k boards run the soft CPU at 201 MHz. This is the default board
// variant; build with -tags up5k to select the 100.5 MHz variant
// instead.
const (
	ClkLo = 200_999_000
	ClkHi = 201_001_000
)
