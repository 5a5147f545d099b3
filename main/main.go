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
	"fmt"
	"io"

	"gpsdo/internal/adc"
	"gpsdo/internal/console"
	"gpsdo/internal/control"
	"gpsdo/internal/counter"
	"gpsdo/internal/dac"
	"gpsdo/internal/spi"
)

// spiSetupCycles calibrates bit-bang SPI setup delay against the
// hx8k board's 201 MHz system clock; the up5k variant (100.5 MHz) is
// built with clk_up5k.go's counter windows but currently shares this
// timing constant, as the difference lies within the device's margin.
const spiSetupCycles = 20

func main() {
	out := console.New(115200)
	fmt.Fprintf(out, "gpsdo starting\n")

	bus := spi.NewBus(spiSetupCycles)
	dacDev := dac.New(bus, spi.PinDACCS)
	adcDev := adc.New(bus, spi.PinADCCS)

	counter.RegisterIRQ()
	reportTelemetry(out, adcDev)

	window := defaultToleranceWindow()

	for {
		reader := &counter.Reader{}
		loop := control.NewControlLoop(reader, dacDev, window, out)

		err := loop.Run()
		fmt.Fprintf(out, "state: %s (%v)\n", control.StateRestart, err)
	}
}

// reportTelemetry probes the internal temperature sensor once, then the
// single-ended inputs in turn until one reads successfully, and logs
// the readings to the console. It is
// diagnostic only, runs once before bring-up, and never touches the
// shared bus again afterward — the servo loop owns it exclusively from
// here on. Whether a single pass here is the intended behavior or a
// debug-only shortcut left over from bring-up is unclear; see §9.
func reportTelemetry(out io.Writer, adcDev *adc.ADS1018) {
	tempRaw, err := adcDev.Convert(adc.Config{Temperature: true, DataRate: adc.DR128})
	if err != nil {
		fmt.Fprintf(out, "telemetry: temperature read failed: %v\n", err)
	} else {
		fmt.Fprintf(out, "telemetry: board temp %.3f C\n", float64(tempRaw)*0.125)
	}

	channels := []adc.Mux{adc.MuxP0GND, adc.MuxP1GND, adc.MuxP2GND, adc.MuxP3GND}
	for _, mux := range channels {
		raw, err := adcDev.Convert(adc.Config{Mux: mux, Gain: adc.Gain2V048, DataRate: adc.DR128})
		if err != nil {
			fmt.Fprintf(out, "telemetry: channel %#03b read failed: %v\n", mux, err)
			continue
		}
		fmt.Fprintf(out, "telemetry: channel %#03b raw %d\n", mux, raw)
		break
	}
}

