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

// Package reactor is the cooperative, single-threaded dispatcher
// described in §4.9. It is present but largely latent: the servo loop
// currently drives the counter directly through counter.Reader rather
// than through this dispatcher's flags, matching the system's current
// architecture where the PI loop busy-awaits the counter's async
// future rather than routing through event flags.
package reactor

import "runtime"

// Reactor holds no task queue of its own beyond a handful of readiness
// flags and one deadline, checked in fixed priority order every
// iteration of Run.
type Reactor struct {
	ntpReady          bool
	counterReady      bool
	otherNetReady     bool
	dhcpRenewDeadline *uint64

	now func() uint64

	ServiceNTPRequest       func()
	ServiceFrequencyCounter func()
	ServiceOtherNet         func()
	ServiceDHCPRenew        func()
}

// New builds a Reactor driven by the given monotonic tick source.
// Service callbacks left nil are treated as no-ops — NTP and DHCP are
// out of scope and never assigned one.
func New(now func() uint64) *Reactor {
	return &Reactor{now: now}
}

func (r *Reactor) nextWakeup() (uint64, bool) {
	if r.dhcpRenewDeadline == nil {
		return 0, false
	}
	return *r.dhcpRenewDeadline, true
}

// Run services at most one ready flag per iteration, in priority order
// NTP > Counter > OtherNet > DHCP, then sleeps until the earliest
// scheduled deadline or the next interrupt. It never returns.
func (r *Reactor) Run() {
	for {
		now := r.now()

		if r.ntpReady {
			r.ntpReady = false
			r.call(r.ServiceNTPRequest)
			continue
		}
		if r.counterReady {
			r.counterReady = false
			r.call(r.ServiceFrequencyCounter)
			continue
		}
		if r.otherNetReady {
			r.otherNetReady = false
			r.call(r.ServiceOtherNet)
			continue
		}
		if r.dhcpRenewDeadline != nil && int64(*r.dhcpRenewDeadline-now) <= 0 {
			r.dhcpRenewDeadline = nil
			r.call(r.ServiceDHCPRenew)
			continue
		}

		if wake, ok := r.nextWakeup(); ok {
			sleepTicks(wake - now)
		} else {
			sleepWaitForInterrupt()
		}
	}
}

func (r *Reactor) call(f func()) {
	if f != nil {
		f()
	}
}

// ScheduleDHCPRenew arranges for ServiceDHCPRenew to run once the
// reactor's clock reaches ticks.
func (r *Reactor) ScheduleDHCPRenew(ticks uint64) {
	r.dhcpRenewDeadline = &ticks
}

// InvokeDHCPRenew schedules an immediate DHCP renewal.
func (r *Reactor) InvokeDHCPRenew() {
	now := r.now()
	r.dhcpRenewDeadline = &now
}

// InvokeNTPRequest marks NTP service as ready for the next iteration.
func (r *Reactor) InvokeNTPRequest() { r.ntpReady = true }

// InvokeFrequencyCounter marks counter service as ready for the next
// iteration.
func (r *Reactor) InvokeFrequencyCounter() { r.counterReady = true }

// InvokeOtherNet marks other-network service as ready for the next
// iteration.
func (r *Reactor) InvokeOtherNet() { r.otherNetReady = true }

// sleepTicks and sleepWaitForInterrupt stand in for the bare-metal
// timer-IRQ-plus-wait-for-interrupt pair: there is no portable Go
// primitive for "halt the CPU until any interrupt fires", so both
// cooperatively yield instead, matching the teacher's own gosched
// stand-in for a busy hardware wait.
func sleepTicks(ticks uint64) {
	for i := uint64(0); i < ticks; i++ {
		runtime.Gosched()
	}
}

func sleepWaitForInterrupt() {
	runtime.Gosched()
}
