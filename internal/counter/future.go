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

package counter

import (
	"runtime/interrupt"

	"gpsdo/internal/fpga"
)

// waiterQueueCapacity bounds the number of callers that may be parked
// on a counter-ready wakeup at once. One is the expected steady-state
// occupancy (the servo loop waits, reads, and loops); the extra
// headroom covers bring-up phases that interleave a console write
// between the wait and the read.
const waiterQueueCapacity = 8

// waiterQueue is a single-producer-single-consumer ring of channels:
// the main thread enqueues from non-interrupt context, the counter IRQ
// handler is the only consumer. It never allocates once primed, and
// the handler's entire job is draining it — see §5 and §9.
var waiterQueue struct {
	items [waiterQueueCapacity]chan struct{}
	head  int
	count int
}

func enqueueWaiter(ch chan struct{}) bool {
	state := interrupt.Disable()
	defer interrupt.Restore(state)

	if waiterQueue.count == waiterQueueCapacity {
		return false
	}
	tail := (waiterQueue.head + waiterQueue.count) % waiterQueueCapacity
	waiterQueue.items[tail] = ch
	waiterQueue.count++
	return true
}

// drainWaiters wakes every parked waiter. Runs only from the counter
// IRQ handler.
func drainWaiters() {
	for waiterQueue.count > 0 {
		ch := waiterQueue.items[waiterQueue.head]
		waiterQueue.head = (waiterQueue.head + 1) % waiterQueueCapacity
		waiterQueue.count--
		close(ch)
	}
}

// WaitForSample parks the caller until the counter-ready IRQ fires at
// least once after this call. If the waiter queue is saturated (every
// slot already holds a waiter the handler hasn't drained yet) it
// returns immediately rather than allocate past the fixed capacity;
// the caller's next read then simply waits for the following epoch.
func WaitForSample() {
	ch := make(chan struct{})
	if !enqueueWaiter(ch) {
		return
	}
	<-ch
}

// RegisterIRQ wires the counter-ready interrupt to drainWaiters. Call
// once during bring-up, before the first Reader.Read.
func RegisterIRQ() {
	irq := interrupt.New(fpga.CounterIRQ, func(interrupt.Interrupt) {
		drainWaiters()
	})
	irq.Enable()
}
