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
	"errors"

	"gpsdo/internal/fpga"
	"gpsdo/internal/lfsr"
)

// ErrCounterUnreadable means an LFSR state decoded to no count in its
// configured window.
var ErrCounterUnreadable = errors.New("counter: unreadable (lfsr decode out of window)")

// ErrMissedEpoch means the reader observed a gap in the counter's
// two-bit generation tag: a measurement cycle was lost between reads.
var ErrMissedEpoch = errors.New("counter: missed epoch")

// readRaw reads the four counter registers, retrying the whole
// bracket whenever the two epoch reads disagree (a torn read: the FPGA
// advanced the epoch mid-read). It never blocks.
func readRaw() (ref_sys, ref_sig, sig_sys uint32, epoch uint8) {
	regs := fpga.Counters()
	for {
		e1 := uint8(regs.Epoch.Get())
		rs := regs.RefSys.Get()
		rg := regs.RefSig.Get()
		ss := regs.SigSys.Get()
		e2 := uint8(regs.Epoch.Get())
		if e1 == e2 {
			return rs, rg, ss, e1
		}
	}
}

// readSample reads one torn-read-protected sample and decodes its LFSR
// states into counts.
func readSample() (Sample, error) {
	rawSys, rawSig, rawSigSys, epoch := readRaw()

	refSys, ok1 := lfsr.ReverseClk(rawSys)
	refSig, ok2 := lfsr.ReverseSig(rawSig)
	sigSys, ok3 := lfsr.ReverseClk(rawSigSys)
	if !ok1 || !ok2 || !ok3 {
		return Sample{}, ErrCounterUnreadable
	}

	return Sample{RefSys: refSys, RefSig: refSig, SigSys: sigSys, Epoch: epoch}, nil
}

// Reader tracks the last epoch seen so it can detect missed cycles
// across successive reads. It owns no hardware state of its own — the
// counter block is read-only and stateless from software's point of
// view — only the bookkeeping needed for the missed-epoch check.
type Reader struct {
	lastEpoch    uint8
	haveLastSeen bool
}

// Read blocks (via WaitForSample) until a fresh, non-torn sample is
// available, then returns it, or the first error encountered: a
// repeated epoch is retried silently (the caller raced ahead of the
// IRQ), but an LFSR decode failure or a detected missed epoch is
// returned immediately.
func (r *Reader) Read() (Sample, error) {
	for {
		WaitForSample()

		s, err := readSample()
		if err != nil {
			return Sample{}, err
		}

		if r.haveLastSeen {
			if r.lastEpoch == s.Epoch {
				continue
			}
			if (r.lastEpoch+1)&0b11 != s.Epoch {
				return Sample{}, ErrMissedEpoch
			}
		}
		r.lastEpoch = s.Epoch
		r.haveLastSeen = true
		return s, nil
	}
}
